package cash

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file.
type GenesisAccount struct {
	Address harvest.Address `json:"address"`
	Coins   []coin.Coin     `json:"coins"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ harvest.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts harvest.Options, db harvest.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	migration.MustInitPkg(db, "cash")
	ctrl := NewController()
	for _, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrap(err, "genesis account")
		}
		for _, c := range acct.Coins {
			if err := ctrl.IssueCoins(db, acct.Address, c); err != nil {
				return errors.Wrapf(err, "genesis account %s", acct.Address)
			}
		}
	}
	return nil
}
