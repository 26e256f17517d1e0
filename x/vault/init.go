package vault

import (
	"context"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/gconf"
	"github.com/iov-one/harvest/migration"
)

const optKey = "vaults"

// GenesisVault is used to parse the json from genesis file.
type GenesisVault struct {
	Ticker        string        `json:"ticker"`
	BufferRatio   harvest.Ratio `json:"buffer_ratio"`
	SlippageRatio harvest.Ratio `json:"slippage_ratio"`
	MaxLossRatio  harvest.Ratio `json:"max_loss_ratio"`
	Adapter       string        `json:"adapter"`
}

// Initializer creates the configuration and the genesis vaults. Vaults are
// assigned IDs in the order of declaration, starting with 1. Adapters must
// be registered with the keeper before genesis is loaded.
type Initializer struct {
	Keeper *Keeper
}

var _ harvest.Initializer = (*Initializer)(nil)

func (i *Initializer) FromGenesis(opts harvest.Options, db harvest.KVStore) error {
	migration.MustInitPkg(db, packageName)

	conf := DefaultConfiguration()
	if err := gconf.InitConfigWithDefault(db, opts, packageName, &conf); err != nil {
		return errors.Wrap(err, "vault configuration")
	}

	var vaults []GenesisVault
	if err := opts.ReadOptions(optKey, &vaults); err != nil {
		return err
	}
	ctx := context.Background()
	for n, gv := range vaults {
		tmpl := Vault{
			Ticker:        gv.Ticker,
			BufferRatio:   gv.BufferRatio,
			SlippageRatio: gv.SlippageRatio,
			MaxLossRatio:  gv.MaxLossRatio,
			Adapter:       gv.Adapter,
		}
		if _, err := i.Keeper.createVault(ctx, db, tmpl); err != nil {
			return errors.Wrapf(err, "genesis vault %d", n)
		}
	}
	return nil
}
