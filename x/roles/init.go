package roles

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
)

// Initializer fulfils the Initializer interface to load role grants from
// the genesis file.
type Initializer struct{}

var _ harvest.Initializer = Initializer{}

type genesisGrant struct {
	Role    Role            `json:"role"`
	Address harvest.Address `json:"address"`
}

// FromGenesis stores the grants listed under the "roles" key.
func (Initializer) FromGenesis(opts harvest.Options, db harvest.KVStore) error {
	var grants []genesisGrant
	if err := opts.ReadOptions("roles", &grants); err != nil {
		return err
	}
	migration.MustInitPkg(db, "roles")
	oracle := NewStoreOracle()
	for i, g := range grants {
		if err := oracle.Grant(db, g.Role, g.Address); err != nil {
			return errors.Wrapf(err, "grant #%d", i)
		}
	}
	return nil
}
