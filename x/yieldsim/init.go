package yieldsim

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x/vault"
)

// GenesisVenue binds a venue to the vault with given sequence number.
type GenesisVenue struct {
	Name    string        `json:"name"`
	VaultID int64         `json:"vault_id"`
	Haircut harvest.Ratio `json:"haircut"`
}

// Initializer binds the genesis venues. Every listed venue must be one of
// Venues.
type Initializer struct {
	Venues []*Venue
}

var _ harvest.Initializer = (*Initializer)(nil)

func (i *Initializer) FromGenesis(opts harvest.Options, db harvest.KVStore) error {
	var venues []GenesisVenue
	if err := opts.ReadOptions("yieldsim", &venues); err != nil {
		return err
	}
	migration.MustInitPkg(db, "yieldsim")

	for _, gv := range venues {
		v := i.find(gv.Name)
		if v == nil {
			return errors.Wrapf(errors.ErrNotFound, "venue %q", gv.Name)
		}
		if gv.VaultID <= 0 {
			return errors.Wrapf(errors.ErrInput, "venue %q: vault id %d", gv.Name, gv.VaultID)
		}
		custody := vault.CustodyCondition(orm.EncodeSequence(gv.VaultID)).Address()
		if err := v.Bind(db, custody); err != nil {
			return err
		}
		if gv.Haircut != 0 {
			p, err := v.Position(db)
			if err != nil {
				return err
			}
			if err := gv.Haircut.Validate(); err != nil {
				return errors.Wrapf(err, "venue %q haircut", gv.Name)
			}
			p.Haircut = gv.Haircut
			if err := v.save(db, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i *Initializer) find(name string) *Venue {
	for _, v := range i.Venues {
		if v.Name() == name {
			return v
		}
	}
	return nil
}
