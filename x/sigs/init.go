package sigs

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/migration"
)

// Initializer prepares the signer bucket. Signer accounts are created on
// their first signed transaction, so genesis carries no data for them.
type Initializer struct{}

var _ harvest.Initializer = Initializer{}

func (Initializer) FromGenesis(opts harvest.Options, db harvest.KVStore) error {
	migration.MustInitPkg(db, "sigs")
	return nil
}
