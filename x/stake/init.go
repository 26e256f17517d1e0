package stake

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/gconf"
	"github.com/iov-one/harvest/migration"
)

// Initializer stores the stake configuration.
type Initializer struct{}

var _ harvest.Initializer = (*Initializer)(nil)

func (*Initializer) FromGenesis(opts harvest.Options, db harvest.KVStore) error {
	migration.MustInitPkg(db, packageName)
	conf := DefaultConfiguration()
	if err := gconf.InitConfigWithDefault(db, opts, packageName, &conf); err != nil {
		return errors.Wrap(err, "stake configuration")
	}
	return nil
}
