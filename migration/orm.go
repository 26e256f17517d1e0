package migration

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/orm"
)

// ModelBucket implements the orm.ModelBucket interface and provides the same
// functionality with additional model schema migration.
type ModelBucket struct {
	orm.ModelBucket
	packageName string
	schema      *SchemaBucket
	migrations  *register
}

var _ orm.ModelBucket = (*ModelBucket)(nil)

// NewModelBucket returns a bucket that migrates every model of given package
// to the current schema version before returning or storing it.
func NewModelBucket(packageName string, b orm.ModelBucket) *ModelBucket {
	return &ModelBucket{
		ModelBucket: b,
		packageName: packageName,
		schema:      NewSchemaBucket(),
		migrations:  reg,
	}
}

// useRegister will update this bucket to use a custom register instance
// instead of the global one. This is a private method meant to be used for
// tests only.
func (m *ModelBucket) useRegister(r *register) {
	m.migrations = r
}

func (m *ModelBucket) One(db harvest.ReadOnlyKVStore, key []byte, dest orm.Model) error {
	if err := m.ModelBucket.One(db, key, dest); err != nil {
		return err
	}
	if err := m.migrate(db, dest); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return nil
}

func (m *ModelBucket) Put(db harvest.KVStore, key []byte, model orm.Model) ([]byte, error) {
	if err := m.migrate(db, model); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	return m.ModelBucket.Put(db, key, model)
}

func (m *ModelBucket) Scan(db harvest.ReadOnlyKVStore, start, end []byte, reverse bool) (orm.ModelIterator, error) {
	it, err := m.ModelBucket.Scan(db, start, end, reverse)
	if err != nil {
		return nil, err
	}
	return &migratingIterator{ModelIterator: it, db: db, bucket: m}, nil
}

func (m *ModelBucket) PrefixScan(db harvest.ReadOnlyKVStore, prefix []byte, reverse bool) (orm.ModelIterator, error) {
	return m.Scan(db, prefix, orm.PrefixEnd(prefix), reverse)
}

func (m *ModelBucket) migrate(db harvest.ReadOnlyKVStore, model orm.Model) error {
	return migrate(m.migrations, m.schema, m.packageName, db, model)
}

type migratingIterator struct {
	orm.ModelIterator
	db     harvest.ReadOnlyKVStore
	bucket *ModelBucket
}

func (it *migratingIterator) LoadNext(dest orm.Model) ([]byte, error) {
	key, err := it.ModelIterator.LoadNext(dest)
	if err != nil {
		return nil, err
	}
	if err := it.bucket.migrate(it.db, dest); err != nil {
		return nil, errors.Wrapf(err, "migrate %x", key)
	}
	return key, nil
}

func migrate(
	migrations *register,
	schema *SchemaBucket,
	packageName string,
	db harvest.ReadOnlyKVStore,
	value interface{},
) error {
	m, ok := value.(Migratable)
	if !ok {
		return errors.Wrap(errors.ErrModel, "model cannot be migrated")
	}
	currSchemaVer, err := schema.CurrentSchema(db, packageName)
	if err != nil {
		return errors.Wrapf(err, "current schema version of package %q", packageName)
	}

	meta := m.GetMetadata()
	if meta == nil {
		return errors.Wrapf(errors.ErrMetadata, "%T metadata is nil", m)
	}

	// In case of schema not being set we assume the code is expecting the
	// current version. We can therefore set the default to current schema
	// version.
	if meta.Schema == 0 {
		meta.Schema = currSchemaVer
		return nil
	}

	if meta.Schema > currSchemaVer {
		return errors.Wrapf(errors.ErrSchema, "model schema higher than %d", currSchemaVer)
	}

	// Migration is applied in place, directly modifying the instance.
	if err := migrations.Apply(db, m, currSchemaVer); err != nil {
		return errors.Wrap(err, "schema migration")
	}
	return nil
}
