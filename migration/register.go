package migration

import (
	"reflect"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
)

// Migratable is implemented by all models that are schema versioned.
type Migratable interface {
	GetMetadata() *harvest.Metadata
	Validate() error
}

// Migrator is a function that migrates a data entity from version
// requiredVersion-1 to requested version.
type Migrator func(db harvest.ReadOnlyKVStore, m Migratable) error

// NoModification is a migration function that migrates data that requires no
// change. It should be used to register migrations that do not require any
// modifications.
func NoModification(db harvest.ReadOnlyKVStore, m Migratable) error {
	return nil
}

func newRegister() *register {
	return &register{
		handlers: make(map[payloadVersion]Migrator),
	}
}

type register struct {
	handlers map[payloadVersion]Migrator
}

// payloadVersion references a model at a given schema version.
type payloadVersion struct {
	payload reflect.Type
	version uint32
}

func structType(m Migratable) (reflect.Type, error) {
	tp := reflect.TypeOf(m)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInput, "only struct can be migrated, got %T", m)
	}
	return tp, nil
}

func (r *register) MustRegister(migrationTo uint32, m Migratable, fn Migrator) {
	if err := r.Register(migrationTo, m, fn); err != nil {
		panic(err)
	}
}

func (r *register) Register(migrationTo uint32, m Migratable, fn Migrator) error {
	tp, err := structType(m)
	if err != nil {
		return err
	}
	if migrationTo < 1 {
		return errors.Wrap(errors.ErrInput, "schema version must be at least 1")
	}
	pv := payloadVersion{payload: tp, version: migrationTo}
	if _, ok := r.handlers[pv]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "already registered: %s.%s:%d", tp.PkgPath(), tp.Name(), migrationTo)
	}
	r.handlers[pv] = fn
	return nil
}

// Apply migrates the model to given schema version. Every version between
// the model current version and the requested one must have a registered
// migration.
func (r *register) Apply(db harvest.ReadOnlyKVStore, m Migratable, migrateTo uint32) error {
	tp, err := structType(m)
	if err != nil {
		return err
	}

	meta := m.GetMetadata()
	if meta == nil {
		return errors.Wrap(errors.ErrMetadata, "nil metadata")
	}
	for v := meta.Schema + 1; v <= migrateTo; v++ {
		migrate, ok := r.handlers[payloadVersion{payload: tp, version: v}]
		if !ok {
			return errors.Wrapf(errors.ErrSchema, "%s migration to version %d missing", tp.Name(), v)
		}
		if err := migrate(db, m); err != nil {
			return errors.Wrapf(err, "migration to version %d", v)
		}
		meta.Schema = v
	}

	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "validation")
	}
	return nil
}

// reg is a globally available register instance that must be used during the
// runtime to register migration handlers.
var reg = newRegister()

// MustRegister registers a migration function that upgrades given model
// type to the migrationTo schema version.
func MustRegister(migrationTo uint32, m Migratable, fn Migrator) {
	reg.MustRegister(migrationTo, m, fn)
}
