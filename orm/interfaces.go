package orm

import (
	"github.com/iov-one/harvest"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	harvest.Persistent
	Validate() error
}

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// Name returns the name of the bucket. It is used as the key prefix.
	Name() string

	// One query the database for a single model instance. Lookup is done
	// by the primary key. Result is loaded into given destination model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db harvest.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db harvest.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database. Before inserting into the
	// database, model is validated using its Validate method.
	// If the key is nil or zero length then a sequence generator is used to
	// create a unique key value.
	// Using a key that already exists in the database cause the value to
	// be overwritten.
	Put(db harvest.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db harvest.KVStore, key []byte) error

	// Scan returns an iterator over all entities with a primary key within
	// [start, end). A nil start or end leaves the range open on that side.
	Scan(db harvest.ReadOnlyKVStore, start, end []byte, reverse bool) (ModelIterator, error)

	// PrefixScan returns an iterator over all entities which primary key
	// starts with given prefix.
	PrefixScan(db harvest.ReadOnlyKVStore, prefix []byte, reverse bool) (ModelIterator, error)
}

// ModelIterator allows to iterate over models stored in a bucket.
type ModelIterator interface {
	// LoadNext loads the next model into given destination and returns its
	// primary key. ErrIteratorDone is returned when there are no more
	// entities to visit.
	LoadNext(dest Model) (key []byte, err error)
	// Release releases the iterator resources.
	Release()
}
