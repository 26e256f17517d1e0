/*
Package iavl provides a persistent, versioned store backed by an iavl tree.
Every Commit saves a new version of the tree; the working state is only
modified through cache wraps that are written on success.
*/
package iavl

import (
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DefaultCacheSize is the number of tree nodes kept in memory.
const DefaultCacheSize = 10000

// CommitStore manages a iavl committed state
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with disk backing. The database is
// created in given directory, with given name.
func NewCommitStore(dir, name string) (CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return CommitStore{}, errors.Wrapf(errors.ErrDatabase, "open leveldb: %s", err)
	}
	return NewCommitStoreFromDB(db), nil
}

// NewMemCommitStore returns a store that keeps all versions in memory.
func NewMemCommitStore() CommitStore {
	return NewCommitStoreFromDB(dbm.NewMemDB())
}

// NewCommitStoreFromDB creates a store on top of an already open database.
func NewCommitStoreFromDB(db dbm.DB) CommitStore {
	tree := iavl.NewMutableTree(db, DefaultCacheSize)
	return CommitStore{tree: tree}
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist. Panics on nil key.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.GetVersioned(key, s.tree.Version())
	return val, nil
}

// Commit the next version to disk, and returns info
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "save version: %s", err)
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "load: %s", err)
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// CacheWrap gives us a savepoint to perform actions on the working state.
// Writing the cache wrap modifies the working tree, that is persisted with
// the next Commit.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	adapter := treeAdapter{tree: s.tree}
	return store.NewBTreeCacheWrap(adapter, adapter.NewBatch(), nil)
}

// treeAdapter exposes the working tree as a KVStore.
type treeAdapter struct {
	tree *iavl.MutableTree
}

var _ store.KVStore = treeAdapter{}

func (a treeAdapter) Get(key []byte) ([]byte, error) {
	_, val := a.tree.Get(key)
	return val, nil
}

func (a treeAdapter) Has(key []byte) (bool, error) {
	return a.tree.Has(key), nil
}

func (a treeAdapter) Set(key, value []byte) error {
	a.tree.Set(key, value)
	return nil
}

func (a treeAdapter) Delete(key []byte) error {
	a.tree.Remove(key)
	return nil
}

func (a treeAdapter) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(a)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (a treeAdapter) Iterator(start, end []byte) (store.Iterator, error) {
	return a.iterate(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (a treeAdapter) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return a.iterate(start, end, false), nil
}

func (a treeAdapter) iterate(start, end []byte, ascending bool) store.Iterator {
	var res []store.Model
	a.tree.IterateRange(start, end, ascending, func(key []byte, value []byte) bool {
		res = append(res, store.Pair(key, value))
		return false
	})
	return store.NewSliceIterator(res)
}
