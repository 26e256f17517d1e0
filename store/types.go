package store

import "github.com/iov-one/harvest"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = harvest.ReadOnlyKVStore
type SetDeleter = harvest.SetDeleter
type KVStore = harvest.KVStore
type Batch = harvest.Batch
type Iterator = harvest.Iterator
type CacheableKVStore = harvest.CacheableKVStore
type KVCacheWrap = harvest.KVCacheWrap
type CommitKVStore = harvest.CommitKVStore
type CommitID = harvest.CommitID

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
