package app

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
)

// CommitStore handles loading from a CommitKVStore and maintains the cache
// wrap all blocks write to until they are committed.
type CommitStore struct {
	committed harvest.CommitKVStore
	deliver   harvest.KVCacheWrap
}

// NewCommitStore loads the latest version of given store.
func NewCommitStore(store harvest.CommitKVStore) (*CommitStore, error) {
	if err := store.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	return &CommitStore{
		committed: store,
		deliver:   store.CacheWrap(),
	}, nil
}

// CommitInfo returns the current height and hash
func (cs *CommitStore) CommitInfo() (harvest.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Commit will flush deliver to the underlying store and commit it
// to disk. It then regenerates a new deliver cache.
func (cs *CommitStore) Commit() (harvest.CommitID, error) {
	if err := cs.deliver.Write(); err != nil {
		return harvest.CommitID{}, errors.Wrap(err, "flush block")
	}
	res, err := cs.committed.Commit()
	if err != nil {
		return res, err
	}
	cs.deliver = cs.committed.CacheWrap()
	return res, nil
}

// DeliverStore returns the store all block operations write to.
func (cs *CommitStore) DeliverStore() harvest.CacheableKVStore {
	return cs.deliver
}

// _hv: is a prefix for application internal data
const chainIDKey = "_hv:chainID"

// loadChainID returns the chain id stored if any
func loadChainID(kv harvest.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "load chain id")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv harvest.KVStore, chainID string) error {
	if !harvest.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	exists, err := kv.Has(k)
	if err != nil {
		return errors.Wrap(err, "load chain id")
	}
	if exists {
		return errors.Wrap(errors.ErrUnauthorized, "can't modify chain id after genesis init")
	}
	if err := kv.Set(k, []byte(chainID)); err != nil {
		return errors.Wrap(err, "save chain id")
	}
	return nil
}
