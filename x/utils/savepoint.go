package utils

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
)

// Savepoint will isolate all data inside of the call,
// and commit/rollback to savepoint based on if error
type Savepoint struct{}

var _ harvest.Decorator = Savepoint{}

// NewSavepoint creates a Savepoint decorator.
func NewSavepoint() Savepoint {
	return Savepoint{}
}

// Deliver writes all changes made by the next handler only if it succeeds.
func (s Savepoint) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx, next harvest.Handler) (*harvest.DeliverResult, error) {
	var res *harvest.DeliverResult
	err := Atomic(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		var err error
		res, err = next.Deliver(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Atomic runs fn on a cache wrapped store. All changes and all emitted events
// are published only when fn succeeds. Any error discards both.
func Atomic(ctx harvest.Context, db harvest.KVStore, fn func(harvest.Context, harvest.KVStore) error) error {
	cstore, ok := db.(harvest.CacheableKVStore)
	if !ok {
		return errors.Wrapf(errors.ErrHuman, "%T does not support savepoints", db)
	}

	cache := cstore.CacheWrap()
	opCtx, rec := harvest.WithEventRecorder(ctx)
	if err := fn(opCtx, cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "writing savepoint")
	}
	harvest.EmitEvent(ctx, rec.Events()...)
	return nil
}
