package utils

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
)

// Recovery is a decorator to recover from panics in transactions,
// so we can log them as errors
type Recovery struct{}

var _ harvest.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Deliver turns panics into normal errors
func (r Recovery) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx, next harvest.Handler) (_ *harvest.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, db, tx)
}
