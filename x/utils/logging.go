package utils

import (
	"time"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
)

// Logging is a decorator to log messages as they pass through
type Logging struct{}

var _ harvest.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Deliver logs error -> error, success -> info
func (r Logging) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx, next harvest.Handler) (*harvest.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, db, tx)

	logger := harvest.GetLogger(ctx).With("duration", time.Since(start)/time.Microsecond)
	if msg, merr := tx.GetMsg(); merr == nil && msg != nil {
		logger = logger.With("path", msg.Path())
	}
	if err != nil {
		code, _ := errors.ABCIInfo(err, false)
		logger.Error("delivery failed", "code", code, "err", err)
		return nil, err
	}
	logger.Info(res.Log)
	return res, nil
}
