package harvest

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/iov-one/harvest/errors"
	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the harvest module

const (
	contextKeyHeight contextKey = iota
	contextKeyBlockTime
	contextKeyChainID
	contextKeyLogger
	contextKeyEvents
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString
)

// Context is just an alias for the standard implementation.
// We use functions to extend it to our domain
type Context = context.Context

// WithHeight sets the block height for the context.
// The height is the sequence point used by snapshots.
func WithHeight(ctx Context, height int64) Context {
	if _, ok := GetHeight(ctx); ok {
		panic("cannot overwrite block height")
	}
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height.
// If none was set, returns (0, false).
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithBlockTime sets the block time for the context. Block time is always
// represented in UTC.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyBlockTime, t.UTC())
}

// BlockTime returns current block wall clock time as declared in the context.
// An error is returned if a block time is not present in the context or if
// the zero time value is found.
func BlockTime(ctx Context) (time.Time, error) {
	val, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	if !ok {
		return time.Time{}, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	if val.IsZero() {
		// This is a special case when a zero time value was attached
		// to the context. Even though it is present it is not a valid
		// value.
		return val, errors.Wrap(errors.ErrHuman, "zero value block time in the context")
	}
	return val, nil
}

// MustBlockTime returns the current block time as declared in the context.
// It panics if the block time was not set.
func MustBlockTime(ctx Context) time.Time {
	t, err := BlockTime(ctx)
	if err != nil {
		panic(err)
	}
	return t
}

// BlockUnixTime returns the block time with second precision.
func BlockUnixTime(ctx Context) (UnixTime, error) {
	t, err := BlockTime(ctx)
	if err != nil {
		return 0, err
	}
	return AsUnixTime(t), nil
}

// IsExpired returns true if given time is in the past as compared to the "now"
// as declared for the block. Expiration is inclusive, meaning that if current
// time is equal to the expiration time than this function returns true.
//
// This function panic if the block time is not provided in the context. This
// must never happen. The panic is here to prevent from broken setup to be
// processing data incorrectly.
func IsExpired(ctx Context, t UnixTime) bool {
	return t <= AsUnixTime(MustBlockTime(ctx))
}

// WithChainID sets the chain id for the context.
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("cannot overwrite chain id")
	}
	if !IsValidChainID(chainID) {
		panic(fmt.Sprintf("invalid chain id: %q", chainID))
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id.
// Panics if chain id not already set (should never happen).
func GetChainID(ctx Context) string {
	if x := ctx.Value(contextKeyChainID); x == nil {
		panic("Chain id is not in context")
	}
	return ctx.Value(contextKeyChainID).(string)
}

// WithLogger sets the logger for this context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}
