package weavetest

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/iov-one/harvest"
)

// SequenceID returns an ID encoded the way the orm sequences encode values.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// Ctx returns a context with the block height and time set.
func Ctx(height int64, now time.Time) harvest.Context {
	ctx := harvest.WithHeight(context.Background(), height)
	ctx = harvest.WithBlockTime(ctx, now)
	return harvest.WithChainID(ctx, "harvest-test")
}
