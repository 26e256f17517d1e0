package orm

import (
	"encoding/binary"
	"fmt"
)

// PrefixEnd returns the smallest key that is greater than all keys starting
// with given prefix. It returns nil if no such key exists, which is the case
// for an empty prefix or a prefix made only of 0xFF bytes.
func PrefixEnd(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// CompositeKey joins all parts into a single key. Each part is prefixed
// with its length, so that keys sharing the leading parts are stored next
// to each other and no two different part lists produce the same key.
// A part longer than 255 bytes is a coding error.
func CompositeKey(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		if len(p) > 0xFF {
			panic(fmt.Sprintf("composite key part too long: %d", len(p)))
		}
		size += 1 + len(p)
	}
	key := make([]byte, 0, size)
	for _, p := range parts {
		key = append(key, byte(len(p)))
		key = append(key, p...)
	}
	return key
}

// Uint64Key returns the big endian representation of given value. Big endian
// keeps the numeric order when keys are compared as bytes.
func Uint64Key(v uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, v)
	return bz
}
