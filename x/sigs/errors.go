package sigs

import "github.com/iov-one/harvest/errors"

// ErrInvalidSequence is returned when a signature nonce does not match the
// account sequence.
var ErrInvalidSequence = errors.Register(120, "invalid sequence number").Of(errors.Authorization)
