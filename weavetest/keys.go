package weavetest

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/crypto"
)

// NewKey returns a random ed25519 private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns a condition of a freshly generated ed25519 key.
func NewCondition() harvest.Condition {
	return NewKey().PublicKey().Condition()
}
