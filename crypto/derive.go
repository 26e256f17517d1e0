package crypto

import (
	"github.com/iov-one/harvest/errors"
	"github.com/stellar/go/exp/crypto/derivation"
)

// DefaultDerivationPath is the SLIP-0010 path of the first account key.
const DefaultDerivationPath = "m/44'/234'/0'"

// DeriveKey returns the ed25519 key found at given hardened derivation path
// of a master seed. The same seed and path always produce the same key.
func DeriveKey(seed []byte, path string) (*PrivateKey, error) {
	if len(seed) < 16 {
		return nil, errors.Wrap(errors.ErrInput, "seed too short")
	}
	k, err := derivation.DeriveForPath(path, seed)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "derive %q: %s", path, err)
	}
	return PrivKeyEd25519FromSeed(k.Key), nil
}
