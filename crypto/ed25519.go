/*
Package crypto wraps the signature schemes accepted by the application.

Only ed25519 is supported. A public key is turned into a harvest.Condition
that the sigs extension places in the context once a signature is verified.
*/
package crypto

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"golang.org/x/crypto/ed25519"
)

// ExtensionName is used for the Condition we create from a public key.
const ExtensionName = "sigs"

// PublicKey is an ed25519 public key.
type PublicKey struct {
	Ed25519 []byte `protobuf:"bytes,1,opt,name=ed25519,proto3" json:"ed25519,omitempty"`
}

func (m *PublicKey) Reset()         { *m = PublicKey{} }
func (m *PublicKey) String() string { return proto.CompactTextString(m) }
func (*PublicKey) ProtoMessage()    {}

// Validate checks the key length.
func (p *PublicKey) Validate() error {
	if p == nil || len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrap(errors.ErrInput, "invalid ed25519 public key")
	}
	return nil
}

// Verify verifies the signature was created with this message and public key
func (p *PublicKey) Verify(message, sig []byte) bool {
	if p.Validate() != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p.Ed25519), message, sig)
}

// Condition encodes the public key into a harvest permission
func (p *PublicKey) Condition() harvest.Condition {
	return harvest.NewCondition(ExtensionName, "ed25519", p.Ed25519)
}

// Address is a shortcut for Condition().Address()
func (p *PublicKey) Address() harvest.Address {
	return p.Condition().Address()
}

// PrivateKey is an ed25519 private key. It never leaves the client.
type PrivateKey struct {
	Ed25519 []byte
}

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) ([]byte, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(errors.ErrInput, "invalid ed25519 private key")
	}
	return ed25519.Sign(ed25519.PrivateKey(p.Ed25519), message), nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() *PublicKey {
	pub := ed25519.PrivateKey(p.Ed25519).Public().(ed25519.PublicKey)
	return &PublicKey{Ed25519: pub}
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}
}
