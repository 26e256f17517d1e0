package sigs

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/crypto"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
)

func init() {
	migration.MustRegister(1, &UserData{}, migration.NoModification)
	migration.MustRegisterLayout(&UserData{}, migration.Reserve(5))
}

// UserData keeps the public key and the replay protection sequence of a
// signer. It is stored under the signer address.
type UserData struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Pubkey   *crypto.PublicKey `protobuf:"bytes,2,opt,name=pubkey,proto3" json:"pubkey,omitempty"`
	Sequence int64             `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

func (m *UserData) Reset()                         { *m = UserData{} }
func (m *UserData) String() string                 { return proto.CompactTextString(m) }
func (*UserData) ProtoMessage()                    {}
func (m *UserData) Marshal() ([]byte, error)       { return proto.Marshal((*userDataCodec)(m)) }
func (m *UserData) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*userDataCodec)(m)) }
func (m *UserData) GetMetadata() *harvest.Metadata { return m.Metadata }

type userDataCodec UserData

func (m *userDataCodec) Reset()         { *m = userDataCodec{} }
func (m *userDataCodec) String() string { return proto.CompactTextString(m) }
func (*userDataCodec) ProtoMessage()    {}

func (m *UserData) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Pubkey", m.Pubkey.Validate())
	if m.Sequence < 0 {
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	}
	return errs
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
func (m *UserData) CheckAndIncrementSequence(expected int64) error {
	if m.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", m.Sequence, expected)
	}
	// Clients represent the nonce as a javascript number.
	const maxSequenceValue = (1 << 53) - 1
	next := m.Sequence + 1
	if next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	m.Sequence = next
	return nil
}

// NewUserBucket returns a bucket storing UserData by signer address.
func NewUserBucket() orm.ModelBucket {
	return migration.NewModelBucket("sigs", orm.NewModelBucket("user", &UserData{}))
}

// NextNonce returns the next numeric nonce value that should be used during a
// transaction signing.
func NextNonce(db harvest.ReadOnlyKVStore, signer harvest.Address) (int64, error) {
	var u UserData
	switch err := NewUserBucket().One(db, signer, &u); {
	case err == nil:
		return u.Sequence, nil
	case errors.ErrNotFound.Is(err):
		// If not yet present, nonce counting starts with zero.
		return 0, nil
	default:
		return 0, err
	}
}
