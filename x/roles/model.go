package roles

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
)

func init() {
	migration.MustRegister(1, &Grant{}, migration.NoModification)
	migration.MustRegisterLayout(&Grant{}, migration.Reserve(5))
}

// Grant records that an address holds a role.
type Grant struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Role     string            `protobuf:"bytes,2,opt,name=role,proto3" json:"role,omitempty"`
	Address  harvest.Address   `protobuf:"bytes,3,opt,name=address,proto3" json:"address,omitempty"`
}

func (m *Grant) Reset()                         { *m = Grant{} }
func (m *Grant) String() string                 { return proto.CompactTextString(m) }
func (*Grant) ProtoMessage()                    {}
func (m *Grant) Marshal() ([]byte, error)       { return proto.Marshal((*grantCodec)(m)) }
func (m *Grant) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*grantCodec)(m)) }
func (m *Grant) GetMetadata() *harvest.Metadata { return m.Metadata }

type grantCodec Grant

func (m *grantCodec) Reset()         { *m = grantCodec{} }
func (m *grantCodec) String() string { return proto.CompactTextString(m) }
func (*grantCodec) ProtoMessage()    {}

func (m *Grant) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Role", Role(m.Role).Validate())
	errs = errors.AppendField(errs, "Address", m.Address.Validate())
	return errs
}

func grantKey(role Role, addr harvest.Address) []byte {
	return orm.CompositeKey([]byte(role), addr)
}

// StoreOracle reads grants from the store.
type StoreOracle struct {
	b orm.ModelBucket
}

var _ Oracle = (*StoreOracle)(nil)

// NewStoreOracle returns an oracle backed by the "grant" bucket.
func NewStoreOracle() *StoreOracle {
	return &StoreOracle{
		b: migration.NewModelBucket("roles", orm.NewModelBucket("grant", &Grant{})),
	}
}

// HasRole implements Oracle. Any database failure is reported as a missing
// grant.
func (s *StoreOracle) HasRole(db harvest.ReadOnlyKVStore, role Role, addr harvest.Address) bool {
	if len(addr) == 0 {
		return false
	}
	return s.b.Has(db, grantKey(role, addr)) == nil
}

// Grant stores a new grant. It is used by the genesis initializer and tests.
func (s *StoreOracle) Grant(db harvest.KVStore, role Role, addr harvest.Address) error {
	g := &Grant{
		Metadata: &harvest.Metadata{Schema: 1},
		Role:     string(role),
		Address:  addr,
	}
	_, err := s.b.Put(db, grantKey(role, addr), g)
	return err
}
