package yieldsim

import (
	"regexp"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
)

func init() {
	migration.MustRegister(1, &Position{}, migration.NoModification)
	migration.MustRegisterLayout(&Position{}, migration.Reserve(5))
}

// Position is the state of a venue.
type Position struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Name     string            `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	// Vault is the only address allowed to move capital.
	Vault harvest.Address `protobuf:"bytes,3,opt,name=vault,proto3" json:"vault,omitempty"`
	// Principal is the amount invested and not divested yet.
	Principal *coin.Coin `protobuf:"bytes,4,opt,name=principal,proto3" json:"principal,omitempty"`
	// Harvested is the cumulative realized reward.
	Harvested *coin.Coin `protobuf:"bytes,5,opt,name=harvested,proto3" json:"harvested,omitempty"`
	Pending   *coin.Coin `protobuf:"bytes,6,opt,name=pending,proto3" json:"pending,omitempty"`
	// Haircut is the share of every divestment that is lost.
	Haircut harvest.Ratio `protobuf:"varint,7,opt,name=haircut,proto3" json:"haircut,omitempty"`
}

func (m *Position) Reset()                         { *m = Position{} }
func (m *Position) String() string                 { return proto.CompactTextString(m) }
func (*Position) ProtoMessage()                    {}
func (m *Position) Marshal() ([]byte, error)       { return proto.Marshal((*positionCodec)(m)) }
func (m *Position) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*positionCodec)(m)) }
func (m *Position) GetMetadata() *harvest.Metadata { return m.Metadata }

type positionCodec Position

func (m *positionCodec) Reset()         { *m = positionCodec{} }
func (m *positionCodec) String() string { return proto.CompactTextString(m) }
func (*positionCodec) ProtoMessage()    {}

func (m *Position) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !isName(m.Name) {
		errs = errors.AppendField(errs, "Name", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Vault", m.Vault.Validate())
	errs = errors.AppendField(errs, "Principal", validBalance(m.Principal))
	errs = errors.AppendField(errs, "Harvested", validBalance(m.Harvested))
	errs = errors.AppendField(errs, "Pending", validBalance(m.Pending))
	errs = errors.AppendField(errs, "Haircut", m.Haircut.Validate())
	return errs
}

func validBalance(c *coin.Coin) error {
	if c == nil {
		return errors.ErrEmpty
	}
	if !c.IsNonNegative() {
		return errors.ErrAmount
	}
	return c.Validate()
}

// NewPositionBucket returns the bucket storing positions by venue name.
func NewPositionBucket() orm.ModelBucket {
	return migration.NewModelBucket("yieldsim", orm.NewModelBucket("position", &Position{}))
}

var isName = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`).MatchString
