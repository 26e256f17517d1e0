package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
)

func init() {
	migration.MustRegister(1, &Balance{}, migration.NoModification)
	migration.MustRegisterLayout(&Balance{}, migration.Reserve(5))
}

// Balance is the amount of a single currency owned by an address.
type Balance struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Owner    harvest.Address   `protobuf:"bytes,2,opt,name=owner,proto3" json:"owner,omitempty"`
	Amount   *coin.Coin        `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *Balance) Reset()                         { *m = Balance{} }
func (m *Balance) String() string                 { return proto.CompactTextString(m) }
func (*Balance) ProtoMessage()                    {}
func (m *Balance) Marshal() ([]byte, error)       { return proto.Marshal((*balanceCodec)(m)) }
func (m *Balance) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*balanceCodec)(m)) }
func (m *Balance) GetMetadata() *harvest.Metadata { return m.Metadata }

type balanceCodec Balance

func (m *balanceCodec) Reset()         { *m = balanceCodec{} }
func (m *balanceCodec) String() string { return proto.CompactTextString(m) }
func (*balanceCodec) ProtoMessage()    {}

func (m *Balance) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	if m.Amount == nil {
		errs = errors.AppendField(errs, "Amount", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
		if !m.Amount.IsNonNegative() {
			errs = errors.AppendField(errs, "Amount", errors.ErrAmount)
		}
	}
	return errs
}

func balanceKey(owner harvest.Address, ticker string) []byte {
	return orm.CompositeKey(owner, []byte(ticker))
}

// NewBalanceBucket returns a bucket for Balance models.
func NewBalanceBucket() orm.ModelBucket {
	b := orm.NewModelBucket("balance", &Balance{})
	return migration.NewModelBucket("cash", b)
}
