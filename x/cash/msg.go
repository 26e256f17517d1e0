package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
)

const maxMemoSize = 128

// SendMsg moves coins from the signer account to the destination.
type SendMsg struct {
	Metadata    *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Source      harvest.Address   `protobuf:"bytes,2,opt,name=source,proto3" json:"source,omitempty"`
	Destination harvest.Address   `protobuf:"bytes,3,opt,name=destination,proto3" json:"destination,omitempty"`
	Amount      *coin.Coin        `protobuf:"bytes,4,opt,name=amount,proto3" json:"amount,omitempty"`
	Memo        string            `protobuf:"bytes,5,opt,name=memo,proto3" json:"memo,omitempty"`
}

var _ harvest.Msg = (*SendMsg)(nil)

func (m *SendMsg) Reset()                         { *m = SendMsg{} }
func (m *SendMsg) String() string                 { return proto.CompactTextString(m) }
func (*SendMsg) ProtoMessage()                    {}
func (m *SendMsg) Marshal() ([]byte, error)       { return proto.Marshal((*sendMsgCodec)(m)) }
func (m *SendMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*sendMsgCodec)(m)) }
func (m *SendMsg) GetMetadata() *harvest.Metadata { return m.Metadata }

type sendMsgCodec SendMsg

func (m *sendMsgCodec) Reset()         { *m = sendMsgCodec{} }
func (m *sendMsgCodec) String() string { return proto.CompactTextString(m) }
func (*sendMsgCodec) ProtoMessage()    {}

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if coin.IsEmpty(m.Amount) || !m.Amount.IsPositive() {
		errs = errors.AppendField(errs, "Amount", errors.ErrAmount)
	} else {
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	}
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		errs = errors.AppendField(errs, "Memo", errors.ErrInput)
	}
	return errs
}
