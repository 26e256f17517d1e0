package stake

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x/payout"
)

var (
	_ harvest.Msg = (*StakeMsg)(nil)
	_ harvest.Msg = (*RequestExitMsg)(nil)
	_ harvest.Msg = (*CompleteExitMsg)(nil)
)

// StakeMsg locks coins of the supporter behind a campaign.
type StakeMsg struct {
	Metadata  *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Supporter harvest.Address   `protobuf:"bytes,2,opt,name=supporter,proto3" json:"supporter,omitempty"`
	Campaign  string            `protobuf:"bytes,3,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Amount    *coin.Coin        `protobuf:"bytes,4,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *StakeMsg) Reset()                         { *m = StakeMsg{} }
func (m *StakeMsg) String() string                 { return proto.CompactTextString(m) }
func (*StakeMsg) ProtoMessage()                    {}
func (m *StakeMsg) Marshal() ([]byte, error)       { return proto.Marshal((*stakeMsgCodec)(m)) }
func (m *StakeMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*stakeMsgCodec)(m)) }
func (m *StakeMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (StakeMsg) Path() string                      { return "stake/stake" }

type stakeMsgCodec StakeMsg

func (m *stakeMsgCodec) Reset()         { *m = stakeMsgCodec{} }
func (m *stakeMsgCodec) String() string { return proto.CompactTextString(m) }
func (*stakeMsgCodec) ProtoMessage()    {}

func (m *StakeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Supporter", m.Supporter.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(m.Campaign))
	switch {
	case m.Amount == nil:
		errs = errors.AppendField(errs, "Amount", errors.ErrEmpty)
	case !m.Amount.IsPositive():
		errs = errors.AppendField(errs, "Amount", errors.ErrAmount)
	default:
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	}
	return errs
}

// RequestExitMsg moves the whole stake of the supporter into escrow.
type RequestExitMsg struct {
	Metadata  *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Supporter harvest.Address   `protobuf:"bytes,2,opt,name=supporter,proto3" json:"supporter,omitempty"`
	Campaign  string            `protobuf:"bytes,3,opt,name=campaign,proto3" json:"campaign,omitempty"`
}

func (m *RequestExitMsg) Reset()         { *m = RequestExitMsg{} }
func (m *RequestExitMsg) String() string { return proto.CompactTextString(m) }
func (*RequestExitMsg) ProtoMessage()    {}
func (m *RequestExitMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*requestExitMsgCodec)(m))
}
func (m *RequestExitMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*requestExitMsgCodec)(m))
}
func (m *RequestExitMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (RequestExitMsg) Path() string                      { return "stake/request_exit" }

type requestExitMsgCodec RequestExitMsg

func (m *requestExitMsgCodec) Reset()         { *m = requestExitMsgCodec{} }
func (m *requestExitMsgCodec) String() string { return proto.CompactTextString(m) }
func (*requestExitMsgCodec) ProtoMessage()    {}

func (m *RequestExitMsg) Validate() error {
	return validateExit(m.Metadata, m.Supporter, m.Campaign)
}

// CompleteExitMsg releases the escrow once the exit delay passed.
type CompleteExitMsg struct {
	Metadata  *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Supporter harvest.Address   `protobuf:"bytes,2,opt,name=supporter,proto3" json:"supporter,omitempty"`
	Campaign  string            `protobuf:"bytes,3,opt,name=campaign,proto3" json:"campaign,omitempty"`
}

func (m *CompleteExitMsg) Reset()         { *m = CompleteExitMsg{} }
func (m *CompleteExitMsg) String() string { return proto.CompactTextString(m) }
func (*CompleteExitMsg) ProtoMessage()    {}
func (m *CompleteExitMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*completeExitMsgCodec)(m))
}
func (m *CompleteExitMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*completeExitMsgCodec)(m))
}
func (m *CompleteExitMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (CompleteExitMsg) Path() string                      { return "stake/complete_exit" }

type completeExitMsgCodec CompleteExitMsg

func (m *completeExitMsgCodec) Reset()         { *m = completeExitMsgCodec{} }
func (m *completeExitMsgCodec) String() string { return proto.CompactTextString(m) }
func (*completeExitMsgCodec) ProtoMessage()    {}

func (m *CompleteExitMsg) Validate() error {
	return validateExit(m.Metadata, m.Supporter, m.Campaign)
}

func validateExit(meta *harvest.Metadata, supporter harvest.Address, campaign string) error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", meta.Validate())
	errs = errors.AppendField(errs, "Supporter", supporter.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(campaign))
	return errs
}
