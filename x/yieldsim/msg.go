package yieldsim

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
)

var (
	_ harvest.Msg = (*AccrueMsg)(nil)
	_ harvest.Msg = (*SlashMsg)(nil)
	_ harvest.Msg = (*SetHaircutMsg)(nil)
)

// AccrueMsg adds pending rewards to a venue.
type AccrueMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Venue    string            `protobuf:"bytes,2,opt,name=venue,proto3" json:"venue,omitempty"`
	Amount   *coin.Coin        `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *AccrueMsg) Reset()                         { *m = AccrueMsg{} }
func (m *AccrueMsg) String() string                 { return proto.CompactTextString(m) }
func (*AccrueMsg) ProtoMessage()                    {}
func (m *AccrueMsg) Marshal() ([]byte, error)       { return proto.Marshal((*accrueMsgCodec)(m)) }
func (m *AccrueMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*accrueMsgCodec)(m)) }
func (m *AccrueMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (AccrueMsg) Path() string                      { return "yieldsim/accrue" }

type accrueMsgCodec AccrueMsg

func (m *accrueMsgCodec) Reset()         { *m = accrueMsgCodec{} }
func (m *accrueMsgCodec) String() string { return proto.CompactTextString(m) }
func (*accrueMsgCodec) ProtoMessage()    {}

func (m *AccrueMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Venue", validateVenue(m.Venue))
	errs = errors.AppendField(errs, "Amount", validateAmount(m.Amount))
	return errs
}

// SlashMsg destroys invested coins of a venue.
type SlashMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Venue    string            `protobuf:"bytes,2,opt,name=venue,proto3" json:"venue,omitempty"`
	Amount   *coin.Coin        `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *SlashMsg) Reset()                         { *m = SlashMsg{} }
func (m *SlashMsg) String() string                 { return proto.CompactTextString(m) }
func (*SlashMsg) ProtoMessage()                    {}
func (m *SlashMsg) Marshal() ([]byte, error)       { return proto.Marshal((*slashMsgCodec)(m)) }
func (m *SlashMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*slashMsgCodec)(m)) }
func (m *SlashMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (SlashMsg) Path() string                      { return "yieldsim/slash" }

type slashMsgCodec SlashMsg

func (m *slashMsgCodec) Reset()         { *m = slashMsgCodec{} }
func (m *slashMsgCodec) String() string { return proto.CompactTextString(m) }
func (*slashMsgCodec) ProtoMessage()    {}

func (m *SlashMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Venue", validateVenue(m.Venue))
	errs = errors.AppendField(errs, "Amount", validateAmount(m.Amount))
	return errs
}

// SetHaircutMsg changes the share of every divestment that is lost.
type SetHaircutMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Venue    string            `protobuf:"bytes,2,opt,name=venue,proto3" json:"venue,omitempty"`
	Haircut  harvest.Ratio     `protobuf:"varint,3,opt,name=haircut,proto3" json:"haircut,omitempty"`
}

func (m *SetHaircutMsg) Reset()                   { *m = SetHaircutMsg{} }
func (m *SetHaircutMsg) String() string           { return proto.CompactTextString(m) }
func (*SetHaircutMsg) ProtoMessage()              {}
func (m *SetHaircutMsg) Marshal() ([]byte, error) { return proto.Marshal((*setHaircutMsgCodec)(m)) }
func (m *SetHaircutMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*setHaircutMsgCodec)(m))
}
func (m *SetHaircutMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (SetHaircutMsg) Path() string                      { return "yieldsim/set_haircut" }

type setHaircutMsgCodec SetHaircutMsg

func (m *setHaircutMsgCodec) Reset()         { *m = setHaircutMsgCodec{} }
func (m *setHaircutMsgCodec) String() string { return proto.CompactTextString(m) }
func (*setHaircutMsgCodec) ProtoMessage()    {}

func (m *SetHaircutMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Venue", validateVenue(m.Venue))
	errs = errors.AppendField(errs, "Haircut", m.Haircut.Validate())
	return errs
}

func validateVenue(name string) error {
	if name == "" {
		return errors.ErrEmpty
	}
	if !isName(name) {
		return errors.Wrapf(errors.ErrInput, "invalid venue name %q", name)
	}
	return nil
}

func validateAmount(c *coin.Coin) error {
	if coin.IsEmpty(c) || !c.IsPositive() {
		return errors.ErrAmount
	}
	return c.Validate()
}
