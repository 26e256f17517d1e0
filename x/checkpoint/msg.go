package checkpoint

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x/payout"
)

var (
	_ harvest.Msg = (*ScheduleMsg)(nil)
	_ harvest.Msg = (*VoteMsg)(nil)
	_ harvest.Msg = (*FinalizeMsg)(nil)
	_ harvest.Msg = (*ExecuteMsg)(nil)
	_ harvest.Msg = (*CancelMsg)(nil)
)

// ScheduleMsg creates a checkpoint. Requires the curator role.
type ScheduleMsg struct {
	Metadata    *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign    string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	WindowStart harvest.UnixTime  `protobuf:"varint,3,opt,name=window_start,json=windowStart,proto3" json:"window_start,omitempty"`
	WindowEnd   harvest.UnixTime  `protobuf:"varint,4,opt,name=window_end,json=windowEnd,proto3" json:"window_end,omitempty"`
	Quorum      harvest.Ratio     `protobuf:"varint,5,opt,name=quorum,proto3" json:"quorum,omitempty"`
}

func (m *ScheduleMsg) Reset()                         { *m = ScheduleMsg{} }
func (m *ScheduleMsg) String() string                 { return proto.CompactTextString(m) }
func (*ScheduleMsg) ProtoMessage()                    {}
func (m *ScheduleMsg) Marshal() ([]byte, error)       { return proto.Marshal((*scheduleMsgCodec)(m)) }
func (m *ScheduleMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*scheduleMsgCodec)(m)) }
func (m *ScheduleMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (ScheduleMsg) Path() string                      { return "checkpoint/schedule" }

type scheduleMsgCodec ScheduleMsg

func (m *scheduleMsgCodec) Reset()         { *m = scheduleMsgCodec{} }
func (m *scheduleMsgCodec) String() string { return proto.CompactTextString(m) }
func (*scheduleMsgCodec) ProtoMessage()    {}

func (m *ScheduleMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(m.Campaign))
	errs = errors.AppendField(errs, "WindowStart", m.WindowStart.Validate())
	errs = errors.AppendField(errs, "WindowEnd", m.WindowEnd.Validate())
	if m.WindowEnd <= m.WindowStart {
		errs = errors.AppendField(errs, "WindowEnd", errors.Wrap(errors.ErrInput, "window must end after it starts"))
	}
	if m.Quorum == 0 {
		errs = errors.AppendField(errs, "Quorum", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Quorum", m.Quorum.Validate())
	}
	return errs
}

// VoteMsg casts a vote. It must be signed by the voter.
type VoteMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Voter    harvest.Address   `protobuf:"bytes,2,opt,name=voter,proto3" json:"voter,omitempty"`
	Campaign string            `protobuf:"bytes,3,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Index    int64             `protobuf:"varint,4,opt,name=index,proto3" json:"index,omitempty"`
	Support  bool              `protobuf:"varint,5,opt,name=support,proto3" json:"support,omitempty"`
}

func (m *VoteMsg) Reset()                         { *m = VoteMsg{} }
func (m *VoteMsg) String() string                 { return proto.CompactTextString(m) }
func (*VoteMsg) ProtoMessage()                    {}
func (m *VoteMsg) Marshal() ([]byte, error)       { return proto.Marshal((*voteMsgCodec)(m)) }
func (m *VoteMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*voteMsgCodec)(m)) }
func (m *VoteMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (VoteMsg) Path() string                      { return "checkpoint/vote" }

type voteMsgCodec VoteMsg

func (m *voteMsgCodec) Reset()         { *m = voteMsgCodec{} }
func (m *voteMsgCodec) String() string { return proto.CompactTextString(m) }
func (*voteMsgCodec) ProtoMessage()    {}

func (m *VoteMsg) Validate() error {
	errs := validateRef(m.Metadata, m.Campaign, m.Index)
	return errors.AppendField(errs, "Voter", m.Voter.Validate())
}

// FinalizeMsg closes the vote of a checkpoint. Requires the curator role.
type FinalizeMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Index    int64             `protobuf:"varint,3,opt,name=index,proto3" json:"index,omitempty"`
}

func (m *FinalizeMsg) Reset()                         { *m = FinalizeMsg{} }
func (m *FinalizeMsg) String() string                 { return proto.CompactTextString(m) }
func (*FinalizeMsg) ProtoMessage()                    {}
func (m *FinalizeMsg) Marshal() ([]byte, error)       { return proto.Marshal((*finalizeMsgCodec)(m)) }
func (m *FinalizeMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*finalizeMsgCodec)(m)) }
func (m *FinalizeMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (FinalizeMsg) Path() string                      { return "checkpoint/finalize" }

type finalizeMsgCodec FinalizeMsg

func (m *finalizeMsgCodec) Reset()         { *m = finalizeMsgCodec{} }
func (m *finalizeMsgCodec) String() string { return proto.CompactTextString(m) }
func (*finalizeMsgCodec) ProtoMessage()    {}

func (m *FinalizeMsg) Validate() error {
	return validateRef(m.Metadata, m.Campaign, m.Index)
}

// ExecuteMsg marks a finalized checkpoint as executed. Requires the
// curator role.
type ExecuteMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Index    int64             `protobuf:"varint,3,opt,name=index,proto3" json:"index,omitempty"`
}

func (m *ExecuteMsg) Reset()                         { *m = ExecuteMsg{} }
func (m *ExecuteMsg) String() string                 { return proto.CompactTextString(m) }
func (*ExecuteMsg) ProtoMessage()                    {}
func (m *ExecuteMsg) Marshal() ([]byte, error)       { return proto.Marshal((*executeMsgCodec)(m)) }
func (m *ExecuteMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*executeMsgCodec)(m)) }
func (m *ExecuteMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (ExecuteMsg) Path() string                      { return "checkpoint/execute" }

type executeMsgCodec ExecuteMsg

func (m *executeMsgCodec) Reset()         { *m = executeMsgCodec{} }
func (m *executeMsgCodec) String() string { return proto.CompactTextString(m) }
func (*executeMsgCodec) ProtoMessage()    {}

func (m *ExecuteMsg) Validate() error {
	return validateRef(m.Metadata, m.Campaign, m.Index)
}

// CancelMsg cancels a scheduled or running checkpoint. Requires the curator
// role.
type CancelMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Index    int64             `protobuf:"varint,3,opt,name=index,proto3" json:"index,omitempty"`
}

func (m *CancelMsg) Reset()                         { *m = CancelMsg{} }
func (m *CancelMsg) String() string                 { return proto.CompactTextString(m) }
func (*CancelMsg) ProtoMessage()                    {}
func (m *CancelMsg) Marshal() ([]byte, error)       { return proto.Marshal((*cancelMsgCodec)(m)) }
func (m *CancelMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*cancelMsgCodec)(m)) }
func (m *CancelMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (CancelMsg) Path() string                      { return "checkpoint/cancel" }

type cancelMsgCodec CancelMsg

func (m *cancelMsgCodec) Reset()         { *m = cancelMsgCodec{} }
func (m *cancelMsgCodec) String() string { return proto.CompactTextString(m) }
func (*cancelMsgCodec) ProtoMessage()    {}

func (m *CancelMsg) Validate() error {
	return validateRef(m.Metadata, m.Campaign, m.Index)
}

func validateRef(meta *harvest.Metadata, campaign string, index int64) error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", meta.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(campaign))
	if index < 1 {
		errs = errors.AppendField(errs, "Index", errors.ErrInput)
	}
	return errs
}
