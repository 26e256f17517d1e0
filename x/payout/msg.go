package payout

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
)

var (
	_ harvest.Msg = (*SetPreferenceMsg)(nil)
	_ harvest.Msg = (*ProposeFeeMsg)(nil)
	_ harvest.Msg = (*ExecuteFeeMsg)(nil)
	_ harvest.Msg = (*CancelFeeMsg)(nil)
	_ harvest.Msg = (*ResumeCampaignMsg)(nil)
)

// SetPreferenceMsg stores how the yield share of the holder is split.
type SetPreferenceMsg struct {
	Metadata    *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Holder      harvest.Address   `protobuf:"bytes,2,opt,name=holder,proto3" json:"holder,omitempty"`
	Campaign    string            `protobuf:"bytes,3,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Beneficiary harvest.Address   `protobuf:"bytes,4,opt,name=beneficiary,proto3" json:"beneficiary,omitempty"`
	Allocation  harvest.Ratio     `protobuf:"varint,5,opt,name=allocation,proto3" json:"allocation,omitempty"`
}

func (m *SetPreferenceMsg) Reset()         { *m = SetPreferenceMsg{} }
func (m *SetPreferenceMsg) String() string { return proto.CompactTextString(m) }
func (*SetPreferenceMsg) ProtoMessage()    {}
func (m *SetPreferenceMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*setPreferenceMsgCodec)(m))
}
func (m *SetPreferenceMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*setPreferenceMsgCodec)(m))
}
func (m *SetPreferenceMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (SetPreferenceMsg) Path() string                      { return "payout/set_preference" }

type setPreferenceMsgCodec SetPreferenceMsg

func (m *setPreferenceMsgCodec) Reset()         { *m = setPreferenceMsgCodec{} }
func (m *setPreferenceMsgCodec) String() string { return proto.CompactTextString(m) }
func (*setPreferenceMsgCodec) ProtoMessage()    {}

// ProposeFeeMsg requests a fee change. Requires the governor role.
type ProposeFeeMsg struct {
	Metadata  *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Ratio     harvest.Ratio     `protobuf:"varint,2,opt,name=ratio,proto3" json:"ratio,omitempty"`
	Recipient harvest.Address   `protobuf:"bytes,3,opt,name=recipient,proto3" json:"recipient,omitempty"`
}

func (m *ProposeFeeMsg) Reset()                   { *m = ProposeFeeMsg{} }
func (m *ProposeFeeMsg) String() string           { return proto.CompactTextString(m) }
func (*ProposeFeeMsg) ProtoMessage()              {}
func (m *ProposeFeeMsg) Marshal() ([]byte, error) { return proto.Marshal((*proposeFeeMsgCodec)(m)) }
func (m *ProposeFeeMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*proposeFeeMsgCodec)(m))
}
func (m *ProposeFeeMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (ProposeFeeMsg) Path() string                      { return "payout/propose_fee" }

type proposeFeeMsgCodec ProposeFeeMsg

func (m *proposeFeeMsgCodec) Reset()         { *m = proposeFeeMsgCodec{} }
func (m *proposeFeeMsgCodec) String() string { return proto.CompactTextString(m) }
func (*proposeFeeMsgCodec) ProtoMessage()    {}

// ExecuteFeeMsg applies a fee proposal whose timelock expired.
type ExecuteFeeMsg struct {
	Metadata   *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	ProposalID []byte            `protobuf:"bytes,2,opt,name=proposal_id,json=proposalId,proto3" json:"proposal_id,omitempty"`
}

func (m *ExecuteFeeMsg) Reset()                   { *m = ExecuteFeeMsg{} }
func (m *ExecuteFeeMsg) String() string           { return proto.CompactTextString(m) }
func (*ExecuteFeeMsg) ProtoMessage()              {}
func (m *ExecuteFeeMsg) Marshal() ([]byte, error) { return proto.Marshal((*executeFeeMsgCodec)(m)) }
func (m *ExecuteFeeMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*executeFeeMsgCodec)(m))
}
func (m *ExecuteFeeMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (ExecuteFeeMsg) Path() string                      { return "payout/execute_fee" }

type executeFeeMsgCodec ExecuteFeeMsg

func (m *executeFeeMsgCodec) Reset()         { *m = executeFeeMsgCodec{} }
func (m *executeFeeMsgCodec) String() string { return proto.CompactTextString(m) }
func (*executeFeeMsgCodec) ProtoMessage()    {}

// CancelFeeMsg removes a pending fee proposal. Requires the governor role.
type CancelFeeMsg struct {
	Metadata   *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	ProposalID []byte            `protobuf:"bytes,2,opt,name=proposal_id,json=proposalId,proto3" json:"proposal_id,omitempty"`
}

func (m *CancelFeeMsg) Reset()                         { *m = CancelFeeMsg{} }
func (m *CancelFeeMsg) String() string                 { return proto.CompactTextString(m) }
func (*CancelFeeMsg) ProtoMessage()                    {}
func (m *CancelFeeMsg) Marshal() ([]byte, error)       { return proto.Marshal((*cancelFeeMsgCodec)(m)) }
func (m *CancelFeeMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*cancelFeeMsgCodec)(m)) }
func (m *CancelFeeMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (CancelFeeMsg) Path() string                      { return "payout/cancel_fee" }

type cancelFeeMsgCodec CancelFeeMsg

func (m *cancelFeeMsgCodec) Reset()         { *m = cancelFeeMsgCodec{} }
func (m *cancelFeeMsgCodec) String() string { return proto.CompactTextString(m) }
func (*cancelFeeMsgCodec) ProtoMessage()    {}

// ResumeCampaignMsg lifts the payout halt of a campaign. Requires the curator role.
type ResumeCampaignMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
}

func (m *ResumeCampaignMsg) Reset()         { *m = ResumeCampaignMsg{} }
func (m *ResumeCampaignMsg) String() string { return proto.CompactTextString(m) }
func (*ResumeCampaignMsg) ProtoMessage()    {}
func (m *ResumeCampaignMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*resumeCampaignMsgCodec)(m))
}
func (m *ResumeCampaignMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*resumeCampaignMsgCodec)(m))
}
func (m *ResumeCampaignMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (ResumeCampaignMsg) Path() string                      { return "payout/resume_campaign" }

type resumeCampaignMsgCodec ResumeCampaignMsg

func (m *resumeCampaignMsgCodec) Reset()         { *m = resumeCampaignMsgCodec{} }
func (m *resumeCampaignMsgCodec) String() string { return proto.CompactTextString(m) }
func (*resumeCampaignMsgCodec) ProtoMessage()    {}

func (m *SetPreferenceMsg) Validate() error {
	p := Preference{
		Metadata:    m.Metadata,
		Holder:      m.Holder,
		Campaign:    m.Campaign,
		Beneficiary: m.Beneficiary,
		Allocation:  m.Allocation,
	}
	return p.Validate()
}

func (m *ProposeFeeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Ratio", m.Ratio.Validate())
	errs = errors.AppendField(errs, "Recipient", validateRecipient(m.Ratio, m.Recipient))
	return errs
}

func (m *ExecuteFeeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "ProposalID", validateID(m.ProposalID))
	return errs
}

func (m *CancelFeeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "ProposalID", validateID(m.ProposalID))
	return errs
}

func (m *ResumeCampaignMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Campaign", ValidateCampaign(m.Campaign))
	return errs
}

func validateID(id []byte) error {
	if len(id) == 0 {
		return errors.ErrEmpty
	}
	if len(id) != 8 {
		return errors.Wrap(errors.ErrInput, "id must be 8 bytes")
	}
	return nil
}
