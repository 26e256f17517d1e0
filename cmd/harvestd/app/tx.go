package harvestd

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/checkpoint"
	"github.com/iov-one/harvest/x/payout"
	"github.com/iov-one/harvest/x/sigs"
	"github.com/iov-one/harvest/x/stake"
	"github.com/iov-one/harvest/x/vault"
	"github.com/iov-one/harvest/x/yieldsim"
)

// Tx is the envelope of every transaction. The message is kept serialized
// together with its path, so that the envelope does not need to know every
// message type in advance.
type Tx struct {
	Signatures []*sigs.StdSignature `protobuf:"bytes,1,rep,name=signatures,proto3" json:"signatures,omitempty"`
	Path       string               `protobuf:"bytes,2,opt,name=path,proto3" json:"path,omitempty"`
	Msg        []byte               `protobuf:"bytes,3,opt,name=msg,proto3" json:"msg,omitempty"`
}

func (m *Tx) Reset()                   { *m = Tx{} }
func (m *Tx) String() string           { return proto.CompactTextString(m) }
func (*Tx) ProtoMessage()              {}
func (m *Tx) Marshal() ([]byte, error) { return proto.Marshal((*txCodec)(m)) }
func (m *Tx) Unmarshal(b []byte) error { return proto.Unmarshal(b, (*txCodec)(m)) }

type txCodec Tx

func (m *txCodec) Reset()         { *m = txCodec{} }
func (m *txCodec) String() string { return proto.CompactTextString(m) }
func (*txCodec) ProtoMessage()    {}

// make sure tx fulfills all interfaces
var _ harvest.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// NewTx wraps given message into an unsigned transaction.
func NewTx(msg harvest.Msg) (*Tx, error) {
	if _, ok := messages[msg.Path()]; !ok {
		return nil, errors.Wrapf(errors.ErrType, "unknown message path %q", msg.Path())
	}
	raw, err := msg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal msg")
	}
	return &Tx{Path: msg.Path(), Msg: raw}, nil
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (harvest.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return tx, nil
}

// GetMsg decodes the message using the type registered for the path.
func (m *Tx) GetMsg() (harvest.Msg, error) {
	factory, ok := messages[m.Path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "unknown message path %q", m.Path)
	}
	msg := factory()
	if err := msg.Unmarshal(m.Msg); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot decode %s: %s", m.Path, err)
	}
	return msg, nil
}

// GetSignatures implements sigs.SignedTx.
func (m *Tx) GetSignatures() []*sigs.StdSignature {
	return m.Signatures
}

// GetSignBytes returns the bytes to sign. Signatures are not part of them.
func (m *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Path: m.Path, Msg: m.Msg}
	return unsigned.Marshal()
}

var messages = map[string]func() harvest.Msg{}

func registerMsg(factories ...func() harvest.Msg) {
	for _, f := range factories {
		messages[f().Path()] = f
	}
}

func init() {
	registerMsg(
		func() harvest.Msg { return &cash.SendMsg{} },

		func() harvest.Msg { return &vault.CreateVaultMsg{} },
		func() harvest.Msg { return &vault.DepositMsg{} },
		func() harvest.Msg { return &vault.WithdrawMsg{} },
		func() harvest.Msg { return &vault.RedeemMsg{} },
		func() harvest.Msg { return &vault.HarvestMsg{} },
		func() harvest.Msg { return &vault.SetAdapterMsg{} },
		func() harvest.Msg { return &vault.DivestAllMsg{} },
		func() harvest.Msg { return &vault.SetRatioMsg{} },
		func() harvest.Msg { return &vault.SetPausedMsg{} },
		func() harvest.Msg { return &vault.EmergencyPauseMsg{} },
		func() harvest.Msg { return &vault.ResumeMsg{} },
		func() harvest.Msg { return &vault.EmergencyWithdrawMsg{} },

		func() harvest.Msg { return &payout.SetPreferenceMsg{} },
		func() harvest.Msg { return &payout.ProposeFeeMsg{} },
		func() harvest.Msg { return &payout.ExecuteFeeMsg{} },
		func() harvest.Msg { return &payout.CancelFeeMsg{} },
		func() harvest.Msg { return &payout.ResumeCampaignMsg{} },

		func() harvest.Msg { return &yieldsim.AccrueMsg{} },
		func() harvest.Msg { return &yieldsim.SlashMsg{} },
		func() harvest.Msg { return &yieldsim.SetHaircutMsg{} },

		func() harvest.Msg { return &stake.StakeMsg{} },
		func() harvest.Msg { return &stake.RequestExitMsg{} },
		func() harvest.Msg { return &stake.CompleteExitMsg{} },

		func() harvest.Msg { return &checkpoint.ScheduleMsg{} },
		func() harvest.Msg { return &checkpoint.VoteMsg{} },
		func() harvest.Msg { return &checkpoint.FinalizeMsg{} },
		func() harvest.Msg { return &checkpoint.ExecuteMsg{} },
		func() harvest.Msg { return &checkpoint.CancelMsg{} },
	)
}
