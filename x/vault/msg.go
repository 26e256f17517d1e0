package vault

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
)

var (
	_ harvest.Msg = (*CreateVaultMsg)(nil)
	_ harvest.Msg = (*DepositMsg)(nil)
	_ harvest.Msg = (*WithdrawMsg)(nil)
	_ harvest.Msg = (*RedeemMsg)(nil)
	_ harvest.Msg = (*HarvestMsg)(nil)
	_ harvest.Msg = (*SetAdapterMsg)(nil)
	_ harvest.Msg = (*DivestAllMsg)(nil)
	_ harvest.Msg = (*SetRatioMsg)(nil)
	_ harvest.Msg = (*SetPausedMsg)(nil)
	_ harvest.Msg = (*EmergencyPauseMsg)(nil)
	_ harvest.Msg = (*ResumeMsg)(nil)
	_ harvest.Msg = (*EmergencyWithdrawMsg)(nil)
)

// CreateVaultMsg creates a new empty vault. Requires the governor role.
type CreateVaultMsg struct {
	Metadata      *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Ticker        string            `protobuf:"bytes,2,opt,name=ticker,proto3" json:"ticker,omitempty"`
	BufferRatio   harvest.Ratio     `protobuf:"varint,3,opt,name=buffer_ratio,json=bufferRatio,proto3" json:"buffer_ratio,omitempty"`
	SlippageRatio harvest.Ratio     `protobuf:"varint,4,opt,name=slippage_ratio,json=slippageRatio,proto3" json:"slippage_ratio,omitempty"`
	MaxLossRatio  harvest.Ratio     `protobuf:"varint,5,opt,name=max_loss_ratio,json=maxLossRatio,proto3" json:"max_loss_ratio,omitempty"`
	Adapter       string            `protobuf:"bytes,6,opt,name=adapter,proto3" json:"adapter,omitempty"`
}

func (m *CreateVaultMsg) Reset()                   { *m = CreateVaultMsg{} }
func (m *CreateVaultMsg) String() string           { return proto.CompactTextString(m) }
func (*CreateVaultMsg) ProtoMessage()              {}
func (m *CreateVaultMsg) Marshal() ([]byte, error) { return proto.Marshal((*createVaultMsgCodec)(m)) }
func (m *CreateVaultMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*createVaultMsgCodec)(m))
}
func (m *CreateVaultMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (CreateVaultMsg) Path() string                      { return "vault/create" }

type createVaultMsgCodec CreateVaultMsg

func (m *createVaultMsgCodec) Reset()         { *m = createVaultMsgCodec{} }
func (m *createVaultMsgCodec) String() string { return proto.CompactTextString(m) }
func (*createVaultMsgCodec) ProtoMessage()    {}

// DepositMsg moves coins of the depositor into the vault and mints units for
// the receiver.
type DepositMsg struct {
	Metadata  *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID   []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
	Amount    *coin.Coin        `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount,omitempty"`
	Depositor harvest.Address   `protobuf:"bytes,4,opt,name=depositor,proto3" json:"depositor,omitempty"`
	Receiver  harvest.Address   `protobuf:"bytes,5,opt,name=receiver,proto3" json:"receiver,omitempty"`
}

func (m *DepositMsg) Reset()                         { *m = DepositMsg{} }
func (m *DepositMsg) String() string                 { return proto.CompactTextString(m) }
func (*DepositMsg) ProtoMessage()                    {}
func (m *DepositMsg) Marshal() ([]byte, error)       { return proto.Marshal((*depositMsgCodec)(m)) }
func (m *DepositMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*depositMsgCodec)(m)) }
func (m *DepositMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (DepositMsg) Path() string                      { return "vault/deposit" }

type depositMsgCodec DepositMsg

func (m *depositMsgCodec) Reset()         { *m = depositMsgCodec{} }
func (m *depositMsgCodec) String() string { return proto.CompactTextString(m) }
func (*depositMsgCodec) ProtoMessage()    {}

// WithdrawMsg burns the units worth given amount.
type WithdrawMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
	Amount   *coin.Coin        `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount,omitempty"`
	Owner    harvest.Address   `protobuf:"bytes,4,opt,name=owner,proto3" json:"owner,omitempty"`
	Receiver harvest.Address   `protobuf:"bytes,5,opt,name=receiver,proto3" json:"receiver,omitempty"`
}

func (m *WithdrawMsg) Reset()                         { *m = WithdrawMsg{} }
func (m *WithdrawMsg) String() string                 { return proto.CompactTextString(m) }
func (*WithdrawMsg) ProtoMessage()                    {}
func (m *WithdrawMsg) Marshal() ([]byte, error)       { return proto.Marshal((*withdrawMsgCodec)(m)) }
func (m *WithdrawMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*withdrawMsgCodec)(m)) }
func (m *WithdrawMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (WithdrawMsg) Path() string                      { return "vault/withdraw" }

type withdrawMsgCodec WithdrawMsg

func (m *withdrawMsgCodec) Reset()         { *m = withdrawMsgCodec{} }
func (m *withdrawMsgCodec) String() string { return proto.CompactTextString(m) }
func (*withdrawMsgCodec) ProtoMessage()    {}

// RedeemMsg burns given units and pays their value.
type RedeemMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
	Units    string            `protobuf:"bytes,3,opt,name=units,proto3" json:"units,omitempty"`
	Owner    harvest.Address   `protobuf:"bytes,4,opt,name=owner,proto3" json:"owner,omitempty"`
	Receiver harvest.Address   `protobuf:"bytes,5,opt,name=receiver,proto3" json:"receiver,omitempty"`
}

func (m *RedeemMsg) Reset()                         { *m = RedeemMsg{} }
func (m *RedeemMsg) String() string                 { return proto.CompactTextString(m) }
func (*RedeemMsg) ProtoMessage()                    {}
func (m *RedeemMsg) Marshal() ([]byte, error)       { return proto.Marshal((*redeemMsgCodec)(m)) }
func (m *RedeemMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*redeemMsgCodec)(m)) }
func (m *RedeemMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (RedeemMsg) Path() string                      { return "vault/redeem" }

type redeemMsgCodec RedeemMsg

func (m *redeemMsgCodec) Reset()         { *m = redeemMsgCodec{} }
func (m *redeemMsgCodec) String() string { return proto.CompactTextString(m) }
func (*redeemMsgCodec) ProtoMessage()    {}

// HarvestMsg realizes the adapter result. Anyone can send it.
type HarvestMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
}

func (m *HarvestMsg) Reset()                         { *m = HarvestMsg{} }
func (m *HarvestMsg) String() string                 { return proto.CompactTextString(m) }
func (*HarvestMsg) ProtoMessage()                    {}
func (m *HarvestMsg) Marshal() ([]byte, error)       { return proto.Marshal((*harvestMsgCodec)(m)) }
func (m *HarvestMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*harvestMsgCodec)(m)) }
func (m *HarvestMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (HarvestMsg) Path() string                      { return "vault/harvest" }

type harvestMsgCodec HarvestMsg

func (m *harvestMsgCodec) Reset()         { *m = harvestMsgCodec{} }
func (m *harvestMsgCodec) String() string { return proto.CompactTextString(m) }
func (*harvestMsgCodec) ProtoMessage()    {}

type SetAdapterMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
	Adapter  string            `protobuf:"bytes,3,opt,name=adapter,proto3" json:"adapter,omitempty"`
}

func (m *SetAdapterMsg) Reset()                   { *m = SetAdapterMsg{} }
func (m *SetAdapterMsg) String() string           { return proto.CompactTextString(m) }
func (*SetAdapterMsg) ProtoMessage()              {}
func (m *SetAdapterMsg) Marshal() ([]byte, error) { return proto.Marshal((*setAdapterMsgCodec)(m)) }
func (m *SetAdapterMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*setAdapterMsgCodec)(m))
}
func (m *SetAdapterMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (SetAdapterMsg) Path() string                      { return "vault/set_adapter" }

type setAdapterMsgCodec SetAdapterMsg

func (m *setAdapterMsgCodec) Reset()         { *m = setAdapterMsgCodec{} }
func (m *setAdapterMsgCodec) String() string { return proto.CompactTextString(m) }
func (*setAdapterMsgCodec) ProtoMessage()    {}

type DivestAllMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
}

func (m *DivestAllMsg) Reset()                         { *m = DivestAllMsg{} }
func (m *DivestAllMsg) String() string                 { return proto.CompactTextString(m) }
func (*DivestAllMsg) ProtoMessage()                    {}
func (m *DivestAllMsg) Marshal() ([]byte, error)       { return proto.Marshal((*divestAllMsgCodec)(m)) }
func (m *DivestAllMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*divestAllMsgCodec)(m)) }
func (m *DivestAllMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (DivestAllMsg) Path() string                      { return "vault/divest_all" }

type divestAllMsgCodec DivestAllMsg

func (m *divestAllMsgCodec) Reset()         { *m = divestAllMsgCodec{} }
func (m *divestAllMsgCodec) String() string { return proto.CompactTextString(m) }
func (*divestAllMsgCodec) ProtoMessage()    {}

// SetRatioMsg changes one of the buffer, slippage or max loss ratios.
type SetRatioMsg struct {
	Metadata  *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID   []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
	Parameter string            `protobuf:"bytes,3,opt,name=parameter,proto3" json:"parameter,omitempty"`
	Ratio     harvest.Ratio     `protobuf:"varint,4,opt,name=ratio,proto3" json:"ratio,omitempty"`
}

func (m *SetRatioMsg) Reset()                         { *m = SetRatioMsg{} }
func (m *SetRatioMsg) String() string                 { return proto.CompactTextString(m) }
func (*SetRatioMsg) ProtoMessage()                    {}
func (m *SetRatioMsg) Marshal() ([]byte, error)       { return proto.Marshal((*setRatioMsgCodec)(m)) }
func (m *SetRatioMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*setRatioMsgCodec)(m)) }
func (m *SetRatioMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (SetRatioMsg) Path() string                      { return "vault/set_ratio" }

type setRatioMsgCodec SetRatioMsg

func (m *setRatioMsgCodec) Reset()         { *m = setRatioMsgCodec{} }
func (m *setRatioMsgCodec) String() string { return proto.CompactTextString(m) }
func (*setRatioMsgCodec) ProtoMessage()    {}

type SetPausedMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
	Paused   bool              `protobuf:"varint,3,opt,name=paused,proto3" json:"paused,omitempty"`
}

func (m *SetPausedMsg) Reset()                         { *m = SetPausedMsg{} }
func (m *SetPausedMsg) String() string                 { return proto.CompactTextString(m) }
func (*SetPausedMsg) ProtoMessage()                    {}
func (m *SetPausedMsg) Marshal() ([]byte, error)       { return proto.Marshal((*setPausedMsgCodec)(m)) }
func (m *SetPausedMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*setPausedMsgCodec)(m)) }
func (m *SetPausedMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (SetPausedMsg) Path() string                      { return "vault/set_paused" }

type setPausedMsgCodec SetPausedMsg

func (m *setPausedMsgCodec) Reset()         { *m = setPausedMsgCodec{} }
func (m *setPausedMsgCodec) String() string { return proto.CompactTextString(m) }
func (*setPausedMsgCodec) ProtoMessage()    {}

type EmergencyPauseMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
}

func (m *EmergencyPauseMsg) Reset()         { *m = EmergencyPauseMsg{} }
func (m *EmergencyPauseMsg) String() string { return proto.CompactTextString(m) }
func (*EmergencyPauseMsg) ProtoMessage()    {}
func (m *EmergencyPauseMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*emergencyPauseMsgCodec)(m))
}
func (m *EmergencyPauseMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*emergencyPauseMsgCodec)(m))
}
func (m *EmergencyPauseMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (EmergencyPauseMsg) Path() string                      { return "vault/emergency_pause" }

type emergencyPauseMsgCodec EmergencyPauseMsg

func (m *emergencyPauseMsgCodec) Reset()         { *m = emergencyPauseMsgCodec{} }
func (m *emergencyPauseMsgCodec) String() string { return proto.CompactTextString(m) }
func (*emergencyPauseMsgCodec) ProtoMessage()    {}

// ResumeMsg leaves the emergency mode.
type ResumeMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
}

func (m *ResumeMsg) Reset()                         { *m = ResumeMsg{} }
func (m *ResumeMsg) String() string                 { return proto.CompactTextString(m) }
func (*ResumeMsg) ProtoMessage()                    {}
func (m *ResumeMsg) Marshal() ([]byte, error)       { return proto.Marshal((*resumeMsgCodec)(m)) }
func (m *ResumeMsg) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*resumeMsgCodec)(m)) }
func (m *ResumeMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (ResumeMsg) Path() string                      { return "vault/resume" }

type resumeMsgCodec ResumeMsg

func (m *resumeMsgCodec) Reset()         { *m = resumeMsgCodec{} }
func (m *resumeMsgCodec) String() string { return proto.CompactTextString(m) }
func (*resumeMsgCodec) ProtoMessage()    {}

// EmergencyWithdrawMsg redeems all units of the owner after the emergency
// grace period.
type EmergencyWithdrawMsg struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
	Owner    harvest.Address   `protobuf:"bytes,3,opt,name=owner,proto3" json:"owner,omitempty"`
	Receiver harvest.Address   `protobuf:"bytes,4,opt,name=receiver,proto3" json:"receiver,omitempty"`
}

func (m *EmergencyWithdrawMsg) Reset()         { *m = EmergencyWithdrawMsg{} }
func (m *EmergencyWithdrawMsg) String() string { return proto.CompactTextString(m) }
func (*EmergencyWithdrawMsg) ProtoMessage()    {}
func (m *EmergencyWithdrawMsg) Marshal() ([]byte, error) {
	return proto.Marshal((*emergencyWithdrawMsgCodec)(m))
}
func (m *EmergencyWithdrawMsg) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*emergencyWithdrawMsgCodec)(m))
}
func (m *EmergencyWithdrawMsg) GetMetadata() *harvest.Metadata { return m.Metadata }
func (EmergencyWithdrawMsg) Path() string                      { return "vault/emergency_withdraw" }

type emergencyWithdrawMsgCodec EmergencyWithdrawMsg

func (m *emergencyWithdrawMsgCodec) Reset()         { *m = emergencyWithdrawMsgCodec{} }
func (m *emergencyWithdrawMsgCodec) String() string { return proto.CompactTextString(m) }
func (*emergencyWithdrawMsgCodec) ProtoMessage()    {}

// Ratio parameters accepted by SetRatioMsg.
const (
	ParamBufferRatio   = "buffer_ratio"
	ParamSlippageRatio = "slippage_ratio"
	ParamMaxLossRatio  = "max_loss_ratio"
)

func (m *CreateVaultMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !coin.IsCC(m.Ticker) {
		errs = errors.AppendField(errs, "Ticker", errors.ErrCurrency)
	}
	errs = errors.AppendField(errs, "BufferRatio", m.BufferRatio.Validate())
	errs = errors.AppendField(errs, "SlippageRatio", m.SlippageRatio.Validate())
	errs = errors.AppendField(errs, "MaxLossRatio", m.MaxLossRatio.Validate())
	return errs
}

func (m *DepositMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Amount", validateAmount(m.Amount))
	errs = errors.AppendField(errs, "Depositor", m.Depositor.Validate())
	errs = errors.AppendField(errs, "Receiver", m.Receiver.Validate())
	return errs
}

func (m *WithdrawMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Amount", validateAmount(m.Amount))
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	errs = errors.AppendField(errs, "Receiver", m.Receiver.Validate())
	return errs
}

func (m *RedeemMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	if n, err := parseUnits(m.Units); err != nil {
		errs = errors.AppendField(errs, "Units", err)
	} else if n.Sign() == 0 {
		errs = errors.AppendField(errs, "Units", errors.ErrAmount)
	}
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	errs = errors.AppendField(errs, "Receiver", m.Receiver.Validate())
	return errs
}

func (m *HarvestMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	return errs
}

func (m *SetAdapterMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	return errs
}

func (m *DivestAllMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	return errs
}

func (m *SetRatioMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	switch m.Parameter {
	case ParamBufferRatio, ParamSlippageRatio, ParamMaxLossRatio:
	default:
		errs = errors.AppendField(errs, "Parameter", errors.Wrapf(errors.ErrInput, "unknown parameter %q", m.Parameter))
	}
	errs = errors.AppendField(errs, "Ratio", m.Ratio.Validate())
	return errs
}

func (m *SetPausedMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	return errs
}

func (m *EmergencyPauseMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	return errs
}

func (m *ResumeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	return errs
}

func (m *EmergencyWithdrawMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	errs = errors.AppendField(errs, "Receiver", m.Receiver.Validate())
	return errs
}

func validateID(id []byte) error {
	if len(id) == 0 {
		return errors.ErrEmpty
	}
	if len(id) != 8 {
		return errors.Wrap(errors.ErrInput, "vault id must be 8 bytes")
	}
	return nil
}

func validateAmount(c *coin.Coin) error {
	if coin.IsEmpty(c) || !c.IsPositive() {
		return errors.ErrAmount
	}
	return c.Validate()
}
