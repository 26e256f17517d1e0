package vault

import (
	"math/big"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
)

func init() {
	migration.MustRegister(1, &Vault{}, migration.NoModification)
	migration.MustRegister(1, &Holding{}, migration.NoModification)
	migration.MustRegisterLayout(&Vault{}, migration.Reserve(5))
	migration.MustRegisterLayout(&Holding{}, migration.Reserve(4))
	migration.MustRegisterLayout(&Configuration{}, migration.Reserve(4))
}

// Vault is the state of a single pooled asset.
//
// Units are decimal big integers. Buffer is the liquid balance held by the
// custody account and Principal is the amount recorded as invested into the
// active adapter. Their sum is the pooled value.
type Vault struct {
	Metadata         *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Ticker           string            `protobuf:"bytes,2,opt,name=ticker,proto3" json:"ticker,omitempty"`
	Custody          harvest.Address   `protobuf:"bytes,3,opt,name=custody,proto3" json:"custody,omitempty"`
	TotalUnits       string            `protobuf:"bytes,4,opt,name=total_units,json=totalUnits,proto3" json:"total_units,omitempty"`
	Buffer           *coin.Coin        `protobuf:"bytes,5,opt,name=buffer,proto3" json:"buffer,omitempty"`
	Principal        *coin.Coin        `protobuf:"bytes,6,opt,name=principal,proto3" json:"principal,omitempty"`
	BufferRatio      harvest.Ratio     `protobuf:"varint,7,opt,name=buffer_ratio,json=bufferRatio,proto3" json:"buffer_ratio,omitempty"`
	SlippageRatio    harvest.Ratio     `protobuf:"varint,8,opt,name=slippage_ratio,json=slippageRatio,proto3" json:"slippage_ratio,omitempty"`
	MaxLossRatio     harvest.Ratio     `protobuf:"varint,9,opt,name=max_loss_ratio,json=maxLossRatio,proto3" json:"max_loss_ratio,omitempty"`
	Adapter          string            `protobuf:"bytes,10,opt,name=adapter,proto3" json:"adapter,omitempty"`
	CumulativeProfit *coin.Coin        `protobuf:"bytes,11,opt,name=cumulative_profit,json=cumulativeProfit,proto3" json:"cumulative_profit,omitempty"`
	CumulativeLoss   *coin.Coin        `protobuf:"bytes,12,opt,name=cumulative_loss,json=cumulativeLoss,proto3" json:"cumulative_loss,omitempty"`
	Paused           bool              `protobuf:"varint,13,opt,name=paused,proto3" json:"paused,omitempty"`
	Emergency        bool              `protobuf:"varint,14,opt,name=emergency,proto3" json:"emergency,omitempty"`
	EmergencyAt      harvest.UnixTime  `protobuf:"varint,15,opt,name=emergency_at,json=emergencyAt,proto3" json:"emergency_at,omitempty"`
}

func (m *Vault) Reset()                         { *m = Vault{} }
func (m *Vault) String() string                 { return proto.CompactTextString(m) }
func (*Vault) ProtoMessage()                    {}
func (m *Vault) Marshal() ([]byte, error)       { return proto.Marshal((*vaultCodec)(m)) }
func (m *Vault) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*vaultCodec)(m)) }
func (m *Vault) GetMetadata() *harvest.Metadata { return m.Metadata }

type vaultCodec Vault

func (m *vaultCodec) Reset()         { *m = vaultCodec{} }
func (m *vaultCodec) String() string { return proto.CompactTextString(m) }
func (*vaultCodec) ProtoMessage()    {}

func (m *Vault) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !coin.IsCC(m.Ticker) {
		errs = errors.AppendField(errs, "Ticker", errors.ErrCurrency)
	}
	errs = errors.AppendField(errs, "Custody", m.Custody.Validate())
	if _, err := parseUnits(m.TotalUnits); err != nil {
		errs = errors.AppendField(errs, "TotalUnits", err)
	}
	errs = errors.AppendField(errs, "Buffer", m.validAmount(m.Buffer))
	errs = errors.AppendField(errs, "Principal", m.validAmount(m.Principal))
	errs = errors.AppendField(errs, "CumulativeProfit", m.validAmount(m.CumulativeProfit))
	errs = errors.AppendField(errs, "CumulativeLoss", m.validAmount(m.CumulativeLoss))
	errs = errors.AppendField(errs, "BufferRatio", m.BufferRatio.Validate())
	errs = errors.AppendField(errs, "SlippageRatio", m.SlippageRatio.Validate())
	errs = errors.AppendField(errs, "MaxLossRatio", m.MaxLossRatio.Validate())
	if m.Emergency && m.EmergencyAt.IsZero() {
		errs = errors.AppendField(errs, "EmergencyAt", errors.ErrEmpty)
	}
	return errs
}

func (m *Vault) validAmount(c *coin.Coin) error {
	switch {
	case c == nil:
		return errors.ErrEmpty
	case c.Ticker != m.Ticker:
		return errors.ErrCurrency
	case !c.IsNonNegative():
		return errors.ErrAmount
	}
	return c.Validate()
}

// Units returns the total unit supply.
func (m *Vault) Units() *big.Int {
	n, _ := parseUnits(m.TotalUnits)
	return n
}

// Holding is the number of units owned by a single holder of a vault.
type Holding struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	VaultID  []byte            `protobuf:"bytes,2,opt,name=vault_id,json=vaultId,proto3" json:"vault_id,omitempty"`
	Holder   harvest.Address   `protobuf:"bytes,3,opt,name=holder,proto3" json:"holder,omitempty"`
	Units    string            `protobuf:"bytes,4,opt,name=units,proto3" json:"units,omitempty"`
}

func (m *Holding) Reset()                         { *m = Holding{} }
func (m *Holding) String() string                 { return proto.CompactTextString(m) }
func (*Holding) ProtoMessage()                    {}
func (m *Holding) Marshal() ([]byte, error)       { return proto.Marshal((*holdingCodec)(m)) }
func (m *Holding) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*holdingCodec)(m)) }
func (m *Holding) GetMetadata() *harvest.Metadata { return m.Metadata }

type holdingCodec Holding

func (m *holdingCodec) Reset()         { *m = holdingCodec{} }
func (m *holdingCodec) String() string { return proto.CompactTextString(m) }
func (*holdingCodec) ProtoMessage()    {}

func (m *Holding) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if len(m.VaultID) == 0 {
		errs = errors.AppendField(errs, "VaultID", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Holder", m.Holder.Validate())
	if n, err := parseUnits(m.Units); err != nil {
		errs = errors.AppendField(errs, "Units", err)
	} else if n.Sign() == 0 {
		errs = errors.AppendField(errs, "Units", errors.ErrEmpty)
	}
	return errs
}

func holdingKey(vaultID []byte, holder harvest.Address) []byte {
	return orm.CompositeKey(vaultID, holder)
}

// Configuration is the vault extension configuration.
type Configuration struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// GracePeriod is how long normal withdrawals remain available after
	// an emergency pause.
	GracePeriod harvest.UnixDuration `protobuf:"varint,2,opt,name=grace_period,json=gracePeriod,proto3" json:"grace_period,omitempty"`
	// VirtualOffset is the number of virtual units added to the supply
	// when converting. One virtual atom is added to the pooled assets.
	// The first deposit mints VirtualOffset units per atom.
	VirtualOffset int64 `protobuf:"varint,3,opt,name=virtual_offset,json=virtualOffset,proto3" json:"virtual_offset,omitempty"`
	// MinDeposit is the smallest accepted deposit in atoms.
	MinDeposit int64 `protobuf:"varint,4,opt,name=min_deposit,json=minDeposit,proto3" json:"min_deposit,omitempty"`
}

func (m *Configuration) Reset()                   { *m = Configuration{} }
func (m *Configuration) String() string           { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()              {}
func (m *Configuration) Marshal() ([]byte, error) { return proto.Marshal((*configurationCodec)(m)) }
func (m *Configuration) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*configurationCodec)(m))
}

type configurationCodec Configuration

func (m *configurationCodec) Reset()         { *m = configurationCodec{} }
func (m *configurationCodec) String() string { return proto.CompactTextString(m) }
func (*configurationCodec) ProtoMessage()    {}

func (m *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.GracePeriod <= 0 {
		errs = errors.AppendField(errs, "GracePeriod", errors.ErrInput)
	}
	if m.VirtualOffset < 1 {
		errs = errors.AppendField(errs, "VirtualOffset", errors.ErrInput)
	}
	if m.MinDeposit < 1 {
		errs = errors.AppendField(errs, "MinDeposit", errors.ErrInput)
	}
	return errs
}

// DefaultConfiguration is used when the genesis does not configure the
// vault extension.
func DefaultConfiguration() Configuration {
	return Configuration{
		Metadata:      &harvest.Metadata{Schema: 1},
		GracePeriod:   harvest.AsUnixDuration(24 * time.Hour),
		VirtualOffset: 1000,
		MinDeposit:    1000,
	}
}
