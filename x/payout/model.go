package payout

import (
	"regexp"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
)

func init() {
	migration.MustRegister(1, &FeePolicy{}, migration.NoModification)
	migration.MustRegister(1, &FeeProposal{}, migration.NoModification)
	migration.MustRegister(1, &Preference{}, migration.NoModification)
	migration.MustRegister(1, &CampaignPayout{}, migration.NoModification)
	migration.MustRegister(1, &RouterState{}, migration.NoModification)

	migration.MustRegisterLayout(&FeePolicy{}, migration.Reserve(5))
	migration.MustRegisterLayout(&FeeProposal{}, migration.Reserve(4))
	migration.MustRegisterLayout(&Preference{}, migration.Reserve(5))
	migration.MustRegisterLayout(&CampaignPayout{}, migration.AppendOnly())
	migration.MustRegisterLayout(&RouterState{}, migration.AppendOnly())
	migration.MustRegisterLayout(&Configuration{}, migration.Reserve(5))
}

var isCampaign = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{2,63}$`).MatchString

// ValidateCampaign returns an error if id is not a well formed campaign
// identifier.
func ValidateCampaign(id string) error {
	if id == "" {
		return errors.ErrEmpty
	}
	if !isCampaign(id) {
		return errors.Wrapf(errors.ErrInput, "invalid campaign %q", id)
	}
	return nil
}

// CampaignCondition returns the condition owning the payouts of a campaign.
func CampaignCondition(campaign string) harvest.Condition {
	return harvest.NewCondition("payout", "campaign", []byte(campaign))
}

// RouterCondition owns the coins waiting for distribution.
var RouterCondition = harvest.NewCondition("payout", "router", []byte("router"))

// FeePolicy is the fee currently applied to every distribution.
type FeePolicy struct {
	Metadata  *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Ratio     harvest.Ratio     `protobuf:"varint,2,opt,name=ratio,proto3" json:"ratio,omitempty"`
	Recipient harvest.Address   `protobuf:"bytes,3,opt,name=recipient,proto3" json:"recipient,omitempty"`
	UpdatedAt harvest.UnixTime  `protobuf:"varint,4,opt,name=updated_at,json=updatedAt,proto3" json:"updated_at,omitempty"`
}

func (m *FeePolicy) Reset()                         { *m = FeePolicy{} }
func (m *FeePolicy) String() string                 { return proto.CompactTextString(m) }
func (*FeePolicy) ProtoMessage()                    {}
func (m *FeePolicy) Marshal() ([]byte, error)       { return proto.Marshal((*feePolicyCodec)(m)) }
func (m *FeePolicy) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*feePolicyCodec)(m)) }
func (m *FeePolicy) GetMetadata() *harvest.Metadata { return m.Metadata }

type feePolicyCodec FeePolicy

func (m *feePolicyCodec) Reset()         { *m = feePolicyCodec{} }
func (m *feePolicyCodec) String() string { return proto.CompactTextString(m) }
func (*feePolicyCodec) ProtoMessage()    {}

func (m *FeePolicy) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Ratio", m.Ratio.Validate())
	errs = errors.AppendField(errs, "Recipient", validateRecipient(m.Ratio, m.Recipient))
	errs = errors.AppendField(errs, "UpdatedAt", m.UpdatedAt.Validate())
	return errs
}

// A recipient is required as soon as the fee is not zero.
func validateRecipient(r harvest.Ratio, recipient harvest.Address) error {
	if r == 0 && len(recipient) == 0 {
		return nil
	}
	return recipient.Validate()
}

// FeeProposal is a timelocked fee increase.
type FeeProposal struct {
	Metadata    *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Ratio       harvest.Ratio     `protobuf:"varint,2,opt,name=ratio,proto3" json:"ratio,omitempty"`
	Recipient   harvest.Address   `protobuf:"bytes,3,opt,name=recipient,proto3" json:"recipient,omitempty"`
	EffectiveAt harvest.UnixTime  `protobuf:"varint,4,opt,name=effective_at,json=effectiveAt,proto3" json:"effective_at,omitempty"`
	ProposedAt  harvest.UnixTime  `protobuf:"varint,5,opt,name=proposed_at,json=proposedAt,proto3" json:"proposed_at,omitempty"`
	Proposer    harvest.Address   `protobuf:"bytes,6,opt,name=proposer,proto3" json:"proposer,omitempty"`
}

func (m *FeeProposal) Reset()                         { *m = FeeProposal{} }
func (m *FeeProposal) String() string                 { return proto.CompactTextString(m) }
func (*FeeProposal) ProtoMessage()                    {}
func (m *FeeProposal) Marshal() ([]byte, error)       { return proto.Marshal((*feeProposalCodec)(m)) }
func (m *FeeProposal) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*feeProposalCodec)(m)) }
func (m *FeeProposal) GetMetadata() *harvest.Metadata { return m.Metadata }

type feeProposalCodec FeeProposal

func (m *feeProposalCodec) Reset()         { *m = feeProposalCodec{} }
func (m *feeProposalCodec) String() string { return proto.CompactTextString(m) }
func (*feeProposalCodec) ProtoMessage()    {}

func (m *FeeProposal) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Ratio", m.Ratio.Validate())
	errs = errors.AppendField(errs, "Recipient", m.Recipient.Validate())
	if m.EffectiveAt < m.ProposedAt {
		errs = errors.AppendField(errs, "EffectiveAt", errors.Wrap(errors.ErrInput, "before proposal time"))
	}
	errs = errors.AppendField(errs, "Proposer", m.Proposer.Validate())
	return errs
}

// Preference tells how the share of a holder is split between a campaign
// and a personal beneficiary.
type Preference struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Holder   harvest.Address   `protobuf:"bytes,2,opt,name=holder,proto3" json:"holder,omitempty"`
	Campaign string            `protobuf:"bytes,3,opt,name=campaign,proto3" json:"campaign,omitempty"`
	// Beneficiary receives the part not allocated to the campaign. The
	// holder is used when empty.
	Beneficiary harvest.Address `protobuf:"bytes,4,opt,name=beneficiary,proto3" json:"beneficiary,omitempty"`
	Allocation  harvest.Ratio   `protobuf:"varint,5,opt,name=allocation,proto3" json:"allocation,omitempty"`
}

func (m *Preference) Reset()                         { *m = Preference{} }
func (m *Preference) String() string                 { return proto.CompactTextString(m) }
func (*Preference) ProtoMessage()                    {}
func (m *Preference) Marshal() ([]byte, error)       { return proto.Marshal((*preferenceCodec)(m)) }
func (m *Preference) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*preferenceCodec)(m)) }
func (m *Preference) GetMetadata() *harvest.Metadata { return m.Metadata }

type preferenceCodec Preference

func (m *preferenceCodec) Reset()         { *m = preferenceCodec{} }
func (m *preferenceCodec) String() string { return proto.CompactTextString(m) }
func (*preferenceCodec) ProtoMessage()    {}

func (m *Preference) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Holder", m.Holder.Validate())
	errs = errors.AppendField(errs, "Allocation", m.Allocation.Validate())
	if m.Allocation > 0 || m.Campaign != "" {
		errs = errors.AppendField(errs, "Campaign", ValidateCampaign(m.Campaign))
	}
	if len(m.Beneficiary) != 0 {
		errs = errors.AppendField(errs, "Beneficiary", m.Beneficiary.Validate())
	}
	return errs
}

// Receiver returns the address collecting the personal part.
func (m *Preference) Receiver() harvest.Address {
	if len(m.Beneficiary) == 0 {
		return m.Holder
	}
	return m.Beneficiary
}

// CampaignPayout tracks what a campaign received and whether it may receive
// more.
type CampaignPayout struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Halted   bool              `protobuf:"varint,3,opt,name=halted,proto3" json:"halted,omitempty"`
	HaltedAt harvest.UnixTime  `protobuf:"varint,4,opt,name=halted_at,json=haltedAt,proto3" json:"halted_at,omitempty"`
	// Paid holds the cumulative payouts, one entry per currency.
	Paid []*coin.Coin `protobuf:"bytes,5,rep,name=paid,proto3" json:"paid,omitempty"`
}

func (m *CampaignPayout) Reset()                   { *m = CampaignPayout{} }
func (m *CampaignPayout) String() string           { return proto.CompactTextString(m) }
func (*CampaignPayout) ProtoMessage()              {}
func (m *CampaignPayout) Marshal() ([]byte, error) { return proto.Marshal((*campaignPayoutCodec)(m)) }
func (m *CampaignPayout) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*campaignPayoutCodec)(m))
}
func (m *CampaignPayout) GetMetadata() *harvest.Metadata { return m.Metadata }

type campaignPayoutCodec CampaignPayout

func (m *campaignPayoutCodec) Reset()         { *m = campaignPayoutCodec{} }
func (m *campaignPayoutCodec) String() string { return proto.CompactTextString(m) }
func (*campaignPayoutCodec) ProtoMessage()    {}

func (m *CampaignPayout) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Campaign", ValidateCampaign(m.Campaign))
	if m.Halted && m.HaltedAt.IsZero() {
		errs = errors.AppendField(errs, "HaltedAt", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Paid", validateCoins(m.Paid))
	return errs
}

// PaidIn returns the cumulative payout in given currency.
func (m *CampaignPayout) PaidIn(ticker string) coin.Coin {
	if c := findCoin(m.Paid, ticker); c != nil {
		return *c
	}
	return coin.NewCoin(0, 0, ticker)
}

// RouterState holds the dust carried between distributions of one vault.
// It is stored under the vault ID.
type RouterState struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Dust     []*coin.Coin      `protobuf:"bytes,2,rep,name=dust,proto3" json:"dust,omitempty"`
}

func (m *RouterState) Reset()                         { *m = RouterState{} }
func (m *RouterState) String() string                 { return proto.CompactTextString(m) }
func (*RouterState) ProtoMessage()                    {}
func (m *RouterState) Marshal() ([]byte, error)       { return proto.Marshal((*routerStateCodec)(m)) }
func (m *RouterState) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*routerStateCodec)(m)) }
func (m *RouterState) GetMetadata() *harvest.Metadata { return m.Metadata }

type routerStateCodec RouterState

func (m *routerStateCodec) Reset()         { *m = routerStateCodec{} }
func (m *routerStateCodec) String() string { return proto.CompactTextString(m) }
func (*routerStateCodec) ProtoMessage()    {}

func (m *RouterState) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Dust", validateCoins(m.Dust))
	return errs
}

// DustIn returns the dust carried in given currency.
func (m *RouterState) DustIn(ticker string) coin.Coin {
	if c := findCoin(m.Dust, ticker); c != nil {
		return *c
	}
	return coin.NewCoin(0, 0, ticker)
}

func findCoin(cs []*coin.Coin, ticker string) *coin.Coin {
	for _, c := range cs {
		if c.Ticker == ticker {
			return c
		}
	}
	return nil
}

// setCoin replaces or appends the entry with the same ticker.
func setCoin(cs []*coin.Coin, c coin.Coin) []*coin.Coin {
	if prev := findCoin(cs, c.Ticker); prev != nil {
		*prev = c
		return cs
	}
	return append(cs, &c)
}

func validateCoins(cs []*coin.Coin) error {
	seen := make(map[string]bool, len(cs))
	for _, c := range cs {
		if c == nil {
			return errors.ErrEmpty
		}
		if seen[c.Ticker] {
			return errors.Wrapf(errors.ErrDuplicate, "ticker %s", c.Ticker)
		}
		seen[c.Ticker] = true
		if !c.IsNonNegative() {
			return errors.ErrAmount
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Configuration is the payout extension configuration.
type Configuration struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// MaxFee is the hard maximum of the fee ratio.
	MaxFee harvest.Ratio `protobuf:"varint,2,opt,name=max_fee,json=maxFee,proto3" json:"max_fee,omitempty"`
	// MaxStep is the largest increase a single fee change may apply.
	MaxStep  harvest.Ratio        `protobuf:"varint,3,opt,name=max_step,json=maxStep,proto3" json:"max_step,omitempty"`
	Timelock harvest.UnixDuration `protobuf:"varint,4,opt,name=timelock,proto3" json:"timelock,omitempty"`
	// DefaultCampaign receives the whole share of holders without a
	// preference. Such holders are paid directly when it is empty or
	// halted.
	DefaultCampaign string `protobuf:"bytes,5,opt,name=default_campaign,json=defaultCampaign,proto3" json:"default_campaign,omitempty"`
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
	errs = errors.AppendField(errs, "MaxFee", m.MaxFee.Validate())
	errs = errors.AppendField(errs, "MaxStep", m.MaxStep.Validate())
	if m.MaxStep > m.MaxFee {
		errs = errors.AppendField(errs, "MaxStep", errors.Wrap(errors.ErrInput, "greater than the maximum fee"))
	}
	if m.Timelock <= 0 {
		errs = errors.AppendField(errs, "Timelock", errors.ErrInput)
	}
	if m.DefaultCampaign != "" {
		errs = errors.AppendField(errs, "DefaultCampaign", ValidateCampaign(m.DefaultCampaign))
	}
	return errs
}

// DefaultConfiguration allows fees up to 10% raised by at most 2.5% per
// change after seven days.
func DefaultConfiguration() Configuration {
	return Configuration{
		Metadata: &harvest.Metadata{Schema: 1},
		MaxFee:   1000,
		MaxStep:  250,
		Timelock: harvest.AsUnixDuration(7 * 24 * time.Hour),
	}
}

var proposalSeq = orm.NewSequence("fee_proposal", "id")

var policyKey = []byte("policy")

func newBucket(name string, m orm.Model, opts ...orm.ModelBucketOption) orm.ModelBucket {
	return migration.NewModelBucket(packageName, orm.NewModelBucket(name, m, opts...))
}
