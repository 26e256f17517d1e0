package stake

import (
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x/payout"
)

func init() {
	migration.MustRegister(1, &SupporterStake{}, migration.NoModification)
	migration.MustRegister(1, &CampaignStake{}, migration.NoModification)

	migration.MustRegisterLayout(&SupporterStake{}, migration.AppendOnly())
	migration.MustRegisterLayout(&CampaignStake{}, migration.AppendOnly())
	migration.MustRegisterLayout(&Configuration{}, migration.Reserve(4))
}

// Snapshot is the staked amount as of the end of a block.
type Snapshot struct {
	Height int64            `protobuf:"varint,1,opt,name=height,proto3" json:"height,omitempty"`
	Time   harvest.UnixTime `protobuf:"varint,2,opt,name=time,proto3" json:"time,omitempty"`
	Amount *coin.Coin       `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *Snapshot) Reset()         { *m = Snapshot{} }
func (m *Snapshot) String() string { return proto.CompactTextString(m) }
func (*Snapshot) ProtoMessage()    {}

// history is ordered by height, at most one snapshot per height.
type history []*Snapshot

func (h history) validate() error {
	var prev int64 = -1
	for _, s := range h {
		if s == nil || s.Amount == nil {
			return errors.ErrEmpty
		}
		if s.Height <= prev {
			return errors.Wrap(errors.ErrState, "snapshots out of order")
		}
		prev = s.Height
		if !s.Amount.IsNonNegative() {
			return errors.ErrAmount
		}
	}
	return nil
}

// at returns the last snapshot not younger than height or nil.
func (h history) at(height int64) *Snapshot {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Height <= height {
			return h[i]
		}
	}
	return nil
}

// record appends a snapshot or overwrites the one of the same height.
func (h history) record(height int64, t harvest.UnixTime, amount coin.Coin) history {
	s := &Snapshot{Height: height, Time: t, Amount: &amount}
	if n := len(h); n > 0 && h[n-1].Height == height {
		h[n-1] = s
		return h
	}
	return append(h, s)
}

// SupporterStake is the stake of one supporter behind one campaign.
type SupporterStake struct {
	Metadata  *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign  string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Supporter harvest.Address   `protobuf:"bytes,3,opt,name=supporter,proto3" json:"supporter,omitempty"`
	// Amount is the active stake counted for voting.
	Amount *coin.Coin `protobuf:"bytes,4,opt,name=amount,proto3" json:"amount,omitempty"`
	// Escrow holds the stake of a requested exit until LockUntil.
	Escrow    *coin.Coin       `protobuf:"bytes,5,opt,name=escrow,proto3" json:"escrow,omitempty"`
	LockUntil harvest.UnixTime `protobuf:"varint,6,opt,name=lock_until,json=lockUntil,proto3" json:"lock_until,omitempty"`
	// FirstStakedAt anchors voting eligibility.
	FirstStakedAt     harvest.UnixTime `protobuf:"varint,7,opt,name=first_staked_at,json=firstStakedAt,proto3" json:"first_staked_at,omitempty"`
	FirstStakedHeight int64            `protobuf:"varint,8,opt,name=first_staked_height,json=firstStakedHeight,proto3" json:"first_staked_height,omitempty"`
	ExitRequested     bool             `protobuf:"varint,9,opt,name=exit_requested,json=exitRequested,proto3" json:"exit_requested,omitempty"`
	Archived          bool             `protobuf:"varint,10,opt,name=archived,proto3" json:"archived,omitempty"`
	History           []*Snapshot      `protobuf:"bytes,11,rep,name=history,proto3" json:"history,omitempty"`
}

func (m *SupporterStake) Reset()                   { *m = SupporterStake{} }
func (m *SupporterStake) String() string           { return proto.CompactTextString(m) }
func (*SupporterStake) ProtoMessage()              {}
func (m *SupporterStake) Marshal() ([]byte, error) { return proto.Marshal((*supporterStakeCodec)(m)) }
func (m *SupporterStake) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*supporterStakeCodec)(m))
}
func (m *SupporterStake) GetMetadata() *harvest.Metadata { return m.Metadata }

type supporterStakeCodec SupporterStake

func (m *supporterStakeCodec) Reset()         { *m = supporterStakeCodec{} }
func (m *supporterStakeCodec) String() string { return proto.CompactTextString(m) }
func (*supporterStakeCodec) ProtoMessage()    {}

func (m *SupporterStake) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(m.Campaign))
	errs = errors.AppendField(errs, "Supporter", m.Supporter.Validate())
	errs = errors.AppendField(errs, "Amount", validBalance(m.Amount))
	errs = errors.AppendField(errs, "Escrow", validBalance(m.Escrow))
	if m.FirstStakedAt.IsZero() {
		errs = errors.AppendField(errs, "FirstStakedAt", errors.ErrEmpty)
	}
	if m.ExitRequested && m.LockUntil.IsZero() {
		errs = errors.AppendField(errs, "LockUntil", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "History", history(m.History).validate())
	return errs
}

// Active returns true if the stake counts for voting.
func (m *SupporterStake) Active() bool {
	return !m.Archived && m.Amount.IsPositive()
}

// CampaignStake is the total stake behind a campaign.
type CampaignStake struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Total    *coin.Coin        `protobuf:"bytes,3,opt,name=total,proto3" json:"total,omitempty"`
	History  []*Snapshot       `protobuf:"bytes,4,rep,name=history,proto3" json:"history,omitempty"`
}

func (m *CampaignStake) Reset()                   { *m = CampaignStake{} }
func (m *CampaignStake) String() string           { return proto.CompactTextString(m) }
func (*CampaignStake) ProtoMessage()              {}
func (m *CampaignStake) Marshal() ([]byte, error) { return proto.Marshal((*campaignStakeCodec)(m)) }
func (m *CampaignStake) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, (*campaignStakeCodec)(m))
}
func (m *CampaignStake) GetMetadata() *harvest.Metadata { return m.Metadata }

type campaignStakeCodec CampaignStake

func (m *campaignStakeCodec) Reset()         { *m = campaignStakeCodec{} }
func (m *campaignStakeCodec) String() string { return proto.CompactTextString(m) }
func (*campaignStakeCodec) ProtoMessage()    {}

func (m *CampaignStake) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(m.Campaign))
	errs = errors.AppendField(errs, "Total", validBalance(m.Total))
	errs = errors.AppendField(errs, "History", history(m.History).validate())
	return errs
}

func validBalance(c *coin.Coin) error {
	if c == nil {
		return errors.ErrEmpty
	}
	if !c.IsNonNegative() {
		return errors.ErrAmount
	}
	return c.Validate()
}

// Configuration is the stake extension configuration.
type Configuration struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// Ticker is the only currency that can be staked.
	Ticker string `protobuf:"bytes,2,opt,name=ticker,proto3" json:"ticker,omitempty"`
	// ExitDelay is how long an exiting stake stays in escrow.
	ExitDelay harvest.UnixDuration `protobuf:"varint,3,opt,name=exit_delay,json=exitDelay,proto3" json:"exit_delay,omitempty"`
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
	if !coin.IsCC(m.Ticker) {
		errs = errors.AppendField(errs, "Ticker", errors.ErrCurrency)
	}
	if m.ExitDelay < 0 {
		errs = errors.AppendField(errs, "ExitDelay", errors.ErrInput)
	}
	return errs
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Metadata:  &harvest.Metadata{Schema: 1},
		Ticker:    "HRV",
		ExitDelay: harvest.AsUnixDuration(72 * time.Hour),
	}
}

const packageName = "stake"

func stakeKey(campaign string, supporter harvest.Address) []byte {
	return orm.CompositeKey([]byte(campaign), supporter)
}

// EscrowCondition owns every coin staked behind a campaign.
func EscrowCondition(campaign string) harvest.Condition {
	return harvest.NewCondition("stake", "escrow", []byte(campaign))
}
