package checkpoint

import (
	"math/big"
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
	migration.MustRegister(1, &Checkpoint{}, migration.NoModification)
	migration.MustRegister(1, &VoteReceipt{}, migration.NoModification)
	migration.MustRegister(1, &Due{}, migration.NoModification)

	migration.MustRegisterLayout(&Checkpoint{}, migration.Reserve(6))
	migration.MustRegisterLayout(&VoteReceipt{}, migration.Reserve(4))
	migration.MustRegisterLayout(&Due{}, migration.Reserve(2))
	migration.MustRegisterLayout(&Configuration{}, migration.Reserve(5))
}

const packageName = "checkpoint"

// Status is the lifecycle state of a checkpoint.
type Status int32

const (
	Status_Invalid   Status = 0
	Status_Scheduled Status = 1
	Status_Voting    Status = 2
	Status_Succeeded Status = 3
	Status_Failed    Status = 4
	Status_Executed  Status = 5
	Status_Canceled  Status = 6
)

var Status_name = map[int32]string{
	0: "Invalid",
	1: "Scheduled",
	2: "Voting",
	3: "Succeeded",
	4: "Failed",
	5: "Executed",
	6: "Canceled",
}

func (s Status) String() string {
	return proto.EnumName(Status_name, int32(s))
}

func (s Status) Validate() error {
	if _, ok := Status_name[int32(s)]; !ok || s == Status_Invalid {
		return errors.Wrapf(errors.ErrInput, "status %d", s)
	}
	return nil
}

// Checkpoint is a milestone vote of a campaign.
type Checkpoint struct {
	Metadata    *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign    string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Index       int64             `protobuf:"varint,3,opt,name=index,proto3" json:"index,omitempty"`
	WindowStart harvest.UnixTime  `protobuf:"varint,4,opt,name=window_start,json=windowStart,proto3" json:"window_start,omitempty"`
	WindowEnd   harvest.UnixTime  `protobuf:"varint,5,opt,name=window_end,json=windowEnd,proto3" json:"window_end,omitempty"`
	// Quorum is the minimal share of the eligible stake that must vote in
	// favor.
	Quorum harvest.Ratio `protobuf:"varint,6,opt,name=quorum,proto3" json:"quorum,omitempty"`
	Status Status        `protobuf:"varint,7,opt,name=status,proto3,enum=checkpoint.Status" json:"status,omitempty"`
	// SnapshotHeight is the last block sealed before voting opened. Zero
	// until then.
	SnapshotHeight int64            `protobuf:"varint,8,opt,name=snapshot_height,json=snapshotHeight,proto3" json:"snapshot_height,omitempty"`
	OpenedAt       harvest.UnixTime `protobuf:"varint,9,opt,name=opened_at,json=openedAt,proto3" json:"opened_at,omitempty"`
	VotesFor       *coin.Coin       `protobuf:"bytes,10,opt,name=votes_for,json=votesFor,proto3" json:"votes_for,omitempty"`
	VotesAgainst   *coin.Coin       `protobuf:"bytes,11,opt,name=votes_against,json=votesAgainst,proto3" json:"votes_against,omitempty"`
	TotalEligible  *coin.Coin       `protobuf:"bytes,12,opt,name=total_eligible,json=totalEligible,proto3" json:"total_eligible,omitempty"`
	Curator        harvest.Address  `protobuf:"bytes,13,opt,name=curator,proto3" json:"curator,omitempty"`
	ClosedAt       harvest.UnixTime `protobuf:"varint,14,opt,name=closed_at,json=closedAt,proto3" json:"closed_at,omitempty"`
}

func (m *Checkpoint) Reset()                         { *m = Checkpoint{} }
func (m *Checkpoint) String() string                 { return proto.CompactTextString(m) }
func (*Checkpoint) ProtoMessage()                    {}
func (m *Checkpoint) Marshal() ([]byte, error)       { return proto.Marshal((*checkpointCodec)(m)) }
func (m *Checkpoint) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*checkpointCodec)(m)) }
func (m *Checkpoint) GetMetadata() *harvest.Metadata { return m.Metadata }

type checkpointCodec Checkpoint

func (m *checkpointCodec) Reset()         { *m = checkpointCodec{} }
func (m *checkpointCodec) String() string { return proto.CompactTextString(m) }
func (*checkpointCodec) ProtoMessage()    {}

func (m *Checkpoint) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(m.Campaign))
	if m.Index < 1 {
		errs = errors.AppendField(errs, "Index", errors.ErrInput)
	}
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
	errs = errors.AppendField(errs, "Status", m.Status.Validate())
	if m.SnapshotHeight < 0 {
		errs = errors.AppendField(errs, "SnapshotHeight", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "VotesFor", validTally(m.VotesFor))
	errs = errors.AppendField(errs, "VotesAgainst", validTally(m.VotesAgainst))
	errs = errors.AppendField(errs, "TotalEligible", validTally(m.TotalEligible))
	errs = errors.AppendField(errs, "Curator", m.Curator.Validate())
	return errs
}

func validTally(c *coin.Coin) error {
	if c == nil {
		return errors.ErrEmpty
	}
	if !c.IsNonNegative() {
		return errors.ErrAmount
	}
	return c.Validate()
}

// Key returns the key the checkpoint is stored under.
func (m *Checkpoint) Key() []byte {
	return checkpointKey(m.Campaign, m.Index)
}

func checkpointKey(campaign string, index int64) []byte {
	return orm.CompositeKey([]byte(campaign), orm.Uint64Key(uint64(index)))
}

// Passed reports whether the votes satisfy the quorum. The share of votes
// in favor must reach the quorum and they must outweigh the votes against.
func (m *Checkpoint) Passed() bool {
	votesFor := m.VotesFor.Atoms()
	if votesFor.Cmp(m.VotesAgainst.Atoms()) <= 0 {
		return false
	}
	// votesFor / totalEligible >= quorum / basis
	left := new(big.Int).Mul(votesFor, big.NewInt(harvest.RatioBasis))
	right := new(big.Int).Mul(m.TotalEligible.Atoms(), big.NewInt(int64(m.Quorum)))
	return left.Cmp(right) >= 0
}

// VoteReceipt is the immutable record of a cast vote.
type VoteReceipt struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Index    int64             `protobuf:"varint,3,opt,name=index,proto3" json:"index,omitempty"`
	Voter    harvest.Address   `protobuf:"bytes,4,opt,name=voter,proto3" json:"voter,omitempty"`
	Support  bool              `protobuf:"varint,5,opt,name=support,proto3" json:"support,omitempty"`
	Weight   *coin.Coin        `protobuf:"bytes,6,opt,name=weight,proto3" json:"weight,omitempty"`
	VotedAt  harvest.UnixTime  `protobuf:"varint,7,opt,name=voted_at,json=votedAt,proto3" json:"voted_at,omitempty"`
}

func (m *VoteReceipt) Reset()                         { *m = VoteReceipt{} }
func (m *VoteReceipt) String() string                 { return proto.CompactTextString(m) }
func (*VoteReceipt) ProtoMessage()                    {}
func (m *VoteReceipt) Marshal() ([]byte, error)       { return proto.Marshal((*voteReceiptCodec)(m)) }
func (m *VoteReceipt) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*voteReceiptCodec)(m)) }
func (m *VoteReceipt) GetMetadata() *harvest.Metadata { return m.Metadata }

type voteReceiptCodec VoteReceipt

func (m *voteReceiptCodec) Reset()         { *m = voteReceiptCodec{} }
func (m *voteReceiptCodec) String() string { return proto.CompactTextString(m) }
func (*voteReceiptCodec) ProtoMessage()    {}

func (m *VoteReceipt) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(m.Campaign))
	if m.Index < 1 {
		errs = errors.AppendField(errs, "Index", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Voter", m.Voter.Validate())
	if m.Weight == nil || !m.Weight.IsPositive() {
		errs = errors.AppendField(errs, "Weight", errors.ErrAmount)
	}
	errs = errors.AppendField(errs, "VotedAt", m.VotedAt.Validate())
	return errs
}

func receiptKey(campaign string, index int64, voter harvest.Address) []byte {
	return orm.CompositeKey([]byte(campaign), orm.Uint64Key(uint64(index)), voter)
}

// Due marks a scheduled checkpoint in the opening queue.
type Due struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Campaign string            `protobuf:"bytes,2,opt,name=campaign,proto3" json:"campaign,omitempty"`
	Index    int64             `protobuf:"varint,3,opt,name=index,proto3" json:"index,omitempty"`
}

func (m *Due) Reset()                         { *m = Due{} }
func (m *Due) String() string                 { return proto.CompactTextString(m) }
func (*Due) ProtoMessage()                    {}
func (m *Due) Marshal() ([]byte, error)       { return proto.Marshal((*dueCodec)(m)) }
func (m *Due) Unmarshal(b []byte) error       { return proto.Unmarshal(b, (*dueCodec)(m)) }
func (m *Due) GetMetadata() *harvest.Metadata { return m.Metadata }

type dueCodec Due

func (m *dueCodec) Reset()         { *m = dueCodec{} }
func (m *dueCodec) String() string { return proto.CompactTextString(m) }
func (*dueCodec) ProtoMessage()    {}

func (m *Due) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Campaign", payout.ValidateCampaign(m.Campaign))
	if m.Index < 1 {
		errs = errors.AppendField(errs, "Index", errors.ErrInput)
	}
	return errs
}

// dueKey orders the queue by window start.
func dueKey(start harvest.UnixTime, campaign string, index int64) []byte {
	return append(orm.Uint64Key(uint64(start)), checkpointKey(campaign, index)...)
}

// Configuration is the checkpoint extension configuration.
type Configuration struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// MinEligibility is how long a stake must exist before it can vote.
	MinEligibility harvest.UnixDuration `protobuf:"varint,2,opt,name=min_eligibility,json=minEligibility,proto3" json:"min_eligibility,omitempty"`
	MinWindow      harvest.UnixDuration `protobuf:"varint,3,opt,name=min_window,json=minWindow,proto3" json:"min_window,omitempty"`
	MaxWindow      harvest.UnixDuration `protobuf:"varint,4,opt,name=max_window,json=maxWindow,proto3" json:"max_window,omitempty"`
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
	if m.MinEligibility < 0 {
		errs = errors.AppendField(errs, "MinEligibility", errors.ErrInput)
	}
	if m.MinWindow <= 0 {
		errs = errors.AppendField(errs, "MinWindow", errors.ErrInput)
	}
	if m.MaxWindow < m.MinWindow {
		errs = errors.AppendField(errs, "MaxWindow", errors.Wrap(errors.ErrInput, "shorter than the minimum"))
	}
	return errs
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Metadata:       &harvest.Metadata{Schema: 1},
		MinEligibility: harvest.AsUnixDuration(24 * time.Hour),
		MinWindow:      harvest.AsUnixDuration(time.Hour),
		MaxWindow:      harvest.AsUnixDuration(30 * 24 * time.Hour),
	}
}
