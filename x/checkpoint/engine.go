package checkpoint

import (
	"fmt"
	"strings"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/gconf"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x/payout"
	"github.com/iov-one/harvest/x/roles"
	"github.com/iov-one/harvest/x/stake"
	"github.com/iov-one/harvest/x/utils"
)

// StakeReader gives access to the stake history of campaign supporters.
type StakeReader interface {
	Config(db harvest.ReadOnlyKVStore) (stake.Configuration, error)
	Stake(db harvest.ReadOnlyKVStore, campaign string, supporter harvest.Address) (*stake.SupporterStake, error)
	StakeAt(db harvest.ReadOnlyKVStore, campaign string, supporter harvest.Address, height int64) (coin.Coin, error)
	TotalAt(db harvest.ReadOnlyKVStore, campaign string, height int64) (coin.Coin, error)
}

// Halter stops the payouts of a campaign.
type Halter interface {
	Halt(ctx harvest.Context, db harvest.KVStore, campaign string) error
}

var (
	_ StakeReader = (*stake.Keeper)(nil)
	_ Halter      = (*payout.Router)(nil)
)

// Engine runs checkpoint votes.
type Engine struct {
	stakes      StakeReader
	halter      Halter
	oracle      roles.Oracle
	guard       *harvest.Guard
	checkpoints orm.ModelBucket
	receipts    orm.ModelBucket
	due         orm.ModelBucket
}

var _ harvest.Ticker = (*Engine)(nil)

// NewEngine returns an engine weighting votes with given stake reader and
// halting failed campaigns with given halter. A nil guard creates a new
// one.
func NewEngine(stakes StakeReader, halter Halter, oracle roles.Oracle, guard *harvest.Guard) *Engine {
	if guard == nil {
		guard = harvest.NewGuard()
	}
	return &Engine{
		stakes:      stakes,
		halter:      halter,
		oracle:      oracle,
		guard:       guard,
		checkpoints: migration.NewModelBucket(packageName, orm.NewModelBucket("checkpoint", &Checkpoint{})),
		receipts:    migration.NewModelBucket(packageName, orm.NewModelBucket("vote_receipt", &VoteReceipt{})),
		due:         migration.NewModelBucket(packageName, orm.NewModelBucket("checkpoint_due", &Due{})),
	}
}

// Config returns the stored configuration or the default one.
func (e *Engine) Config(db harvest.ReadOnlyKVStore) (Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, packageName, &conf); {
	case err == nil:
		return conf, nil
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	default:
		return conf, errors.Wrap(err, "load configuration")
	}
}

func (e *Engine) run(ctx harvest.Context, db harvest.KVStore, campaign string, fn func(harvest.Context, harvest.KVStore) error) error {
	release, err := e.guard.Enter("checkpoint/" + campaign)
	if err != nil {
		return err
	}
	defer release()
	return utils.Atomic(ctx, db, fn)
}

// Checkpoint returns a checkpoint of a campaign.
func (e *Engine) Checkpoint(db harvest.ReadOnlyKVStore, campaign string, index int64) (*Checkpoint, error) {
	var c Checkpoint
	if err := e.checkpoints.One(db, checkpointKey(campaign, index), &c); err != nil {
		return nil, errors.Wrapf(err, "checkpoint %s/%d", campaign, index)
	}
	return &c, nil
}

// Receipt returns the vote of a voter.
func (e *Engine) Receipt(db harvest.ReadOnlyKVStore, campaign string, index int64, voter harvest.Address) (*VoteReceipt, error) {
	var r VoteReceipt
	if err := e.receipts.One(db, receiptKey(campaign, index, voter), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Schedule creates a checkpoint. Requires the curator role. The window must
// not start in the past and its length must respect the configured bounds.
// The index of the new checkpoint is returned.
func (e *Engine) Schedule(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, campaign string, start, end harvest.UnixTime, quorum harvest.Ratio) (int64, error) {
	if !e.oracle.HasRole(db, roles.Curator, caller) {
		return 0, errors.Wrap(errors.ErrUnauthorized, "curator role required")
	}
	if err := payout.ValidateCampaign(campaign); err != nil {
		return 0, errors.Wrap(err, "campaign")
	}
	if quorum == 0 {
		return 0, errors.Wrap(errors.ErrInput, "quorum must be positive")
	}
	if err := quorum.Validate(); err != nil {
		return 0, errors.Wrap(err, "quorum")
	}
	var index int64
	err := e.run(ctx, db, campaign, func(ctx harvest.Context, db harvest.KVStore) error {
		conf, err := e.Config(db)
		if err != nil {
			return err
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		if start < now {
			return errors.Wrapf(errors.ErrInput, "window start %s is in the past", start)
		}
		if end <= start {
			return errors.Wrap(errors.ErrInput, "window must end after it starts")
		}
		length := end.Time().Sub(start.Time())
		if length < conf.MinWindow.Duration() || length > conf.MaxWindow.Duration() {
			return errors.Wrapf(errors.ErrInput, "window of %s not within [%s, %s]", length, conf.MinWindow, conf.MaxWindow)
		}
		ticker, err := e.ticker(db)
		if err != nil {
			return err
		}
		seq := orm.NewSequence("checkpoint", campaign)
		if index, err = seq.NextInt(db); err != nil {
			return errors.Wrap(err, "checkpoint index")
		}
		c := &Checkpoint{
			Metadata:      &harvest.Metadata{Schema: 1},
			Campaign:      campaign,
			Index:         index,
			WindowStart:   start,
			WindowEnd:     end,
			Quorum:        quorum,
			Status:        Status_Scheduled,
			VotesFor:      coin.NewCoinp(0, 0, ticker),
			VotesAgainst:  coin.NewCoinp(0, 0, ticker),
			TotalEligible: coin.NewCoinp(0, 0, ticker),
			Curator:       caller,
		}
		if _, err := e.checkpoints.Put(db, c.Key(), c); err != nil {
			return errors.Wrap(err, "store checkpoint")
		}
		due := &Due{Metadata: &harvest.Metadata{Schema: 1}, Campaign: campaign, Index: index}
		if _, err := e.due.Put(db, dueKey(start, campaign, index), due); err != nil {
			return errors.Wrap(err, "queue checkpoint")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("checkpoint/scheduled",
			"campaign", campaign,
			"index", fmt.Sprint(index),
			"window_start", start.String(),
			"window_end", end.String(),
			"quorum", quorum.String(),
		))
		return nil
	})
	return index, err
}

func (e *Engine) ticker(db harvest.ReadOnlyKVStore) (string, error) {
	conf, err := e.stakes.Config(db)
	if err != nil {
		return "", errors.Wrap(err, "stake configuration")
	}
	return conf.Ticker, nil
}

// Tick opens every scheduled checkpoint whose window started. It runs at the
// beginning of a block, before any transaction of that block, so the
// previous height is the last one whose stake is final.
func (e *Engine) Tick(ctx harvest.Context, db harvest.KVStore) (*harvest.TickResult, error) {
	now, err := harvest.BlockUnixTime(ctx)
	if err != nil {
		return nil, err
	}
	height, ok := harvest.GetHeight(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "block height not in context")
	}

	it, err := e.due.Scan(db, nil, orm.Uint64Key(uint64(now)+1), false)
	if err != nil {
		return nil, errors.Wrap(err, "scan due checkpoints")
	}
	var (
		keys [][]byte
		due  []Due
	)
	for {
		var d Due
		key, err := it.LoadNext(&d)
		if errors.ErrIteratorDone.Is(err) {
			break
		}
		if err != nil {
			it.Release()
			return nil, errors.Wrap(err, "load due checkpoint")
		}
		keys = append(keys, key)
		due = append(due, d)
	}
	it.Release()

	ctx, rec := harvest.WithEventRecorder(ctx)
	var opened []string
	for i, d := range due {
		if err := e.open(ctx, db, keys[i], d, height-1); err != nil {
			return nil, errors.Wrapf(err, "open checkpoint %s/%d", d.Campaign, d.Index)
		}
		opened = append(opened, fmt.Sprintf("%s/%d", d.Campaign, d.Index))
	}
	res := &harvest.TickResult{Events: rec.Events()}
	if len(opened) > 0 {
		res.Log = "opened " + strings.Join(opened, ", ")
	}
	return res, nil
}

func (e *Engine) open(ctx harvest.Context, db harvest.KVStore, dueKey []byte, d Due, snapshot int64) error {
	return e.run(ctx, db, d.Campaign, func(ctx harvest.Context, db harvest.KVStore) error {
		if err := e.due.Delete(db, dueKey); err != nil {
			return errors.Wrap(err, "dequeue")
		}
		c, err := e.Checkpoint(db, d.Campaign, d.Index)
		if err != nil {
			return err
		}
		if c.Status != Status_Scheduled {
			return nil
		}
		total, err := e.stakes.TotalAt(db, c.Campaign, snapshot)
		if err != nil {
			return errors.Wrap(err, "eligible stake")
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		c.Status = Status_Voting
		c.SnapshotHeight = snapshot
		c.OpenedAt = now
		c.TotalEligible = &total
		if _, err := e.checkpoints.Put(db, c.Key(), c); err != nil {
			return errors.Wrap(err, "store checkpoint")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("checkpoint/opened",
			"campaign", c.Campaign,
			"index", fmt.Sprint(c.Index),
			"snapshot_height", fmt.Sprint(snapshot),
			"total_eligible", total.String(),
		))
		return nil
	})
}

// Vote casts the vote of a supporter. The weight is the stake of the voter
// at the snapshot height. Votes are final.
func (e *Engine) Vote(ctx harvest.Context, db harvest.KVStore, voter harvest.Address, campaign string, index int64, support bool) error {
	if err := voter.Validate(); err != nil {
		return errors.Wrap(err, "voter")
	}
	return e.run(ctx, db, campaign, func(ctx harvest.Context, db harvest.KVStore) error {
		c, err := e.Checkpoint(db, campaign, index)
		if err != nil {
			return err
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		if c.Status != Status_Voting {
			return errors.Wrapf(ErrVotingNotOpen, "checkpoint is %s", c.Status)
		}
		if now < c.WindowStart || harvest.IsExpired(ctx, c.WindowEnd) {
			return errors.Wrap(ErrVotingNotOpen, "outside of the voting window")
		}
		switch err := e.receipts.Has(db, receiptKey(campaign, index, voter)); {
		case err == nil:
			return ErrAlreadyVoted
		case !errors.ErrNotFound.Is(err):
			return err
		}

		s, err := e.stakes.Stake(db, campaign, voter)
		switch {
		case errors.ErrNotFound.Is(err):
			return errors.Wrap(ErrNoVotingPower, "no stake")
		case err != nil:
			return err
		}
		if !s.Active() {
			return errors.Wrap(ErrNoVotingPower, "stake is not active")
		}
		conf, err := e.Config(db)
		if err != nil {
			return err
		}
		if s.FirstStakedAt >= c.WindowStart {
			return errors.Wrap(ErrNotEligible, "stake does not predate the voting window")
		}
		if eligible := s.FirstStakedAt.Add(conf.MinEligibility.Duration()); eligible > now {
			return errors.Wrapf(ErrNotEligible, "stake eligible from %s", eligible)
		}
		weight, err := e.stakes.StakeAt(db, campaign, voter, c.SnapshotHeight)
		if err != nil {
			return err
		}
		if !weight.IsPositive() {
			return errors.Wrapf(ErrNoVotingPower, "no stake at height %d", c.SnapshotHeight)
		}

		tally := c.VotesAgainst
		if support {
			tally = c.VotesFor
		}
		sum, err := tally.Add(weight)
		if err != nil {
			return err
		}
		*tally = sum
		if _, err := e.checkpoints.Put(db, c.Key(), c); err != nil {
			return errors.Wrap(err, "store checkpoint")
		}
		receipt := &VoteReceipt{
			Metadata: &harvest.Metadata{Schema: 1},
			Campaign: campaign,
			Index:    index,
			Voter:    voter,
			Support:  support,
			Weight:   &weight,
			VotedAt:  now,
		}
		if _, err := e.receipts.Put(db, receiptKey(campaign, index, voter), receipt); err != nil {
			return errors.Wrap(err, "store receipt")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("checkpoint/voted",
			"campaign", campaign,
			"index", fmt.Sprint(index),
			"voter", voter.String(),
			"support", fmt.Sprint(support),
			"weight", weight.String(),
		))
		return nil
	})
}

// Finalize closes the vote once the window ended. A failed checkpoint
// halts the campaign payouts. Requires the curator role.
func (e *Engine) Finalize(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, campaign string, index int64) (Status, error) {
	if !e.oracle.HasRole(db, roles.Curator, caller) {
		return Status_Invalid, errors.Wrap(errors.ErrUnauthorized, "curator role required")
	}
	var status Status
	err := e.run(ctx, db, campaign, func(ctx harvest.Context, db harvest.KVStore) error {
		c, err := e.Checkpoint(db, campaign, index)
		if err != nil {
			return err
		}
		if c.Status != Status_Voting {
			return errors.Wrapf(errors.ErrState, "checkpoint is %s", c.Status)
		}
		if !harvest.IsExpired(ctx, c.WindowEnd) {
			return errors.Wrapf(ErrWindowOpen, "until %s", c.WindowEnd)
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		c.Status = Status_Failed
		if c.Passed() {
			c.Status = Status_Succeeded
		}
		c.ClosedAt = now
		if _, err := e.checkpoints.Put(db, c.Key(), c); err != nil {
			return errors.Wrap(err, "store checkpoint")
		}
		if c.Status == Status_Failed {
			if err := e.halter.Halt(ctx, db, campaign); err != nil {
				return errors.Wrap(err, "halt campaign")
			}
		}
		status = c.Status
		harvest.EmitEvent(ctx, harvest.NewEvent("checkpoint/finalized",
			"campaign", campaign,
			"index", fmt.Sprint(index),
			"status", c.Status.String(),
			"votes_for", c.VotesFor.String(),
			"votes_against", c.VotesAgainst.String(),
			"total_eligible", c.TotalEligible.String(),
		))
		harvest.GetLogger(ctx).Info("checkpoint finalized",
			"campaign", campaign, "index", index, "status", c.Status.String())
		return nil
	})
	return status, err
}

// Execute marks a finalized checkpoint as acted upon. Requires the curator
// role.
func (e *Engine) Execute(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, campaign string, index int64) error {
	if !e.oracle.HasRole(db, roles.Curator, caller) {
		return errors.Wrap(errors.ErrUnauthorized, "curator role required")
	}
	return e.run(ctx, db, campaign, func(ctx harvest.Context, db harvest.KVStore) error {
		c, err := e.Checkpoint(db, campaign, index)
		if err != nil {
			return err
		}
		if c.Status != Status_Succeeded && c.Status != Status_Failed {
			return errors.Wrapf(errors.ErrState, "checkpoint is %s", c.Status)
		}
		result := c.Status
		c.Status = Status_Executed
		if _, err := e.checkpoints.Put(db, c.Key(), c); err != nil {
			return errors.Wrap(err, "store checkpoint")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("checkpoint/executed",
			"campaign", campaign,
			"index", fmt.Sprint(index),
			"result", result.String(),
		))
		return nil
	})
}

// Cancel stops a checkpoint that is scheduled or being voted on. Cast votes
// are kept. Requires the curator role.
func (e *Engine) Cancel(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, campaign string, index int64) error {
	if !e.oracle.HasRole(db, roles.Curator, caller) {
		return errors.Wrap(errors.ErrUnauthorized, "curator role required")
	}
	return e.run(ctx, db, campaign, func(ctx harvest.Context, db harvest.KVStore) error {
		c, err := e.Checkpoint(db, campaign, index)
		if err != nil {
			return err
		}
		switch c.Status {
		case Status_Scheduled:
			if err := e.due.Delete(db, dueKey(c.WindowStart, campaign, index)); err != nil {
				return errors.Wrap(err, "dequeue")
			}
		case Status_Voting:
		default:
			return errors.Wrapf(errors.ErrState, "checkpoint is %s", c.Status)
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		c.Status = Status_Canceled
		c.ClosedAt = now
		if _, err := e.checkpoints.Put(db, c.Key(), c); err != nil {
			return errors.Wrap(err, "store checkpoint")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("checkpoint/canceled",
			"campaign", campaign,
			"index", fmt.Sprint(index),
		))
		return nil
	})
}
