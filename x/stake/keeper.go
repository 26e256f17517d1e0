package stake

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/gconf"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/payout"
	"github.com/iov-one/harvest/x/utils"
)

// Keeper manages supporter stakes.
type Keeper struct {
	stakes    orm.ModelBucket
	campaigns orm.ModelBucket
	cash      cash.Controller
	guard     *harvest.Guard
}

// NewKeeper returns a keeper moving stakes with given controller. A nil
// guard creates a new one.
func NewKeeper(ctrl cash.Controller, guard *harvest.Guard) *Keeper {
	if guard == nil {
		guard = harvest.NewGuard()
	}
	return &Keeper{
		stakes:    migration.NewModelBucket(packageName, orm.NewModelBucket("stake", &SupporterStake{})),
		campaigns: migration.NewModelBucket(packageName, orm.NewModelBucket("campaign_stake", &CampaignStake{})),
		cash:      ctrl,
		guard:     guard,
	}
}

// Config returns the stored configuration or the default one.
func (k *Keeper) Config(db harvest.ReadOnlyKVStore) (Configuration, error) {
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

// Stake returns the stake record of a supporter. ErrNotFound is returned if
// the supporter never staked behind the campaign.
func (k *Keeper) Stake(db harvest.ReadOnlyKVStore, campaign string, supporter harvest.Address) (*SupporterStake, error) {
	var s SupporterStake
	if err := k.stakes.One(db, stakeKey(campaign, supporter), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CampaignTotal returns the stake totals of a campaign.
func (k *Keeper) CampaignTotal(db harvest.ReadOnlyKVStore, campaign string) (*CampaignStake, error) {
	var c CampaignStake
	switch err := k.campaigns.One(db, []byte(campaign), &c); {
	case err == nil:
		return &c, nil
	case errors.ErrNotFound.Is(err):
		conf, err := k.Config(db)
		if err != nil {
			return nil, err
		}
		return &CampaignStake{
			Metadata: &harvest.Metadata{Schema: 1},
			Campaign: campaign,
			Total:    coin.NewCoinp(0, 0, conf.Ticker),
		}, nil
	default:
		return nil, errors.Wrap(err, "campaign stake")
	}
}

// StakeAt returns the active stake of a supporter at the end of given
// height. A supporter without a snapshot at or before that height has zero
// stake.
func (k *Keeper) StakeAt(db harvest.ReadOnlyKVStore, campaign string, supporter harvest.Address, height int64) (coin.Coin, error) {
	conf, err := k.Config(db)
	if err != nil {
		return coin.Coin{}, err
	}
	s, err := k.Stake(db, campaign, supporter)
	switch {
	case errors.ErrNotFound.Is(err):
		return coin.NewCoin(0, 0, conf.Ticker), nil
	case err != nil:
		return coin.Coin{}, err
	}
	if snap := history(s.History).at(height); snap != nil {
		return *snap.Amount, nil
	}
	return coin.NewCoin(0, 0, conf.Ticker), nil
}

// TotalAt returns the stake of all supporters of a campaign at the end of
// given height.
func (k *Keeper) TotalAt(db harvest.ReadOnlyKVStore, campaign string, height int64) (coin.Coin, error) {
	c, err := k.CampaignTotal(db, campaign)
	if err != nil {
		return coin.Coin{}, err
	}
	if snap := history(c.History).at(height); snap != nil {
		return *snap.Amount, nil
	}
	return coin.NewCoin(0, 0, c.Total.Ticker), nil
}

func guardKey(campaign string) string {
	return "stake/" + campaign
}

// update runs fn atomically on the stake record while holding the campaign
// guard. The record passed to fn is fresh if the supporter never staked.
func (k *Keeper) update(ctx harvest.Context, db harvest.KVStore, campaign string, supporter harvest.Address, fn func(harvest.Context, harvest.KVStore, *SupporterStake, *CampaignStake) error) error {
	if err := payout.ValidateCampaign(campaign); err != nil {
		return errors.Wrap(err, "campaign")
	}
	if err := supporter.Validate(); err != nil {
		return errors.Wrap(err, "supporter")
	}
	release, err := k.guard.Enter(guardKey(campaign))
	if err != nil {
		return err
	}
	defer release()

	return utils.Atomic(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		conf, err := k.Config(db)
		if err != nil {
			return err
		}
		s, err := k.Stake(db, campaign, supporter)
		switch {
		case errors.ErrNotFound.Is(err):
			s = &SupporterStake{
				Metadata:  &harvest.Metadata{Schema: 1},
				Campaign:  campaign,
				Supporter: supporter,
				Amount:    coin.NewCoinp(0, 0, conf.Ticker),
				Escrow:    coin.NewCoinp(0, 0, conf.Ticker),
			}
		case err != nil:
			return err
		}
		total, err := k.CampaignTotal(db, campaign)
		if err != nil {
			return err
		}
		if err := fn(ctx, db, s, total); err != nil {
			return err
		}
		if _, err := k.stakes.Put(db, stakeKey(campaign, supporter), s); err != nil {
			return errors.Wrap(err, "store stake")
		}
		if _, err := k.campaigns.Put(db, []byte(campaign), total); err != nil {
			return errors.Wrap(err, "store campaign stake")
		}
		return nil
	})
}

// snapshot records the current amounts of both records.
func snapshot(ctx harvest.Context, s *SupporterStake, c *CampaignStake) error {
	height, ok := harvest.GetHeight(ctx)
	if !ok {
		return errors.Wrap(errors.ErrHuman, "block height not in context")
	}
	now, err := harvest.BlockUnixTime(ctx)
	if err != nil {
		return err
	}
	s.History = history(s.History).record(height, now, *s.Amount)
	c.History = history(c.History).record(height, now, *c.Total)
	return nil
}

// AddStake locks amount behind a campaign. The first stake, or the first
// stake after an archived exit, sets the eligibility anchor.
func (k *Keeper) AddStake(ctx harvest.Context, db harvest.KVStore, supporter harvest.Address, campaign string, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "stake must be positive")
	}
	return k.update(ctx, db, campaign, supporter, func(ctx harvest.Context, db harvest.KVStore, s *SupporterStake, c *CampaignStake) error {
		if amount.Ticker != s.Amount.Ticker {
			return errors.Wrapf(errors.ErrCurrency, "stake is held in %s", s.Amount.Ticker)
		}
		if s.ExitRequested {
			return errors.Wrap(ErrStakeLocked, "exit in progress")
		}
		if err := k.cash.MoveCoins(db, supporter, EscrowCondition(campaign).Address(), amount); err != nil {
			return errors.Wrap(err, "lock stake")
		}
		if s.FirstStakedAt.IsZero() || s.Archived {
			now, err := harvest.BlockUnixTime(ctx)
			if err != nil {
				return err
			}
			height, _ := harvest.GetHeight(ctx)
			s.FirstStakedAt = now
			s.FirstStakedHeight = height
			s.Archived = false
		}
		var err error
		if s.Amount, err = plus(*s.Amount, amount); err != nil {
			return err
		}
		if c.Total, err = plus(*c.Total, amount); err != nil {
			return err
		}
		if err := snapshot(ctx, s, c); err != nil {
			return err
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("stake/staked",
			"campaign", campaign,
			"supporter", supporter.String(),
			"amount", amount.String(),
			"total", s.Amount.String(),
		))
		return nil
	})
}

// RequestExit moves the whole active stake into escrow. It stops counting
// for voting at once and can be withdrawn after the exit delay.
func (k *Keeper) RequestExit(ctx harvest.Context, db harvest.KVStore, supporter harvest.Address, campaign string) error {
	return k.update(ctx, db, campaign, supporter, func(ctx harvest.Context, db harvest.KVStore, s *SupporterStake, c *CampaignStake) error {
		if s.ExitRequested {
			return errors.Wrap(ErrStakeLocked, "exit already requested")
		}
		if !s.Active() {
			return errors.Wrapf(ErrNoStake, "campaign %q", campaign)
		}
		conf, err := k.Config(db)
		if err != nil {
			return err
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		if c.Total, err = minus(*c.Total, *s.Amount); err != nil {
			return err
		}
		if s.Escrow, err = plus(*s.Escrow, *s.Amount); err != nil {
			return err
		}
		s.Amount = coin.NewCoinp(0, 0, s.Amount.Ticker)
		s.ExitRequested = true
		s.LockUntil = now.Add(conf.ExitDelay.Duration())
		if err := snapshot(ctx, s, c); err != nil {
			return err
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("stake/exit_requested",
			"campaign", campaign,
			"supporter", supporter.String(),
			"escrow", s.Escrow.String(),
			"lock_until", s.LockUntil.String(),
		))
		return nil
	})
}

// CompleteExit pays the escrow back once the lock expired and archives the
// stake record.
func (k *Keeper) CompleteExit(ctx harvest.Context, db harvest.KVStore, supporter harvest.Address, campaign string) (coin.Coin, error) {
	var paid coin.Coin
	err := k.update(ctx, db, campaign, supporter, func(ctx harvest.Context, db harvest.KVStore, s *SupporterStake, c *CampaignStake) error {
		if !s.ExitRequested {
			return errors.Wrap(errors.ErrState, "no exit requested")
		}
		if !harvest.IsExpired(ctx, s.LockUntil) {
			return errors.Wrapf(ErrStakeLocked, "locked until %s", s.LockUntil)
		}
		paid = *s.Escrow
		if paid.IsPositive() {
			if err := k.cash.MoveCoins(db, EscrowCondition(campaign).Address(), supporter, paid); err != nil {
				return errors.Wrap(err, "release escrow")
			}
		}
		s.Escrow = coin.NewCoinp(0, 0, paid.Ticker)
		s.ExitRequested = false
		s.LockUntil = 0
		s.Archived = true
		harvest.EmitEvent(ctx, harvest.NewEvent("stake/exited",
			"campaign", campaign,
			"supporter", supporter.String(),
			"amount", paid.String(),
		))
		return nil
	})
	return paid, err
}

func plus(a, b coin.Coin) (*coin.Coin, error) {
	c, err := a.Add(b)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func minus(a, b coin.Coin) (*coin.Coin, error) {
	c, err := a.Subtract(b)
	if err != nil {
		return nil, err
	}
	if !c.IsNonNegative() {
		return nil, errors.Wrap(errors.ErrState, "negative stake")
	}
	return &c, nil
}
