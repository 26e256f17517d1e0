package payout

import (
	"fmt"
	"math/big"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/gconf"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/roles"
	"github.com/iov-one/harvest/x/utils"
)

const (
	packageName = "payout"
	guardKey    = "payout/router"
)

// UnitLedger is the view of a vault the router needs to weight holders.
type UnitLedger interface {
	// VaultAddress returns the only address allowed to distribute on
	// behalf of the vault.
	VaultAddress(db harvest.ReadOnlyKVStore, vaultID []byte) (harvest.Address, error)
	TotalUnits(db harvest.ReadOnlyKVStore, vaultID []byte) (*big.Int, error)
	// VisitHolders calls fn for every holder in a stable order.
	VisitHolders(db harvest.ReadOnlyKVStore, vaultID []byte, fn func(holder harvest.Address, units *big.Int) error) error
}

// Router distributes yield and governs the fee.
type Router struct {
	ledger      UnitLedger
	cash        cash.Controller
	oracle      roles.Oracle
	guard       *harvest.Guard
	policy      orm.ModelBucket
	proposals   orm.ModelBucket
	preferences orm.ModelBucket
	campaigns   orm.ModelBucket
	state       orm.ModelBucket
}

// NewRouter returns a router weighting holders with given ledger. A nil
// guard creates a new one.
func NewRouter(ledger UnitLedger, ctrl cash.Controller, oracle roles.Oracle, guard *harvest.Guard) *Router {
	if guard == nil {
		guard = harvest.NewGuard()
	}
	return &Router{
		ledger:      ledger,
		cash:        ctrl,
		oracle:      oracle,
		guard:       guard,
		policy:      newBucket("fee_policy", &FeePolicy{}),
		proposals:   newBucket("fee_proposal", &FeeProposal{}, orm.WithIDSequence(proposalSeq)),
		preferences: newBucket("preference", &Preference{}),
		campaigns:   newBucket("campaign", &CampaignPayout{}),
		state:       newBucket("router_state", &RouterState{}),
	}
}

// Account is where vaults move the profit before calling Distribute.
func (r *Router) Account() harvest.Address {
	return RouterCondition.Address()
}

// Config returns the stored configuration or the default one.
func (r *Router) Config(db harvest.ReadOnlyKVStore) (Configuration, error) {
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

// run executes fn atomically while holding the router guard.
func (r *Router) run(ctx harvest.Context, db harvest.KVStore, fn func(harvest.Context, harvest.KVStore) error) error {
	release, err := r.guard.Enter(guardKey)
	if err != nil {
		return err
	}
	defer release()
	return utils.Atomic(ctx, db, fn)
}

type holderShare struct {
	holder harvest.Address
	units  *big.Int
}

// Distribute splits amount, already transferred to the router account,
// between the holders of the vault. Only the vault itself may call it.
// Rounding dust is carried into the next distribution of the same vault.
func (r *Router) Distribute(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "nothing to distribute")
	}
	return r.run(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		owner, err := r.ledger.VaultAddress(db, vaultID)
		if err != nil {
			return err
		}
		if !owner.Equals(caller) {
			return errors.Wrap(errors.ErrUnauthorized, "only the vault may distribute")
		}
		return r.distribute(ctx, db, vaultID, amount)
	})
}

func (r *Router) distribute(ctx harvest.Context, db harvest.KVStore, vaultID []byte, amount coin.Coin) error {
	conf, err := r.Config(db)
	if err != nil {
		return err
	}
	policy, err := r.FeePolicy(db)
	if err != nil {
		return err
	}
	state, err := r.routerState(db, vaultID)
	if err != nil {
		return err
	}
	ticker := amount.Ticker

	fee := policy.Ratio.MulFloor(amount.Atoms())
	if err := r.pay(db, policy.Recipient, fee, ticker); err != nil {
		return errors.Wrap(err, "fee")
	}
	carried := state.DustIn(ticker)
	pool := new(big.Int).Sub(amount.Atoms(), fee)
	pool.Add(pool, carried.Atoms())

	supply, err := r.ledger.TotalUnits(db, vaultID)
	if err != nil {
		return err
	}
	// Holders are collected first, payments write to the store.
	var holders []holderShare
	err = r.ledger.VisitHolders(db, vaultID, func(holder harvest.Address, units *big.Int) error {
		holders = append(holders, holderShare{holder: holder, units: units})
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "holders")
	}

	paid := new(big.Int)
	if supply.Sign() > 0 {
		for _, h := range holders {
			share := harvest.MulDivFloor(pool, h.units, supply)
			if share.Sign() == 0 {
				continue
			}
			if err := r.payHolder(ctx, db, conf, h.holder, share, ticker); err != nil {
				return err
			}
			paid.Add(paid, share)
		}
	}

	dust, err := coin.FromAtoms(new(big.Int).Sub(pool, paid), ticker)
	if err != nil {
		return err
	}
	state.Dust = setCoin(state.Dust, dust)
	if _, err := r.state.Put(db, vaultID, state); err != nil {
		return errors.Wrap(err, "store router state")
	}

	feeCoin, err := coin.FromAtoms(fee, ticker)
	if err != nil {
		return err
	}
	paidCoin, err := coin.FromAtoms(paid, ticker)
	if err != nil {
		return err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("payout/distributed",
		"vault", fmtID(vaultID),
		"amount", amount.String(),
		"fee", feeCoin.String(),
		"distributed", paidCoin.String(),
		"dust", dust.String(),
	))
	harvest.GetLogger(ctx).Info("yield distributed",
		"vault", fmtID(vaultID),
		"amount", amount.String(),
		"fee", feeCoin.String(),
		"holders", len(holders))
	return nil
}

// payHolder splits a holder share according to the stored preference.
func (r *Router) payHolder(ctx harvest.Context, db harvest.KVStore, conf Configuration, holder harvest.Address, share *big.Int, ticker string) error {
	pref, err := r.Preference(db, holder)
	if err != nil && !errors.ErrNotFound.Is(err) {
		return err
	}

	var (
		campaign   string
		toCampaign = new(big.Int)
		receiver   = holder
	)
	if pref == nil {
		campaign = conf.DefaultCampaign
		if campaign != "" {
			toCampaign.Set(share)
		}
	} else {
		campaign = pref.Campaign
		toCampaign = pref.Allocation.MulFloor(share)
		receiver = pref.Receiver()
	}

	if toCampaign.Sign() > 0 {
		halted, err := r.IsHalted(db, campaign)
		if err != nil {
			return err
		}
		if halted {
			toCampaign.SetInt64(0)
		}
	}
	personal := new(big.Int).Sub(share, toCampaign)

	if toCampaign.Sign() > 0 {
		if err := r.creditCampaign(db, campaign, toCampaign, ticker); err != nil {
			return err
		}
	}
	if err := r.pay(db, receiver, personal, ticker); err != nil {
		return errors.Wrapf(err, "pay %s", receiver)
	}
	return nil
}

func (r *Router) creditCampaign(db harvest.KVStore, campaign string, atoms *big.Int, ticker string) error {
	c, err := r.campaign(db, campaign)
	if err != nil {
		return err
	}
	total, err := coin.FromAtoms(new(big.Int).Add(c.PaidIn(ticker).Atoms(), atoms), ticker)
	if err != nil {
		return err
	}
	c.Paid = setCoin(c.Paid, total)
	if _, err := r.campaigns.Put(db, []byte(campaign), c); err != nil {
		return errors.Wrap(err, "store campaign")
	}
	return r.pay(db, CampaignCondition(campaign).Address(), atoms, ticker)
}

func (r *Router) pay(db harvest.KVStore, dest harvest.Address, atoms *big.Int, ticker string) error {
	if atoms.Sign() <= 0 {
		return nil
	}
	amount, err := coin.FromAtoms(atoms, ticker)
	if err != nil {
		return err
	}
	return r.cash.MoveCoins(db, r.Account(), dest, amount)
}

func (r *Router) routerState(db harvest.ReadOnlyKVStore, vaultID []byte) (*RouterState, error) {
	var s RouterState
	switch err := r.state.One(db, vaultID, &s); {
	case err == nil:
		return &s, nil
	case errors.ErrNotFound.Is(err):
		return &RouterState{Metadata: &harvest.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "router state")
	}
}

// Dust returns the amount carried into the next distribution of given
// vault and currency.
func (r *Router) Dust(db harvest.ReadOnlyKVStore, vaultID []byte, ticker string) (coin.Coin, error) {
	s, err := r.routerState(db, vaultID)
	if err != nil {
		return coin.Coin{}, err
	}
	return s.DustIn(ticker), nil
}

// Preference returns the preference of holder or ErrNotFound.
func (r *Router) Preference(db harvest.ReadOnlyKVStore, holder harvest.Address) (*Preference, error) {
	var p Preference
	if err := r.preferences.One(db, holder, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPreference stores how the share of holder is split. A positive
// allocation requires a campaign that is not halted.
func (r *Router) SetPreference(ctx harvest.Context, db harvest.KVStore, holder harvest.Address, campaign string, beneficiary harvest.Address, allocation harvest.Ratio) error {
	p := &Preference{
		Metadata:    &harvest.Metadata{Schema: 1},
		Holder:      holder,
		Campaign:    campaign,
		Beneficiary: beneficiary,
		Allocation:  allocation,
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return r.run(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		if allocation > 0 {
			halted, err := r.IsHalted(db, campaign)
			if err != nil {
				return err
			}
			if halted {
				return errors.Wrapf(ErrCampaignHalted, "campaign %q", campaign)
			}
		}
		if _, err := r.preferences.Put(db, holder, p); err != nil {
			return errors.Wrap(err, "store preference")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("payout/preference_set",
			"holder", holder.String(),
			"campaign", campaign,
			"beneficiary", p.Receiver().String(),
			"allocation", allocation.String(),
		))
		return nil
	})
}

// Campaign returns the payout record of a campaign. A campaign that never
// received anything is reported as a fresh record.
func (r *Router) Campaign(db harvest.ReadOnlyKVStore, campaign string) (*CampaignPayout, error) {
	if err := ValidateCampaign(campaign); err != nil {
		return nil, err
	}
	return r.campaign(db, campaign)
}

func (r *Router) campaign(db harvest.ReadOnlyKVStore, campaign string) (*CampaignPayout, error) {
	var c CampaignPayout
	switch err := r.campaigns.One(db, []byte(campaign), &c); {
	case err == nil:
		return &c, nil
	case errors.ErrNotFound.Is(err):
		return &CampaignPayout{Metadata: &harvest.Metadata{Schema: 1}, Campaign: campaign}, nil
	default:
		return nil, errors.Wrap(err, "campaign")
	}
}

// IsHalted returns true if payouts to the campaign are halted.
func (r *Router) IsHalted(db harvest.ReadOnlyKVStore, campaign string) (bool, error) {
	c, err := r.campaign(db, campaign)
	if err != nil {
		return false, err
	}
	return c.Halted, nil
}

// Halt stops payouts to a campaign until it is resumed. Halting a halted
// campaign is a no-op. It is called by the checkpoint engine when a
// checkpoint fails and is not exposed as a message.
func (r *Router) Halt(ctx harvest.Context, db harvest.KVStore, campaign string) error {
	if err := ValidateCampaign(campaign); err != nil {
		return err
	}
	return r.run(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		c, err := r.campaign(db, campaign)
		if err != nil || c.Halted {
			return err
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		c.Halted = true
		c.HaltedAt = now
		if _, err := r.campaigns.Put(db, []byte(campaign), c); err != nil {
			return errors.Wrap(err, "store campaign")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("payout/campaign_halted", "campaign", campaign))
		harvest.GetLogger(ctx).Info("campaign halted", "campaign", campaign)
		return nil
	})
}

// ResumeCampaign lifts the halt of a campaign. Requires the curator role.
func (r *Router) ResumeCampaign(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, campaign string) error {
	if !r.oracle.HasRole(db, roles.Curator, caller) {
		return errors.Wrap(errors.ErrUnauthorized, "curator role required")
	}
	return r.run(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		c, err := r.campaign(db, campaign)
		if err != nil {
			return err
		}
		if !c.Halted {
			return errors.Wrapf(errors.ErrState, "campaign %q is not halted", campaign)
		}
		c.Halted = false
		c.HaltedAt = 0
		if _, err := r.campaigns.Put(db, []byte(campaign), c); err != nil {
			return errors.Wrap(err, "store campaign")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("payout/campaign_resumed", "campaign", campaign))
		return nil
	})
}

func fmtID(id []byte) string {
	if len(id) == 8 {
		return fmt.Sprint(orm.DecodeSequence(id))
	}
	return fmt.Sprintf("%X", id)
}
