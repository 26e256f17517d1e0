package yieldsim

import (
	"fmt"
	"math/big"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/vault"
)

// AccountCondition returns the condition owning the coins of a venue.
func AccountCondition(name string) harvest.Condition {
	return harvest.NewCondition("yieldsim", "venue", []byte(name))
}

// Venue is a simulated yield venue. Every instance is an independent venue
// with its own account and position.
type Venue struct {
	name      string
	ticker    string
	account   harvest.Address
	cash      cash.Controller
	positions orm.ModelBucket
}

var _ vault.Adapter = (*Venue)(nil)

// NewVenue returns a venue accepting a single currency. The position must
// be bound to a vault before the venue accepts capital.
func NewVenue(name, ticker string, ctrl cash.Controller) *Venue {
	if !isName(name) {
		panic(fmt.Sprintf("invalid venue name %q", name))
	}
	return &Venue{
		name:      name,
		ticker:    ticker,
		account:   AccountCondition(name).Address(),
		cash:      ctrl,
		positions: NewPositionBucket(),
	}
}

func (v *Venue) Name() string             { return v.name }
func (v *Venue) Account() harvest.Address { return v.account }
func (v *Venue) Asset() string            { return v.ticker }

// Bind creates the position of this venue. Only the vault custody address
// given here is allowed to move capital afterwards.
func (v *Venue) Bind(db harvest.KVStore, vaultAddr harvest.Address) error {
	switch err := v.positions.Has(db, []byte(v.name)); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "venue %q already bound", v.name)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	zero := coin.NewCoin(0, 0, v.ticker)
	p := &Position{
		Metadata:  &harvest.Metadata{Schema: 1},
		Name:      v.name,
		Vault:     vaultAddr,
		Principal: zero.Clone(),
		Harvested: zero.Clone(),
		Pending:   zero.Clone(),
	}
	_, err := v.positions.Put(db, []byte(v.name), p)
	return errors.Wrap(err, "store position")
}

// Position returns the stored state of the venue.
func (v *Venue) Position(db harvest.ReadOnlyKVStore) (*Position, error) {
	var p Position
	if err := v.positions.One(db, []byte(v.name), &p); err != nil {
		return nil, errors.Wrapf(err, "venue %q", v.name)
	}
	return &p, nil
}

func (v *Venue) save(db harvest.KVStore, p *Position) error {
	_, err := v.positions.Put(db, []byte(v.name), p)
	return errors.Wrap(err, "store position")
}

func (v *Venue) authorize(db harvest.ReadOnlyKVStore, caller harvest.Address) (*Position, error) {
	p, err := v.Position(db)
	if err != nil {
		return nil, err
	}
	if !p.Vault.Equals(caller) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "venue %q is bound to another vault", v.name)
	}
	return p, nil
}

// TotalAssets is the balance of the venue account. Pending rewards are not
// counted until harvested.
func (v *Venue) TotalAssets(db harvest.ReadOnlyKVStore) (coin.Coin, error) {
	return v.cash.Balance(db, v.account, v.ticker)
}

func (v *Venue) Invest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, amount coin.Coin) error {
	p, err := v.authorize(db, caller)
	if err != nil {
		return err
	}
	if err := v.checkAmount(amount); err != nil {
		return err
	}
	if p.Principal, err = add(p.Principal, amount.Atoms(), v.ticker); err != nil {
		return err
	}
	if err := v.save(db, p); err != nil {
		return err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("yieldsim/invested", "venue", v.name, "amount", amount.String()))
	return nil
}

// Divest returns up to amount to the caller. The haircut share of the
// divested value is destroyed.
func (v *Venue) Divest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, amount coin.Coin) (coin.Coin, error) {
	p, err := v.authorize(db, caller)
	if err != nil {
		return coin.Coin{}, err
	}
	if err := v.checkAmount(amount); err != nil {
		return coin.Coin{}, err
	}
	held, err := v.TotalAssets(db)
	if err != nil {
		return coin.Coin{}, err
	}
	take := minInt(amount.Atoms(), held.Atoms())
	cut := p.Haircut.MulFloor(take)
	pay := new(big.Int).Sub(take, cut)

	if err := v.burn(db, cut); err != nil {
		return coin.Coin{}, err
	}
	paid, err := v.pay(db, caller, pay)
	if err != nil {
		return coin.Coin{}, err
	}
	if p.Principal, err = drawPrincipal(p.Principal, held.Atoms(), take, v.ticker); err != nil {
		return coin.Coin{}, err
	}
	if err := v.save(db, p); err != nil {
		return coin.Coin{}, err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("yieldsim/divested",
		"venue", v.name,
		"requested", amount.String(),
		"paid", paid.String(),
	))
	return paid, nil
}

// Harvest realizes all pending rewards into the venue account.
func (v *Venue) Harvest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address) (profit, loss coin.Coin, err error) {
	p, err := v.authorize(db, caller)
	if err != nil {
		return profit, loss, err
	}
	profit = *p.Pending
	loss = coin.NewCoin(0, 0, v.ticker)
	if profit.IsPositive() {
		if err := v.cash.IssueCoins(db, v.account, profit); err != nil {
			return profit, loss, errors.Wrap(err, "realize rewards")
		}
		if p.Harvested, err = add(p.Harvested, profit.Atoms(), v.ticker); err != nil {
			return profit, loss, err
		}
	}
	p.Pending = coin.NewCoinp(0, 0, v.ticker)
	if err := v.save(db, p); err != nil {
		return profit, loss, err
	}
	return profit, loss, nil
}

// EmergencyWithdraw returns everything the venue holds, ignoring the
// haircut.
func (v *Venue) EmergencyWithdraw(ctx harvest.Context, db harvest.KVStore, caller harvest.Address) (coin.Coin, error) {
	p, err := v.authorize(db, caller)
	if err != nil {
		return coin.Coin{}, err
	}
	held, err := v.TotalAssets(db)
	if err != nil {
		return coin.Coin{}, err
	}
	paid, err := v.pay(db, caller, held.Atoms())
	if err != nil {
		return coin.Coin{}, err
	}
	p.Principal = coin.NewCoinp(0, 0, v.ticker)
	if err := v.save(db, p); err != nil {
		return coin.Coin{}, err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("yieldsim/emergency_withdrawn", "venue", v.name, "paid", paid.String()))
	return paid, nil
}

// Accrue adds rewards that become available with the next harvest.
func (v *Venue) Accrue(ctx harvest.Context, db harvest.KVStore, amount coin.Coin) error {
	if err := v.checkAmount(amount); err != nil {
		return err
	}
	p, err := v.Position(db)
	if err != nil {
		return err
	}
	if p.Pending, err = add(p.Pending, amount.Atoms(), v.ticker); err != nil {
		return err
	}
	if err := v.save(db, p); err != nil {
		return err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("yieldsim/accrued", "venue", v.name, "amount", amount.String()))
	return nil
}

// Slash destroys up to amount of the invested coins and returns the
// destroyed value.
func (v *Venue) Slash(ctx harvest.Context, db harvest.KVStore, amount coin.Coin) (coin.Coin, error) {
	if err := v.checkAmount(amount); err != nil {
		return coin.Coin{}, err
	}
	p, err := v.Position(db)
	if err != nil {
		return coin.Coin{}, err
	}
	held, err := v.TotalAssets(db)
	if err != nil {
		return coin.Coin{}, err
	}
	slashed := minInt(amount.Atoms(), held.Atoms())
	if err := v.burn(db, slashed); err != nil {
		return coin.Coin{}, err
	}
	if p.Principal, err = drawPrincipal(p.Principal, held.Atoms(), slashed, v.ticker); err != nil {
		return coin.Coin{}, err
	}
	if err := v.save(db, p); err != nil {
		return coin.Coin{}, err
	}
	c, err := coin.FromAtoms(slashed, v.ticker)
	if err != nil {
		return coin.Coin{}, err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("yieldsim/slashed", "venue", v.name, "amount", c.String()))
	return c, nil
}

// SetHaircut changes the share lost on every divestment.
func (v *Venue) SetHaircut(ctx harvest.Context, db harvest.KVStore, r harvest.Ratio) error {
	if err := r.Validate(); err != nil {
		return errors.Wrap(err, "haircut")
	}
	p, err := v.Position(db)
	if err != nil {
		return err
	}
	p.Haircut = r
	if err := v.save(db, p); err != nil {
		return err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("yieldsim/haircut", "venue", v.name, "ratio", r.String()))
	return nil
}

func (v *Venue) checkAmount(amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	if amount.Ticker != v.ticker {
		return errors.Wrapf(errors.ErrCurrency, "venue %q accepts %s", v.name, v.ticker)
	}
	return nil
}

func (v *Venue) burn(db harvest.KVStore, atoms *big.Int) error {
	if atoms.Sign() <= 0 {
		return nil
	}
	c, err := coin.FromAtoms(atoms, v.ticker)
	if err != nil {
		return err
	}
	return errors.Wrap(v.cash.BurnCoins(db, v.account, c), "burn")
}

func (v *Venue) pay(db harvest.KVStore, dest harvest.Address, atoms *big.Int) (coin.Coin, error) {
	c, err := coin.FromAtoms(atoms, v.ticker)
	if err != nil {
		return coin.Coin{}, err
	}
	if atoms.Sign() <= 0 {
		return c, nil
	}
	if err := v.cash.MoveCoins(db, v.account, dest, c); err != nil {
		return coin.Coin{}, errors.Wrap(err, "pay")
	}
	return c, nil
}

func add(c *coin.Coin, atoms *big.Int, ticker string) (*coin.Coin, error) {
	sum, err := coin.FromAtoms(new(big.Int).Add(c.Atoms(), atoms), ticker)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// sub never goes below zero.
// drawPrincipal returns the principal left after taking atoms out of held.
// Realized rewards held above the principal are taken first.
func drawPrincipal(principal *coin.Coin, held, atoms *big.Int, ticker string) (*coin.Coin, error) {
	surplus := new(big.Int).Sub(held, principal.Atoms())
	if surplus.Sign() < 0 {
		surplus.SetInt64(0)
	}
	draw := new(big.Int).Sub(atoms, surplus)
	if draw.Sign() <= 0 {
		return principal, nil
	}
	rest := new(big.Int).Sub(principal.Atoms(), draw)
	if rest.Sign() < 0 {
		return nil, errors.Wrapf(errors.ErrState, "cannot draw %s atoms from principal %s", draw, principal)
	}
	r, err := coin.FromAtoms(rest, ticker)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func minInt(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
