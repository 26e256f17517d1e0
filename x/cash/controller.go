package cash

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/orm"
)

// Controller is the functionality needed by other extensions to move value.
type Controller interface {
	// Balance returns the amount of given currency owned by the address.
	// A missing balance is reported as zero.
	Balance(db harvest.ReadOnlyKVStore, owner harvest.Address, ticker string) (coin.Coin, error)
	// MoveCoins moves a positive amount from src to dest. It fails if src
	// does not hold enough funds.
	MoveCoins(db harvest.KVStore, src, dest harvest.Address, amount coin.Coin) error
	// IssueCoins credits dest with a positive amount created out of thin
	// air. It is used by genesis and by simulated yield venues.
	IssueCoins(db harvest.KVStore, dest harvest.Address, amount coin.Coin) error
	// BurnCoins destroys a positive amount owned by src.
	BurnCoins(db harvest.KVStore, src harvest.Address, amount coin.Coin) error
}

// BaseController is the store backed Controller.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the balance bucket.
func NewController() BaseController {
	return BaseController{bucket: NewBalanceBucket()}
}

func (c BaseController) Balance(db harvest.ReadOnlyKVStore, owner harvest.Address, ticker string) (coin.Coin, error) {
	var b Balance
	switch err := c.bucket.One(db, balanceKey(owner, ticker), &b); {
	case err == nil:
		return *b.Amount, nil
	case errors.ErrNotFound.Is(err):
		return coin.NewCoin(0, 0, ticker), nil
	default:
		return coin.Coin{}, errors.Wrap(err, "load balance")
	}
}

func (c BaseController) MoveCoins(db harvest.KVStore, src, dest harvest.Address, amount coin.Coin) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if err := c.add(db, src, amount.Negative()); err != nil {
		return errors.Wrapf(err, "debit %s", src)
	}
	if err := c.add(db, dest, amount); err != nil {
		return errors.Wrapf(err, "credit %s", dest)
	}
	return nil
}

func (c BaseController) IssueCoins(db harvest.KVStore, dest harvest.Address, amount coin.Coin) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	return c.add(db, dest, amount)
}

func (c BaseController) BurnCoins(db harvest.KVStore, src harvest.Address, amount coin.Coin) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	return c.add(db, src, amount.Negative())
}

func validAmount(amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	return nil
}

// add applies a signed delta to the balance. A resulting negative balance
// is rejected and an emptied balance is removed from the store.
func (c BaseController) add(db harvest.KVStore, owner harvest.Address, delta coin.Coin) error {
	if err := owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	current, err := c.Balance(db, owner, delta.Ticker)
	if err != nil {
		return err
	}
	total, err := current.Add(delta)
	if err != nil {
		return err
	}
	if !total.IsNonNegative() {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds: %s available", current)
	}
	key := balanceKey(owner, delta.Ticker)
	if total.IsZero() {
		if err := c.bucket.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	b := &Balance{
		Metadata: &harvest.Metadata{Schema: 1},
		Owner:    owner,
		Amount:   &total,
	}
	_, err = c.bucket.Put(db, key, b)
	return err
}
