package vault

import (
	"math/big"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
)

// Deposit moves amount from the caller into the vault and mints units for
// the receiver. The surplus above the buffer target is invested into the
// active adapter.
func (k *Keeper) Deposit(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, amount coin.Coin, receiver harvest.Address) (*big.Int, error) {
	if err := receiver.Validate(); err != nil {
		return nil, errors.Wrap(err, "receiver")
	}
	if !amount.IsPositive() {
		return nil, errors.Wrap(errors.ErrAmount, "deposit must be positive")
	}
	var minted *big.Int
	err := k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		if err := checkActive(v); err != nil {
			return err
		}
		if amount.Ticker != v.Ticker {
			return errors.Wrapf(errors.ErrCurrency, "vault holds %s", v.Ticker)
		}
		conf, err := k.Config(db)
		if err != nil {
			return err
		}
		atoms := amount.Atoms()
		if atoms.Cmp(big.NewInt(conf.MinDeposit)) < 0 {
			return errors.Wrapf(errors.ErrAmount, "deposit below minimum of %d atoms", conf.MinDeposit)
		}
		minted = newConversion(v, conf.VirtualOffset).mint(atoms)
		if minted.Sign() == 0 {
			return errors.Wrapf(ErrZeroShares, "deposit of %s", amount)
		}

		if err := k.cash.MoveCoins(db, caller, v.Custody, amount); err != nil {
			return errors.Wrap(err, "collect deposit")
		}
		if err := setAtoms(&v.Buffer, new(big.Int).Add(atomsOf(v.Buffer), atoms), v.Ticker); err != nil {
			return err
		}
		if err := k.addUnits(db, v, vaultID, receiver, minted); err != nil {
			return err
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("vault/mint",
			"vault", vaultLabel(vaultID),
			"holder", receiver.String(),
			"units", minted.String(),
			"amount", amount.String(),
		))
		return k.rebalance(ctx, db, v)
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// Withdraw burns the units worth amount from owner and pays the amount to
// the receiver. Caller must be the owner. When the holding falls short of
// the rounded up burn by less than one atom of value, the whole holding is
// burned and its value paid.
func (k *Keeper) Withdraw(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, amount coin.Coin, receiver, owner harvest.Address) (*big.Int, error) {
	if err := receiver.Validate(); err != nil {
		return nil, errors.Wrap(err, "receiver")
	}
	if !amount.IsPositive() {
		return nil, errors.Wrap(errors.ErrAmount, "withdrawal must be positive")
	}
	if !caller.Equals(owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "caller is not the owner")
	}
	var burned *big.Int
	err := k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		if amount.Ticker != v.Ticker {
			return errors.Wrapf(errors.ErrCurrency, "vault holds %s", v.Ticker)
		}
		conf, err := k.Config(db)
		if err != nil {
			return err
		}
		if err := checkGracePeriod(ctx, v, conf); err != nil {
			return err
		}
		atoms := amount.Atoms()
		conv := newConversion(v, conf.VirtualOffset)
		burned = conv.burn(atoms)
		held, err := k.Units(db, vaultID, owner)
		if err != nil {
			return err
		}
		if burned.Cmp(held) > 0 {
			// Rounding up may ask for more units than a holding worth the
			// amount carries. Within one atom the whole holding is burned.
			value := conv.redeem(held)
			if held.Sign() == 0 || new(big.Int).Add(value, big.NewInt(1)).Cmp(atoms) < 0 {
				return errors.Wrapf(ErrInsufficientUnits, "%s units are worth %s atoms", held, value)
			}
			if value.Cmp(atoms) < 0 {
				atoms = value
			}
			if atoms.Sign() == 0 {
				return errors.Wrapf(errors.ErrAmount, "%s units are worth nothing", held)
			}
			burned = held
		}
		_, err = k.payOut(ctx, db, v, vaultID, atoms, burned, receiver, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return burned, nil
}

// Redeem burns given units of the owner and pays their value to the
// receiver. Caller must be the owner.
func (k *Keeper) Redeem(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, units *big.Int, receiver, owner harvest.Address) (coin.Coin, error) {
	if err := receiver.Validate(); err != nil {
		return coin.Coin{}, errors.Wrap(err, "receiver")
	}
	if units == nil || units.Sign() <= 0 {
		return coin.Coin{}, errors.Wrap(errors.ErrAmount, "units must be positive")
	}
	if !caller.Equals(owner) {
		return coin.Coin{}, errors.Wrap(errors.ErrUnauthorized, "caller is not the owner")
	}
	var paid coin.Coin
	err := k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		conf, err := k.Config(db)
		if err != nil {
			return err
		}
		if err := checkGracePeriod(ctx, v, conf); err != nil {
			return err
		}
		atoms := newConversion(v, conf.VirtualOffset).redeem(units)
		if atoms.Sign() == 0 {
			return errors.Wrapf(errors.ErrAmount, "%s units are worth nothing", units)
		}
		paid, err = k.payOut(ctx, db, v, vaultID, atoms, units, receiver, owner)
		return err
	})
	return paid, err
}

// payOut burns units of owner and transfers atoms to the receiver. Any
// shortfall of the buffer is divested from the adapter. When the adapter
// returns less than requested the difference is charged to the withdrawal,
// provided it stays within the max loss ratio.
func (k *Keeper) payOut(ctx harvest.Context, db harvest.KVStore, v *Vault, vaultID []byte, atoms, units *big.Int, receiver, owner harvest.Address) (coin.Coin, error) {
	if err := k.addUnits(db, v, vaultID, owner, new(big.Int).Neg(units)); err != nil {
		return coin.Coin{}, err
	}

	buffer := atomsOf(v.Buffer)
	loss := new(big.Int)
	if shortfall := new(big.Int).Sub(atoms, buffer); shortfall.Sign() > 0 {
		returned, err := k.divest(ctx, db, v, shortfall)
		if err != nil {
			return coin.Coin{}, err
		}
		if returned.Cmp(shortfall) < 0 {
			loss.Sub(shortfall, returned)
			if v.MaxLossRatio.Exceeds(loss, shortfall) {
				return coin.Coin{}, errors.Wrapf(ErrExcessiveLoss,
					"adapter returned %s of %s atoms, allowed loss is %s", returned, shortfall, v.MaxLossRatio)
			}
			if err := k.bookLoss(v, loss); err != nil {
				return coin.Coin{}, err
			}
		}
		buffer = atomsOf(v.Buffer)
	}

	pay := new(big.Int).Sub(atoms, loss)
	if pay.Cmp(buffer) > 0 {
		return coin.Coin{}, errors.Wrapf(errors.ErrState, "buffer of %s atoms cannot pay %s", buffer, pay)
	}
	paid, err := coin.FromAtoms(pay, v.Ticker)
	if err != nil {
		return coin.Coin{}, err
	}
	if paid.IsPositive() {
		if err := k.cash.MoveCoins(db, v.Custody, receiver, paid); err != nil {
			return coin.Coin{}, errors.Wrap(err, "pay withdrawal")
		}
	}
	if err := setAtoms(&v.Buffer, buffer.Sub(buffer, pay), v.Ticker); err != nil {
		return coin.Coin{}, err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("vault/burn",
		"vault", vaultLabel(vaultID),
		"holder", owner.String(),
		"units", units.String(),
		"amount", paid.String(),
	))
	return paid, nil
}

// divest requests atoms from the active adapter and moves the recorded
// amount from principal to buffer. The amount actually returned by the
// adapter is credited to the buffer.
func (k *Keeper) divest(ctx harvest.Context, db harvest.KVStore, v *Vault, atoms *big.Int) (*big.Int, error) {
	a, err := k.activeAdapter(v)
	if err != nil {
		return nil, err
	}
	principal := atomsOf(v.Principal)
	if a == nil || atoms.Cmp(principal) > 0 {
		return nil, errors.Wrapf(errors.ErrState, "cannot divest %s atoms, principal is %s", atoms, principal)
	}
	req, err := coin.FromAtoms(atoms, v.Ticker)
	if err != nil {
		return nil, err
	}
	got, err := a.Divest(ctx, db, v.Custody, req)
	if err != nil {
		return nil, errors.Wrap(err, "adapter divest")
	}
	returned := got.Atoms()
	if got.Ticker != v.Ticker || returned.Sign() < 0 {
		return nil, errors.Wrapf(errors.ErrState, "adapter returned %s", got)
	}
	if err := setAtoms(&v.Principal, principal.Sub(principal, atoms), v.Ticker); err != nil {
		return nil, err
	}
	if err := setAtoms(&v.Buffer, new(big.Int).Add(atomsOf(v.Buffer), returned), v.Ticker); err != nil {
		return nil, err
	}
	return returned, nil
}

// rebalance invests the buffer surplus above the target ratio.
func (k *Keeper) rebalance(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
	a, err := k.activeAdapter(v)
	if err != nil || a == nil {
		return err
	}
	target := v.BufferRatio.MulFloor(totalAssets(v))
	excess := new(big.Int).Sub(atomsOf(v.Buffer), target)
	if excess.Sign() <= 0 {
		return nil
	}
	amount, err := coin.FromAtoms(excess, v.Ticker)
	if err != nil {
		return err
	}
	if err := k.cash.MoveCoins(db, v.Custody, a.Account(), amount); err != nil {
		return errors.Wrap(err, "fund adapter")
	}
	if err := a.Invest(ctx, db, v.Custody, amount); err != nil {
		return errors.Wrap(err, "adapter invest")
	}
	if err := setAtoms(&v.Buffer, new(big.Int).Sub(atomsOf(v.Buffer), excess), v.Ticker); err != nil {
		return err
	}
	return setAtoms(&v.Principal, new(big.Int).Add(atomsOf(v.Principal), excess), v.Ticker)
}

// Harvest realizes the adapter result. Profit is divested and forwarded to
// the distributor, a loss lowers the recorded principal. Anyone may call it.
func (k *Keeper) Harvest(ctx harvest.Context, db harvest.KVStore, vaultID []byte) (profit, loss coin.Coin, err error) {
	err = k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		if err := checkActive(v); err != nil {
			return err
		}
		profit, loss, err = k.harvest(ctx, db, v, vaultID)
		return err
	})
	return profit, loss, err
}

func (k *Keeper) harvest(ctx harvest.Context, db harvest.KVStore, v *Vault, vaultID []byte) (coin.Coin, coin.Coin, error) {
	zero := coin.NewCoin(0, 0, v.Ticker)
	a, err := k.activeAdapter(v)
	if err != nil || a == nil {
		return zero, zero, err
	}
	if _, _, err := a.Harvest(ctx, db, v.Custody); err != nil {
		return zero, zero, errors.Wrap(err, "adapter harvest")
	}
	value, err := k.adapterValue(db, a, v)
	if err != nil {
		return zero, zero, err
	}
	principal := atomsOf(v.Principal)

	switch value.Cmp(principal) {
	case 0:
		return zero, zero, nil
	case -1:
		lost := new(big.Int).Sub(principal, value)
		if err := k.bookLoss(v, lost); err != nil {
			return zero, zero, err
		}
		if err := setAtoms(&v.Principal, value, v.Ticker); err != nil {
			return zero, zero, err
		}
		loss, err := coin.FromAtoms(lost, v.Ticker)
		if err != nil {
			return zero, zero, err
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("vault/harvest_loss",
			"vault", vaultLabel(vaultID),
			"loss", loss.String(),
			"principal", v.Principal.String(),
		))
		harvest.GetLogger(ctx).Info("harvest loss", "vault", vaultLabel(vaultID), "loss", loss.String())
		return zero, loss, nil
	}

	gain := new(big.Int).Sub(value, principal)
	req, err := coin.FromAtoms(gain, v.Ticker)
	if err != nil {
		return zero, zero, err
	}
	got, err := a.Divest(ctx, db, v.Custody, req)
	if err != nil {
		return zero, zero, errors.Wrap(err, "adapter divest")
	}
	if got.Ticker != v.Ticker || !got.IsNonNegative() {
		return zero, zero, errors.Wrapf(errors.ErrState, "adapter returned %s", got)
	}
	returned := got.Atoms()
	if slip := new(big.Int).Sub(gain, returned); slip.Sign() > 0 && v.SlippageRatio.Exceeds(slip, gain) {
		return zero, zero, errors.Wrapf(ErrSlippageExceeded,
			"adapter returned %s of %s atoms, allowed slippage is %s", returned, gain, v.SlippageRatio)
	}
	left, err := k.adapterValue(db, a, v)
	if err != nil {
		return zero, zero, err
	}
	if left.Cmp(principal) < 0 {
		if err := k.bookLoss(v, new(big.Int).Sub(principal, left)); err != nil {
			return zero, zero, err
		}
	}
	if err := setAtoms(&v.Principal, left, v.Ticker); err != nil {
		return zero, zero, err
	}
	if returned.Sign() == 0 {
		return zero, zero, nil
	}
	if k.distributor == nil {
		return zero, zero, errors.Wrap(errors.ErrHuman, "no distributor configured")
	}
	if err := k.cash.MoveCoins(db, v.Custody, k.distributor.Account(), got); err != nil {
		return zero, zero, errors.Wrap(err, "forward profit")
	}
	if err := k.distributor.Distribute(ctx, db, v.Custody, vaultID, got); err != nil {
		return zero, zero, errors.Wrap(err, "distribute profit")
	}
	if err := k.bookProfit(v, returned); err != nil {
		return zero, zero, err
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("vault/harvest_profit",
		"vault", vaultLabel(vaultID),
		"profit", got.String(),
		"principal", v.Principal.String(),
	))
	harvest.GetLogger(ctx).Info("harvest profit", "vault", vaultLabel(vaultID), "profit", got.String())
	return got, zero, nil
}

// adapterValue returns the value reported by the adapter in atoms.
func (k *Keeper) adapterValue(db harvest.ReadOnlyKVStore, a Adapter, v *Vault) (*big.Int, error) {
	val, err := a.TotalAssets(db)
	if err != nil {
		return nil, errors.Wrap(err, "adapter value")
	}
	if val.IsZero() {
		return new(big.Int), nil
	}
	if val.Ticker != v.Ticker || !val.IsNonNegative() {
		return nil, errors.Wrapf(errors.ErrState, "adapter reported %s", val)
	}
	return val.Atoms(), nil
}

func (k *Keeper) bookLoss(v *Vault, atoms *big.Int) error {
	return setAtoms(&v.CumulativeLoss, new(big.Int).Add(atomsOf(v.CumulativeLoss), atoms), v.Ticker)
}

func (k *Keeper) bookProfit(v *Vault, atoms *big.Int) error {
	return setAtoms(&v.CumulativeProfit, new(big.Int).Add(atomsOf(v.CumulativeProfit), atoms), v.Ticker)
}

// checkActive rejects operations that are not allowed while the vault is
// paused or in emergency.
func checkActive(v *Vault) error {
	if v.Emergency {
		return ErrInEmergency
	}
	if v.Paused {
		return ErrPaused
	}
	return nil
}

// checkGracePeriod rejects normal withdrawals once the emergency grace
// period is over.
func checkGracePeriod(ctx harvest.Context, v *Vault, conf Configuration) error {
	if !v.Emergency {
		return nil
	}
	if harvest.IsExpired(ctx, v.EmergencyAt.Add(conf.GracePeriod.Duration())) {
		return errors.Wrapf(ErrGracePeriodExpired, "emergency since %s", v.EmergencyAt)
	}
	return nil
}
