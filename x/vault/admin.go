package vault

import (
	"math/big"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x/roles"
)

// SetActiveAdapter switches the adapter of the vault. The previous adapter
// must hold no principal and report no value. An empty name leaves the
// vault without adapter.
func (k *Keeper) SetActiveAdapter(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, name string) error {
	if err := k.requireRole(db, roles.Governor, caller); err != nil {
		return err
	}
	return k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		if name != "" {
			if _, err := k.adapter(name, v.Ticker); err != nil {
				return err
			}
		}
		prev, err := k.activeAdapter(v)
		if err != nil {
			return err
		}
		if prev != nil {
			if !coin.IsEmpty(v.Principal) {
				return errors.Wrapf(ErrAdapterBusy, "principal of %s recorded in %q", v.Principal, v.Adapter)
			}
			left, err := k.adapterValue(db, prev, v)
			if err != nil {
				return err
			}
			if left.Sign() != 0 {
				return errors.Wrapf(ErrAdapterBusy, "%q still reports %s atoms", v.Adapter, left)
			}
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("vault/adapter_set",
			"vault", vaultLabel(vaultID),
			"previous", v.Adapter,
			"adapter", name,
		))
		v.Adapter = name
		if v.Paused || v.Emergency {
			return nil
		}
		return k.rebalance(ctx, db, v)
	})
}

// DivestAll realizes pending profit and pulls all capital from the active
// adapter back into the buffer. The loss of the operation is bounded by the
// max loss ratio.
func (k *Keeper) DivestAll(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte) (coin.Coin, error) {
	if err := k.requireRole(db, roles.Governor, caller); err != nil {
		return coin.Coin{}, err
	}
	var returned coin.Coin
	err := k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		returned = coin.NewCoin(0, 0, v.Ticker)
		a, err := k.activeAdapter(v)
		if err != nil || a == nil {
			return err
		}
		if checkActive(v) == nil {
			if _, _, err := k.harvest(ctx, db, v, vaultID); err != nil {
				return err
			}
		}
		value, err := k.adapterValue(db, a, v)
		if err != nil {
			return err
		}
		principal := atomsOf(v.Principal)
		if value.Sign() == 0 {
			if principal.Sign() > 0 {
				if err := k.bookLoss(v, principal); err != nil {
					return err
				}
			}
			return setAtoms(&v.Principal, new(big.Int), v.Ticker)
		}

		req, err := coin.FromAtoms(value, v.Ticker)
		if err != nil {
			return err
		}
		got, err := a.Divest(ctx, db, v.Custody, req)
		if err != nil {
			return errors.Wrap(err, "adapter divest")
		}
		if got.Ticker != v.Ticker || !got.IsNonNegative() {
			return errors.Wrapf(errors.ErrState, "adapter returned %s", got)
		}
		if err := k.settle(v, principal, got.Atoms()); err != nil {
			return err
		}
		returned = got
		harvest.GetLogger(ctx).Info("vault divested", "vault", vaultLabel(vaultID), "returned", got.String())
		return nil
	})
	return returned, err
}

// settle books the result of pulling the whole principal out of the
// adapter. Principal becomes zero and the returned amount joins the buffer.
func (k *Keeper) settle(v *Vault, principal, returned *big.Int) error {
	switch diff := new(big.Int).Sub(principal, returned); diff.Sign() {
	case 1:
		if principal.Sign() > 0 && v.MaxLossRatio.Exceeds(diff, principal) {
			return errors.Wrapf(ErrExcessiveLoss,
				"adapter returned %s of %s atoms, allowed loss is %s", returned, principal, v.MaxLossRatio)
		}
		if err := k.bookLoss(v, diff); err != nil {
			return err
		}
	case -1:
		if err := k.bookProfit(v, diff.Neg(diff)); err != nil {
			return err
		}
	}
	if err := setAtoms(&v.Principal, new(big.Int), v.Ticker); err != nil {
		return err
	}
	return setAtoms(&v.Buffer, new(big.Int).Add(atomsOf(v.Buffer), returned), v.Ticker)
}

// SetCashBufferRatio changes the share of the pooled assets kept liquid.
func (k *Keeper) SetCashBufferRatio(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, r harvest.Ratio) error {
	return k.setRatio(ctx, db, caller, vaultID, "buffer_ratio", r, func(v *Vault) { v.BufferRatio = r })
}

// SetSlippageRatio changes the tolerated harvest slippage.
func (k *Keeper) SetSlippageRatio(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, r harvest.Ratio) error {
	return k.setRatio(ctx, db, caller, vaultID, "slippage_ratio", r, func(v *Vault) { v.SlippageRatio = r })
}

// SetMaxLossRatio changes the tolerated divestment loss.
func (k *Keeper) SetMaxLossRatio(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, r harvest.Ratio) error {
	return k.setRatio(ctx, db, caller, vaultID, "max_loss_ratio", r, func(v *Vault) { v.MaxLossRatio = r })
}

func (k *Keeper) setRatio(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, name string, r harvest.Ratio, set func(*Vault)) error {
	if err := k.requireRole(db, roles.Governor, caller); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return errors.Wrap(err, name)
	}
	return k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		set(v)
		harvest.EmitEvent(ctx, harvest.NewEvent("vault/config",
			"vault", vaultLabel(vaultID),
			name, r.String(),
		))
		return nil
	})
}

// SetPaused blocks or unblocks deposits and harvests.
func (k *Keeper) SetPaused(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, paused bool) error {
	if err := k.requireRole(db, roles.Guardian, caller); err != nil {
		return err
	}
	return k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		v.Paused = paused
		state := "false"
		if paused {
			state = "true"
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("vault/config",
			"vault", vaultLabel(vaultID),
			"paused", state,
		))
		return nil
	})
}

// EmergencyPause activates the emergency mode and starts the grace period.
func (k *Keeper) EmergencyPause(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte) error {
	if err := k.requireRole(db, roles.Guardian, caller); err != nil {
		return err
	}
	return k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		if v.Emergency {
			return errors.Wrapf(ErrInEmergency, "since %s", v.EmergencyAt)
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		v.Emergency = true
		v.EmergencyAt = now
		harvest.EmitEvent(ctx, harvest.NewEvent("vault/emergency_activated",
			"vault", vaultLabel(vaultID),
			"at", now.String(),
		))
		harvest.GetLogger(ctx).Info("emergency activated", "vault", vaultLabel(vaultID))
		return nil
	})
}

// ResumeFromEmergency leaves the emergency mode.
func (k *Keeper) ResumeFromEmergency(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte) error {
	if err := k.requireRole(db, roles.Guardian, caller); err != nil {
		return err
	}
	return k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		if !v.Emergency {
			return ErrNotInEmergency
		}
		v.Emergency = false
		v.EmergencyAt = 0
		harvest.EmitEvent(ctx, harvest.NewEvent("vault/emergency_deactivated",
			"vault", vaultLabel(vaultID),
		))
		harvest.GetLogger(ctx).Info("emergency deactivated", "vault", vaultLabel(vaultID))
		return nil
	})
}

// EmergencyWithdrawUser redeems all units of the caller once the grace
// period is over. Whatever the adapter still holds is pulled back first.
func (k *Keeper) EmergencyWithdrawUser(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, receiver harvest.Address) (coin.Coin, error) {
	if err := receiver.Validate(); err != nil {
		return coin.Coin{}, errors.Wrap(err, "receiver")
	}
	var paid coin.Coin
	err := k.update(ctx, db, vaultID, func(ctx harvest.Context, db harvest.KVStore, v *Vault) error {
		if !v.Emergency {
			return ErrNotInEmergency
		}
		conf, err := k.Config(db)
		if err != nil {
			return err
		}
		if end := v.EmergencyAt.Add(conf.GracePeriod.Duration()); !harvest.IsExpired(ctx, end) {
			return errors.Wrapf(ErrGracePeriodActive, "until %s", end)
		}
		units, err := k.Units(db, vaultID, caller)
		if err != nil {
			return err
		}
		if units.Sign() == 0 {
			return errors.Wrap(ErrInsufficientUnits, "caller holds no units")
		}

		if err := k.emergencyDivest(ctx, db, v, vaultID); err != nil {
			return err
		}
		atoms := newConversion(v, conf.VirtualOffset).redeem(units)
		paid, err = k.payOut(ctx, db, v, vaultID, atoms, units, receiver, caller)
		return err
	})
	return paid, err
}

// emergencyDivest pulls everything out of the adapter without loss bounds.
func (k *Keeper) emergencyDivest(ctx harvest.Context, db harvest.KVStore, v *Vault, vaultID []byte) error {
	a, err := k.activeAdapter(v)
	if err != nil || a == nil {
		return err
	}
	principal := atomsOf(v.Principal)
	value, err := k.adapterValue(db, a, v)
	if err != nil {
		return err
	}
	if principal.Sign() == 0 && value.Sign() == 0 {
		return nil
	}
	got, err := a.EmergencyWithdraw(ctx, db, v.Custody)
	if err != nil {
		return errors.Wrap(err, "adapter emergency withdraw")
	}
	returned := new(big.Int)
	if !got.IsZero() {
		if got.Ticker != v.Ticker || !got.IsNonNegative() {
			return errors.Wrapf(errors.ErrState, "adapter returned %s", got)
		}
		returned = got.Atoms()
	}
	if diff := new(big.Int).Sub(principal, returned); diff.Sign() > 0 {
		if err := k.bookLoss(v, diff); err != nil {
			return err
		}
	} else if diff.Sign() < 0 {
		if err := k.bookProfit(v, diff.Neg(diff)); err != nil {
			return err
		}
	}
	if err := setAtoms(&v.Principal, new(big.Int), v.Ticker); err != nil {
		return err
	}
	if err := setAtoms(&v.Buffer, new(big.Int).Add(atomsOf(v.Buffer), returned), v.Ticker); err != nil {
		return err
	}
	harvest.GetLogger(ctx).Info("emergency divest", "vault", vaultLabel(vaultID), "returned", got.String())
	return nil
}
