package vault

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x"
	"github.com/iov-one/harvest/x/roles"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r harvest.Registry, auth x.Authenticator, k *Keeper) {
	r.Handle(&CreateVaultMsg{}, CreateVaultHandler{auth, k})
	r.Handle(&DepositMsg{}, DepositHandler{auth, k})
	r.Handle(&WithdrawMsg{}, WithdrawHandler{auth, k})
	r.Handle(&RedeemMsg{}, RedeemHandler{auth, k})
	r.Handle(&HarvestMsg{}, HarvestHandler{k})
	r.Handle(&SetAdapterMsg{}, AdminHandler{auth, k})
	r.Handle(&DivestAllMsg{}, AdminHandler{auth, k})
	r.Handle(&SetRatioMsg{}, AdminHandler{auth, k})
	r.Handle(&SetPausedMsg{}, AdminHandler{auth, k})
	r.Handle(&EmergencyPauseMsg{}, AdminHandler{auth, k})
	r.Handle(&ResumeMsg{}, AdminHandler{auth, k})
	r.Handle(&EmergencyWithdrawMsg{}, EmergencyWithdrawHandler{auth, k})
}

// CreateVaultHandler creates vaults. The new vault ID is returned as the
// result data.
type CreateVaultHandler struct {
	auth   x.Authenticator
	keeper *Keeper
}

var _ harvest.Handler = CreateVaultHandler{}

func (h CreateVaultHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg CreateVaultMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := roles.Require(ctx, db, h.keeper.oracle, h.auth, roles.Governor)
	if err != nil {
		return nil, err
	}
	id, err := h.keeper.CreateVault(ctx, db, caller, Vault{
		Ticker:        msg.Ticker,
		BufferRatio:   msg.BufferRatio,
		SlippageRatio: msg.SlippageRatio,
		MaxLossRatio:  msg.MaxLossRatio,
		Adapter:       msg.Adapter,
	})
	if err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{Data: id}, nil
}

// DepositHandler processes deposits signed by the depositor. The number of
// minted units is returned as the result log.
type DepositHandler struct {
	auth   x.Authenticator
	keeper *Keeper
}

var _ harvest.Handler = DepositHandler{}

func (h DepositHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg DepositMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Depositor) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "depositor signature missing")
	}
	units, err := h.keeper.Deposit(ctx, db, msg.Depositor, msg.VaultID, *msg.Amount, msg.Receiver)
	if err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{Log: units.String()}, nil
}

// WithdrawHandler processes withdrawals signed by the owner.
type WithdrawHandler struct {
	auth   x.Authenticator
	keeper *Keeper
}

var _ harvest.Handler = WithdrawHandler{}

func (h WithdrawHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg WithdrawMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature missing")
	}
	units, err := h.keeper.Withdraw(ctx, db, msg.Owner, msg.VaultID, *msg.Amount, msg.Receiver, msg.Owner)
	if err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{Log: units.String()}, nil
}

// RedeemHandler processes redemptions signed by the owner.
type RedeemHandler struct {
	auth   x.Authenticator
	keeper *Keeper
}

var _ harvest.Handler = RedeemHandler{}

func (h RedeemHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg RedeemMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature missing")
	}
	units, err := parseUnits(msg.Units)
	if err != nil {
		return nil, err
	}
	paid, err := h.keeper.Redeem(ctx, db, msg.Owner, msg.VaultID, units, msg.Receiver, msg.Owner)
	if err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{Log: paid.String()}, nil
}

// HarvestHandler does not require any signature.
type HarvestHandler struct {
	keeper *Keeper
}

var _ harvest.Handler = HarvestHandler{}

func (h HarvestHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg HarvestMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	profit, loss, err := h.keeper.Harvest(ctx, db, msg.VaultID)
	if err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{Log: "profit " + profit.String() + ", loss " + loss.String()}, nil
}

// AdminHandler processes governor and guardian messages.
type AdminHandler struct {
	auth   x.Authenticator
	keeper *Keeper
}

var _ harvest.Handler = AdminHandler{}

func (h AdminHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot get transaction message")
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid message")
	}
	k := h.keeper

	switch msg := msg.(type) {
	case *SetAdapterMsg:
		caller, err := roles.Require(ctx, db, k.oracle, h.auth, roles.Governor)
		if err != nil {
			return nil, err
		}
		err = k.SetActiveAdapter(ctx, db, caller, msg.VaultID, msg.Adapter)
		return result(err)
	case *DivestAllMsg:
		caller, err := roles.Require(ctx, db, k.oracle, h.auth, roles.Governor)
		if err != nil {
			return nil, err
		}
		returned, err := k.DivestAll(ctx, db, caller, msg.VaultID)
		if err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{Log: returned.String()}, nil
	case *SetRatioMsg:
		caller, err := roles.Require(ctx, db, k.oracle, h.auth, roles.Governor)
		if err != nil {
			return nil, err
		}
		switch msg.Parameter {
		case ParamBufferRatio:
			err = k.SetCashBufferRatio(ctx, db, caller, msg.VaultID, msg.Ratio)
		case ParamSlippageRatio:
			err = k.SetSlippageRatio(ctx, db, caller, msg.VaultID, msg.Ratio)
		case ParamMaxLossRatio:
			err = k.SetMaxLossRatio(ctx, db, caller, msg.VaultID, msg.Ratio)
		}
		return result(err)
	case *SetPausedMsg:
		caller, err := roles.Require(ctx, db, k.oracle, h.auth, roles.Guardian)
		if err != nil {
			return nil, err
		}
		return result(k.SetPaused(ctx, db, caller, msg.VaultID, msg.Paused))
	case *EmergencyPauseMsg:
		caller, err := roles.Require(ctx, db, k.oracle, h.auth, roles.Guardian)
		if err != nil {
			return nil, err
		}
		return result(k.EmergencyPause(ctx, db, caller, msg.VaultID))
	case *ResumeMsg:
		caller, err := roles.Require(ctx, db, k.oracle, h.auth, roles.Guardian)
		if err != nil {
			return nil, err
		}
		return result(k.ResumeFromEmergency(ctx, db, caller, msg.VaultID))
	}
	return nil, errors.Wrapf(errors.ErrMsg, "unsupported message %T", msg)
}

func result(err error) (*harvest.DeliverResult, error) {
	if err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{}, nil
}

// EmergencyWithdrawHandler redeems all units of the signing owner once the
// emergency grace period is over.
type EmergencyWithdrawHandler struct {
	auth   x.Authenticator
	keeper *Keeper
}

var _ harvest.Handler = EmergencyWithdrawHandler{}

func (h EmergencyWithdrawHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg EmergencyWithdrawMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature missing")
	}
	paid, err := h.keeper.EmergencyWithdrawUser(ctx, db, msg.Owner, msg.VaultID, msg.Receiver)
	if err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{Log: paid.String()}, nil
}
