package payout

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x"
	"github.com/iov-one/harvest/x/roles"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r harvest.Registry, auth x.Authenticator, router *Router) {
	r.Handle(&SetPreferenceMsg{}, SetPreferenceHandler{auth, router})
	r.Handle(&ProposeFeeMsg{}, FeeHandler{auth, router})
	r.Handle(&ExecuteFeeMsg{}, FeeHandler{auth, router})
	r.Handle(&CancelFeeMsg{}, FeeHandler{auth, router})
	r.Handle(&ResumeCampaignMsg{}, ResumeCampaignHandler{auth, router})
}

// SetPreferenceHandler stores a preference signed by the holder.
type SetPreferenceHandler struct {
	auth   x.Authenticator
	router *Router
}

var _ harvest.Handler = SetPreferenceHandler{}

func (h SetPreferenceHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg SetPreferenceMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Holder) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "holder signature missing")
	}
	err := h.router.SetPreference(ctx, db, msg.Holder, msg.Campaign, msg.Beneficiary, msg.Allocation)
	if err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{}, nil
}

// FeeHandler processes fee governance messages. Proposing and canceling
// require the governor role, execution is open to anyone.
type FeeHandler struct {
	auth   x.Authenticator
	router *Router
}

var _ harvest.Handler = FeeHandler{}

func (h FeeHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate msg")
	}

	switch msg := msg.(type) {
	case *ProposeFeeMsg:
		caller, err := roles.Require(ctx, db, h.router.oracle, h.auth, roles.Governor)
		if err != nil {
			return nil, err
		}
		id, err := h.router.ProposeFeeChange(ctx, db, caller, msg.Ratio, msg.Recipient)
		if err != nil {
			return nil, err
		}
		if id == nil {
			return &harvest.DeliverResult{Log: "applied"}, nil
		}
		return &harvest.DeliverResult{Data: id, Log: "pending"}, nil
	case *ExecuteFeeMsg:
		if err := h.router.ExecuteFeeChange(ctx, db, msg.ProposalID); err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{}, nil
	case *CancelFeeMsg:
		caller, err := roles.Require(ctx, db, h.router.oracle, h.auth, roles.Governor)
		if err != nil {
			return nil, err
		}
		if err := h.router.CancelFeeChange(ctx, db, caller, msg.ProposalID); err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{}, nil
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unsupported message %T", msg)
	}
}

type ResumeCampaignHandler struct {
	auth   x.Authenticator
	router *Router
}

var _ harvest.Handler = ResumeCampaignHandler{}

func (h ResumeCampaignHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg ResumeCampaignMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	caller, err := roles.Require(ctx, db, h.router.oracle, h.auth, roles.Curator)
	if err != nil {
		return nil, err
	}
	if err := h.router.ResumeCampaign(ctx, db, caller, msg.Campaign); err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{}, nil
}
