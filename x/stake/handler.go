package stake

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x"
)

// RegisterRoutes registers the stake handlers.
func RegisterRoutes(r harvest.Registry, auth x.Authenticator, k *Keeper) {
	h := StakeHandler{auth: auth, keeper: k}
	r.Handle(&StakeMsg{}, h)
	r.Handle(&RequestExitMsg{}, h)
	r.Handle(&CompleteExitMsg{}, h)
}

// StakeHandler processes all stake messages. Each of them must be signed by
// the supporter.
type StakeHandler struct {
	auth   x.Authenticator
	keeper *Keeper
}

var _ harvest.Handler = StakeHandler{}

func (h StakeHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate msg")
	}

	switch msg := msg.(type) {
	case *StakeMsg:
		if err := h.signed(ctx, msg.Supporter); err != nil {
			return nil, err
		}
		if err := h.keeper.AddStake(ctx, db, msg.Supporter, msg.Campaign, *msg.Amount); err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{}, nil
	case *RequestExitMsg:
		if err := h.signed(ctx, msg.Supporter); err != nil {
			return nil, err
		}
		if err := h.keeper.RequestExit(ctx, db, msg.Supporter, msg.Campaign); err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{}, nil
	case *CompleteExitMsg:
		if err := h.signed(ctx, msg.Supporter); err != nil {
			return nil, err
		}
		paid, err := h.keeper.CompleteExit(ctx, db, msg.Supporter, msg.Campaign)
		if err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{Log: paid.String()}, nil
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unexpected %T", msg)
	}
}

func (h StakeHandler) signed(ctx harvest.Context, supporter harvest.Address) error {
	if !h.auth.HasAddress(ctx, supporter) {
		return errors.Wrap(errors.ErrUnauthorized, "supporter signature missing")
	}
	return nil
}
