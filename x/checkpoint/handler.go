package checkpoint

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x"
	"github.com/iov-one/harvest/x/roles"
)

// RegisterRoutes registers the checkpoint handlers.
func RegisterRoutes(r harvest.Registry, auth x.Authenticator, e *Engine) {
	curator := CuratorHandler{auth: auth, engine: e}
	r.Handle(&ScheduleMsg{}, curator)
	r.Handle(&FinalizeMsg{}, curator)
	r.Handle(&ExecuteMsg{}, curator)
	r.Handle(&CancelMsg{}, curator)
	r.Handle(&VoteMsg{}, VoteHandler{auth: auth, engine: e})
}

// CuratorHandler processes the messages that drive the checkpoint
// lifecycle.
type CuratorHandler struct {
	auth   x.Authenticator
	engine *Engine
}

var _ harvest.Handler = CuratorHandler{}

func (h CuratorHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate msg")
	}
	caller, err := roles.Require(ctx, db, h.engine.oracle, h.auth, roles.Curator)
	if err != nil {
		return nil, err
	}

	switch msg := msg.(type) {
	case *ScheduleMsg:
		index, err := h.engine.Schedule(ctx, db, caller, msg.Campaign, msg.WindowStart, msg.WindowEnd, msg.Quorum)
		if err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{Data: orm.EncodeSequence(index)}, nil
	case *FinalizeMsg:
		status, err := h.engine.Finalize(ctx, db, caller, msg.Campaign, msg.Index)
		if err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{Log: status.String()}, nil
	case *ExecuteMsg:
		if err := h.engine.Execute(ctx, db, caller, msg.Campaign, msg.Index); err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{}, nil
	case *CancelMsg:
		if err := h.engine.Cancel(ctx, db, caller, msg.Campaign, msg.Index); err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{}, nil
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unexpected %T", msg)
	}
}

// VoteHandler casts votes signed by the voter.
type VoteHandler struct {
	auth   x.Authenticator
	engine *Engine
}

var _ harvest.Handler = VoteHandler{}

func (h VoteHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	var msg VoteMsg
	if err := harvest.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Voter) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "voter signature missing")
	}
	if err := h.engine.Vote(ctx, db, msg.Voter, msg.Campaign, msg.Index, msg.Support); err != nil {
		return nil, err
	}
	return &harvest.DeliverResult{}, nil
}
