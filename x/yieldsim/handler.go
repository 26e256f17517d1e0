package yieldsim

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x"
	"github.com/iov-one/harvest/x/roles"
)

// RegisterRoutes registers the venue controls. All of them require the
// governor role.
func RegisterRoutes(r harvest.Registry, auth x.Authenticator, oracle roles.Oracle, venues ...*Venue) {
	h := ControlHandler{
		auth:   auth,
		oracle: oracle,
		venues: make(map[string]*Venue, len(venues)),
	}
	for _, v := range venues {
		h.venues[v.Name()] = v
	}
	r.Handle(&AccrueMsg{}, h)
	r.Handle(&SlashMsg{}, h)
	r.Handle(&SetHaircutMsg{}, h)
}

type ControlHandler struct {
	auth   x.Authenticator
	oracle roles.Oracle
	venues map[string]*Venue
}

var _ harvest.Handler = ControlHandler{}

func (h ControlHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate msg")
	}
	if _, err := roles.Require(ctx, db, h.oracle, h.auth, roles.Governor); err != nil {
		return nil, err
	}

	switch msg := msg.(type) {
	case *AccrueMsg:
		v, err := h.venue(msg.Venue)
		if err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{}, v.Accrue(ctx, db, *msg.Amount)
	case *SlashMsg:
		v, err := h.venue(msg.Venue)
		if err != nil {
			return nil, err
		}
		slashed, err := v.Slash(ctx, db, *msg.Amount)
		if err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{Log: slashed.String()}, nil
	case *SetHaircutMsg:
		v, err := h.venue(msg.Venue)
		if err != nil {
			return nil, err
		}
		return &harvest.DeliverResult{}, v.SetHaircut(ctx, db, msg.Haircut)
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unsupported message %T", msg)
	}
}

func (h ControlHandler) venue(name string) (*Venue, error) {
	v, ok := h.venues[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "venue %q", name)
	}
	return v, nil
}
