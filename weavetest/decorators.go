package weavetest

import "github.com/iov-one/harvest"

// Decorator is a mock implementation of the harvest.Decorator interface.
//
// Set DeliverErr to force error response. If it is not set then wrapped
// handler is called and its result returned.
// Each method call is counted. Regardless of the method call result the
// counter is incremented.
type Decorator struct {
	deliverCall int
	// DeliverErr if set is returned by the Deliver method before calling
	// the wrapped handler.
	DeliverErr error
}

var _ harvest.Decorator = (*Decorator)(nil)

func (d *Decorator) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx, next harvest.Handler) (*harvest.DeliverResult, error) {
	d.deliverCall++

	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CallCount() int {
	return d.deliverCall
}

// Decorate returns a handler that calls the decorator first.
func Decorate(h harvest.Handler, d harvest.Decorator) harvest.Handler {
	return &decoratedHandler{hn: h, dc: d}
}

type decoratedHandler struct {
	hn harvest.Handler
	dc harvest.Decorator
}

var _ harvest.Handler = (*decoratedHandler)(nil)

func (d *decoratedHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	return d.dc.Deliver(ctx, db, tx, d.hn)
}
