package weavetest

import "github.com/iov-one/harvest"

// Handler is a mock implementation of the harvest.Handler interface.
//
// Set DeliverErr to force an error response. Each call is counted.
type Handler struct {
	deliverCall   int
	DeliverResult harvest.DeliverResult
	DeliverErr    error
}

var _ harvest.Handler = (*Handler)(nil)

func (h *Handler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CallCount() int {
	return h.deliverCall
}

// WriteHandler writes the key value pair into the store before returning
// the configured error.
type WriteHandler struct {
	Key   []byte
	Value []byte
	Err   error
}

var _ harvest.Handler = (*WriteHandler)(nil)

func (h *WriteHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	if h.Err != nil {
		return nil, h.Err
	}
	return &harvest.DeliverResult{}, nil
}

// PanicHandler panics with the given value when called.
type PanicHandler struct {
	Value interface{}
}

func (h PanicHandler) Deliver(harvest.Context, harvest.KVStore, harvest.Tx) (*harvest.DeliverResult, error) {
	panic(h.Value)
}
