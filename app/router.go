package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-z0-9_]+(/[a-z0-9_]+)*$`).MatchString

// Router allows us to register many handlers with different paths and
// then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]harvest.Handler
}

var (
	_ harvest.Registry = (*Router)(nil)
	_ harvest.Handler  = (*Router)(nil)
)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]harvest.Handler),
	}
}

// Handle adds a new Handler for the given msg type. Registering a path
// twice or an invalid path panics.
func (r *Router) Handle(msg harvest.Msg, h harvest.Handler) {
	path := msg.Path()
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this path. If no path is found,
// returns a noSuchPath Handler. Always returns a non-nil Handler.
func (r *Router) handler(m harvest.Msg) harvest.Handler {
	path := m.Path()
	if h, ok := r.routes[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Deliver dispatches to the handler registered for the message path.
func (r *Router) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Deliver(ctx, db, tx)
}

// notFoundHandler always returns ErrNotFound
type notFoundHandler string

func (path notFoundHandler) Deliver(harvest.Context, harvest.KVStore, harvest.Tx) (*harvest.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
