package harvest

import (
	"sync"

	"github.com/iov-one/harvest/errors"
)

// Guard rejects re-entrant execution of operations that lock the same
// resource. A resource is held from Enter until the returned release
// function is called, which should always happen with defer.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewGuard returns a guard with no resource held.
func NewGuard() *Guard {
	return &Guard{busy: make(map[string]struct{})}
}

// Enter marks the resource as busy. It fails with ErrReentrancy if the
// resource is already held.
func (g *Guard) Enter(resource string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.busy[resource]; ok {
		return nil, errors.Wrapf(errors.ErrReentrancy, "resource %q", resource)
	}
	g.busy[resource] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, resource)
			g.mu.Unlock()
		})
	}, nil
}

// Held returns true if the resource is currently busy.
func (g *Guard) Held(resource string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[resource]
	return ok
}
