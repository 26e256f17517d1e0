package harvest

import (
	"context"
	"fmt"
	"sync"

	"github.com/tendermint/tendermint/libs/common"
)

// Event is a notification emitted by a state transition. Events of an
// operation that failed are never published.
type Event struct {
	Kind       string
	Attributes []common.KVPair
}

// NewEvent returns an event of given kind. Attributes are provided as
// key/value pairs. An odd number of attribute values is a coding error.
func NewEvent(kind string, keyvals ...string) Event {
	if len(keyvals)%2 != 0 {
		panic(fmt.Sprintf("event %q: odd number of attribute values", kind))
	}
	ev := Event{Kind: kind}
	for i := 0; i < len(keyvals); i += 2 {
		ev.Attributes = append(ev.Attributes, common.KVPair{
			Key:   []byte(keyvals[i]),
			Value: []byte(keyvals[i+1]),
		})
	}
	return ev
}

// Attr returns the value of the first attribute with given key.
func (e Event) Attr(key string) (string, bool) {
	for _, kv := range e.Attributes {
		if string(kv.Key) == key {
			return string(kv.Value), true
		}
	}
	return "", false
}

// EventRecorder collects events emitted while processing an operation.
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
}

// Record appends given events.
func (r *EventRecorder) Record(evs ...Event) {
	r.mu.Lock()
	r.events = append(r.events, evs...)
	r.mu.Unlock()
}

// Events returns all recorded events in the order they were emitted.
func (r *EventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	cpy := make([]Event, len(r.events))
	copy(cpy, r.events)
	return cpy
}

// WithEventRecorder returns a context that collects all emitted events in
// a new recorder.
func WithEventRecorder(ctx Context) (Context, *EventRecorder) {
	rec := &EventRecorder{}
	return context.WithValue(ctx, contextKeyEvents, rec), rec
}

// EmitEvent records given events in the context recorder. Events are
// dropped when the context does not carry a recorder.
func EmitEvent(ctx Context, evs ...Event) {
	if rec, ok := ctx.Value(contextKeyEvents).(*EventRecorder); ok {
		rec.Record(evs...)
	}
}
