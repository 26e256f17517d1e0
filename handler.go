package harvest

import (
	"encoding/json"

	"github.com/iov-one/harvest/errors"
)

// Handler is a core engine that can process a few specific messages.
// This could represent "deposit into a vault", or "vote on a checkpoint".
type Handler interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like authentication, logging or savepoints, to many Handlers.
type Decorator interface {
	Deliver(ctx Context, store KVStore, tx Tx, next Handler) (*DeliverResult, error)
}

// Ticker is a method that is called the beginning of every block,
// which can be used to perform periodic or delayed tasks.
type Ticker interface {
	Tick(ctx Context, store KVStore) (*TickResult, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router.
type Registry interface {
	// Handle assigns given handler to process messages of the same type
	// as the given message.
	Handle(Msg, Handler)
}

// DeliverResult captures any non-error abci result
// to make sure people use error for error cases.
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity.
	Data []byte
	// Log is human-readable informational string.
	Log string
	// Events collected while processing the message.
	Events []Event
}

// TickResult is the outcome of a single ticker run.
type TickResult struct {
	// Log is human-readable informational string.
	Log string
	// Events collected while the ticker was running.
	Events []Event
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)

func (fn HandlerFunc) Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error) {
	return fn(ctx, store, tx)
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis %q: %s", key, err)
	}
	return nil
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// ChainInitializers will serialize multiple Initializers,
// so that each extension can initialize from genesis in a
// defined order.
func ChainInitializers(inits ...Initializer) Initializer {
	return chainInitializers(inits)
}

type chainInitializers []Initializer

func (c chainInitializers) FromGenesis(opts Options, kv KVStore) error {
	for _, i := range c {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
