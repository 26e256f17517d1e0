package harvest

import (
	"reflect"

	"github.com/iov-one/harvest/errors"
)

// Marshaller is anything that can be represented in binary
//
// Marshal may validate the data before serializing it and
// unless you previously validated the struct,
// errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal
//
// This is separated from Marshal, as this requires a pointer
// receiver to allow Unmarshalling, while marshal can use a value.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Msg is message for the blockchain to take an action
// (Make a state transition). It is just the data, and must be
// authorized by the transaction envelope.
type Msg interface {
	Persistent

	// Path returns a path that identifies the type of the message.
	// It is used to route messages to their handlers.
	Path() string

	// Validate performs a sanity checks on this message. It returns an
	// error if at least one test does not pass and message is considered
	// invalid.
	Validate() error
}

// Tx represent the data sent from the user to the chain.
// It includes the actual message, along with information needed
// to authenticate the sender.
type Tx interface {
	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}

	// Big reflection magic is about to happen. Leave all hope behind.
	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrType, "destination must be a pointer")
	}
	src := reflect.ValueOf(msg)
	if src.Kind() == reflect.Ptr && !src.Type().AssignableTo(dest.Elem().Type()) {
		src = src.Elem()
	}
	if !src.Type().AssignableTo(dest.Elem().Type()) {
		return errors.Wrapf(errors.ErrType, "cannot assign %T to %T", msg, destination)
	}
	dest.Elem().Set(src)

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}
