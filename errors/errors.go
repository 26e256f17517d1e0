package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized is used whenever a request without sufficient
	// authorization is handled.
	ErrUnauthorized = Register(2, "unauthorized").Of(Authorization)

	// ErrNotFound is used when a requested operation cannot be completed
	// due to missing data.
	ErrNotFound = Register(3, "not found").Of(State)

	// ErrMsg is returned whenever a message is invalid and cannot be
	// handled.
	ErrMsg = Register(4, "invalid message").Of(Validation)

	// ErrModel is returned whenever a model is invalid and cannot be
	// persisted.
	ErrModel = Register(5, "invalid model").Of(Validation)

	// ErrDuplicate is returned when there is a record already that has
	// the same unique key.
	ErrDuplicate = Register(6, "duplicate").Of(State)

	// ErrHuman is returned when the application reaches a code path which
	// should never be reached if the code was written as expected.
	ErrHuman = Register(7, "coding error")

	// ErrEmpty is returned when a value fails a not empty assertion.
	ErrEmpty = Register(9, "value is empty").Of(Validation)

	// ErrState is returned when an object is in invalid state.
	ErrState = Register(10, "invalid state").Of(State)

	// ErrType is returned whenever the type is not what was expected.
	ErrType = Register(11, "invalid type")

	// ErrAmount stands for an invalid or insufficient amount of whatever.
	ErrAmount = Register(13, "invalid amount").Of(Validation)

	// ErrInput stands for general input problems indication.
	ErrInput = Register(14, "invalid input").Of(Validation)

	// ErrExpired stands for expired entities, normally has to do with
	// block time expirations.
	ErrExpired = Register(15, "expired").Of(Timing)

	// ErrOverflow is returned when a computation cannot be completed
	// because the result value exceeds the type.
	ErrOverflow = Register(16, "an operation cannot be completed due to value overflow")

	// ErrCurrency is returned when the currency of an amount does not
	// match the expected one.
	ErrCurrency = Register(17, "invalid currency").Of(Validation)

	// ErrDatabase is returned whenever the underlying storage fails.
	ErrDatabase = Register(18, "database")

	// ErrIteratorDone is returned by an iterator when there are no more
	// elements to visit.
	ErrIteratorDone = Register(19, "iterator done")

	// ErrReentrancy is returned when an operation is entered again
	// while it is still running for the same resource.
	ErrReentrancy = Register(20, "reentrant call").Of(State)

	// ErrSchema is returned when a persisted model schema version is not
	// supported by the running code.
	ErrSchema = Register(21, "invalid schema version")

	// ErrMetadata is returned when the metadata of a model or message
	// is missing or invalid.
	ErrMetadata = Register(22, "invalid metadata").Of(Validation)

	// ErrPanic is only set when we recover from a panic, so we know to
	// redact potentially sensitive system info.
	ErrPanic = Register(111222, "panic")
)

// Kind classifies root errors into families that a client can react to
// without knowing every individual error code.
type Kind uint8

const (
	// Internal is assigned to every error that was not classified.
	Internal Kind = iota
	// Validation errors describe a malformed request: zero amounts,
	// ratios out of range, empty identifiers.
	Validation
	// Authorization errors are returned when the caller lacks a role or
	// is not the owner of the resource.
	Authorization
	// EconomicGuard errors are raised by a protective bound: too few
	// units minted, excessive loss or slippage, a fee step too large.
	EconomicGuard
	// Timing errors are returned when an action is attempted outside of
	// the time window in which it is allowed.
	Timing
	// State errors are returned when the target is in a state that
	// forbids the action.
	State
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authorization:
		return "authorization"
	case EconomicGuard:
		return "economic_guard"
	case Timing:
		return "timing"
	case State:
		return "state"
	default:
		return "internal"
	}
}

// Register returns an error instance that should be used as the base for
// creating error instances during runtime.
//
// Popular root errors are declared in this package, but extensions may want to
// declare custom codes. This function ensures that no error code is used
// twice. Attempt to reuse an error code results in panic.
//
// Use this function only during a program startup phase.
func Register(code uint32, description string) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{
		code: code,
		desc: description,
	}
	usedCodes[err.code] = err
	return err
}

// usedCodes is keeping track of used codes to ensure their uniqueness. No two
// error instances should share the same error code.
var usedCodes = map[uint32]*Error{
	1: nil, // Error code 1 is restricted for unclassified errors.
}

// Error represents a root error.
//
// Root errors categorize issues. Each instance created during the runtime
// should wrap one of the declared root errors. This allows error tests and
// returning all errors to the client in a safe manner.
type Error struct {
	code uint32
	desc string
	kind Kind
}

// Of sets the kind of a root error. It returns the same instance so that it
// can be chained with Register during a variable declaration.
func (e *Error) Of(k Kind) *Error {
	e.kind = k
	return e
}

func (e Error) Error() string {
	return e.desc
}

func (e Error) ABCICode() uint32 {
	return e.code
}

// Kind returns the family this root error belongs to.
func (e Error) Kind() Kind {
	return e.kind
}

// New returns a new error. Returned instance is having the root cause set to
// this error. Below two lines are equal
//
//	e.New("my description")
//	Wrap(e, "my description")
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is basically New with formatting capabilities.
func (e *Error) Newf(description string, args ...interface{}) error {
	return e.New(fmt.Sprintf(description, args...))
}

// Is check if given error instance is of a given kind/type. This involves
// unwrapping given error using the Cause method if available.
func (e *Error) Is(err error) bool {
	// Reflect usage is necessary to correctly compare with
	// a nil implementation of an error.
	if e == nil {
		return isNilErr(err)
	}

	for {
		if err == e {
			return true
		}

		// Unpacking of the multi error is checking all of the
		// contained errors.
		if u, ok := err.(unpacker); ok {
			for _, er := range u.Unpack() {
				if e.Is(er) {
					return true
				}
			}
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return false
		}
	}
}

// KindOf returns the kind of the root error that given error wraps. Errors
// that do not wrap a registered root error are Internal.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.kind
		}
		if u, ok := err.(unpacker); ok {
			if errs := u.Unpack(); len(errs) > 0 {
				err = errs[0]
				continue
			}
		}
		c, ok := err.(causer)
		if !ok {
			return Internal
		}
		err = c.Cause()
	}
	return Internal
}

// Wrap extends given error with an additional information.
//
// If the wrapped error does not provide ABCICode method (ie. stdlib errors),
// it will be labeled as internal error.
//
// If err is nil, this returns nil, avoiding the need for an if statement when
// wrapping a error returned at the end of a function
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}

	// If this error does not carry the stacktrace information yet, attach
	// one. This should be done only once per error at the lowest frame
	// possible (most inner wrap).
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	return &wrappedError{
		parent: err,
		msg:    description,
	}
}

// Wrapf extends given error with an additional information.
//
// This function works like Wrap function with additional funtionality of
// formatting the input as specified.
func Wrapf(err error, format string, args ...interface{}) error {
	desc := fmt.Sprintf(format, args...)
	return Wrap(err, desc)
}

type wrappedError struct {
	// This error layer description.
	msg string
	// The underlying error that triggered this one.
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Recover captures a panic and stop its propagation. If panic happens it is
// transformed into a ErrPanic instance and assigned to given error. Call this
// function using defer in order to work as expected.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

// causer is an interface implemented by an error that supports wrapping. Use
// it to test if an error wraps another error instance.
type causer interface {
	Cause() error
}

type unpacker interface {
	Unpack() []error
}

// isNilErr returns true if value represented by the given error is nil.
//
// Most of the time a simple == check is enough. There is a very narrowed
// spectrum of cases (mostly in tests) where a more sophisticated check is
// required.
func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	if val := reflect.ValueOf(err); val.Kind() == reflect.Ptr {
		return val.IsNil()
	}
	return false
}
