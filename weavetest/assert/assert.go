package assert

import (
	"testing"

	"github.com/iov-one/harvest/errors"
)

// FieldError ensures that given error contains the exact match of a single
// field error, tested by its type (.Is method call).
// To test that no error was found for a given field name, use `nil` as the
// match value.
func FieldError(t testing.TB, err error, fieldName string, want *errors.Error) {
	t.Helper()

	errs := errors.FieldErrors(err, fieldName)

	if want == nil {
		if len(errs) != 0 {
			t.Fatalf("expected no error for %q field, got %q", fieldName, errs)
		}
		return
	}

	for _, e := range errs {
		if want.Is(e) {
			return
		}
	}
	t.Fatalf("%q error not found for %q field in %+v", want, fieldName, err)
}

// IsErr is a convenient helper that checks if the errors are a match
// and prints out the difference if not as well as failing the assertion.
func IsErr(t testing.TB, want, got error) {
	t.Helper()

	if want == got {
		return
	}

	type comparator interface {
		Is(error) bool
	}

	if want, ok := want.(comparator); ok && want.Is(got) {
		return
	}

	t.Fatalf("want %q, got %+v", want, got)
}
