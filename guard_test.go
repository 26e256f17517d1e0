package harvest

import (
	"testing"

	"github.com/iov-one/harvest/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	g := NewGuard()

	release, err := g.Enter("vault/1")
	require.NoError(t, err)
	assert.True(t, g.Held("vault/1"))

	_, err = g.Enter("vault/1")
	assert.True(t, errors.ErrReentrancy.Is(err))

	// Other resources are independent.
	releaseOther, err := g.Enter("vault/2")
	require.NoError(t, err)
	releaseOther()

	release()
	// Releasing twice is a no-op.
	release()
	assert.False(t, g.Held("vault/1"))

	release, err = g.Enter("vault/1")
	require.NoError(t, err)
	release()
}

func TestGuardReleasedOnPanic(t *testing.T) {
	g := NewGuard()
	run := func() (err error) {
		defer errors.Recover(&err)
		release, err := g.Enter("res")
		if err != nil {
			return err
		}
		defer release()
		panic("boom")
	}
	assert.True(t, errors.ErrPanic.Is(run()))
	assert.False(t, g.Held("res"))
}
