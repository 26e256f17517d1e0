package x_test

import (
	"context"
	"testing"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/weavetest"
	"github.com/iov-one/harvest/x"
	"github.com/stretchr/testify/assert"
)

func TestMultiAuth(t *testing.T) {
	a := weavetest.NewCondition()
	b := weavetest.NewCondition()
	c := weavetest.NewCondition()

	first := &weavetest.CtxAuth{Key: "first"}
	second := &weavetest.CtxAuth{Key: "second"}
	auth := x.ChainAuth(first, second)

	ctx := context.Background()
	ctx = first.SetConditions(ctx, a)
	ctx = second.SetConditions(ctx, b)

	assert.Equal(t, []harvest.Condition{a, b}, auth.GetConditions(ctx))
	assert.True(t, auth.HasAddress(ctx, a.Address()))
	assert.True(t, auth.HasAddress(ctx, b.Address()))
	assert.False(t, auth.HasAddress(ctx, c.Address()))

	assert.Equal(t, a, x.MainSigner(ctx, auth))
	assert.Equal(t, a.Address(), x.AnySigner(ctx, auth))
	assert.Equal(t, []harvest.Address{a.Address(), b.Address()}, x.GetAddresses(ctx, auth))
	assert.True(t, x.HasAllAddresses(ctx, auth, []harvest.Address{a.Address(), b.Address()}))
	assert.False(t, x.HasAllAddresses(ctx, auth, []harvest.Address{a.Address(), c.Address()}))

	empty := context.Background()
	assert.Nil(t, x.MainSigner(empty, auth))
	assert.Nil(t, x.AnySigner(empty, auth))
}
