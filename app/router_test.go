package app

import (
	"testing"

	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/weavetest"
	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	r := NewRouter()

	good := &weavetest.Msg{RoutePath: "vault/deposit"}
	bad := &weavetest.Msg{RoutePath: "vault/redeem"}
	missing := &weavetest.Msg{RoutePath: "vault/unknown"}

	counter := &weavetest.Handler{}
	r.Handle(good, counter)
	r.Handle(bad, &weavetest.Handler{DeliverErr: errors.ErrUnauthorized})

	assert.Panics(t, func() { r.Handle(good, counter) })
	assert.Panics(t, func() { r.Handle(&weavetest.Msg{RoutePath: "vault:deposit"}, counter) })

	_, err := r.Deliver(nil, nil, &weavetest.Tx{Msg: good})
	assert.NoError(t, err)
	assert.Equal(t, 1, counter.CallCount())

	_, err = r.Deliver(nil, nil, &weavetest.Tx{Msg: bad})
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	_, err = r.Deliver(nil, nil, &weavetest.Tx{Msg: missing})
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	_, err = r.Deliver(nil, nil, &weavetest.Tx{Err: errors.ErrInput})
	if !errors.ErrInput.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	assert.Equal(t, 1, counter.CallCount())
}
