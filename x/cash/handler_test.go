package cash

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/store"
	"github.com/iov-one/harvest/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendHandler(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()

	genesis := fmt.Sprintf(`{"cash": [{"address": %q, "coins": ["100 USDC", "3.5 DAI"]}]}`, alice.Address())
	var opts harvest.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))

	amount := coin.NewCoin(40, 0, "USDC")
	cases := map[string]struct {
		signer  harvest.Condition
		msg     *SendMsg
		wantErr *errors.Error
		wantBob coin.Coin
	}{
		"owner sends": {
			signer: alice,
			msg: &SendMsg{
				Metadata:    &harvest.Metadata{Schema: 1},
				Source:      alice.Address(),
				Destination: bob.Address(),
				Amount:      &amount,
			},
			wantBob: amount,
		},
		"not signed by the owner": {
			signer: bob,
			msg: &SendMsg{
				Metadata:    &harvest.Metadata{Schema: 1},
				Source:      alice.Address(),
				Destination: bob.Address(),
				Amount:      &amount,
			},
			wantErr: errors.ErrUnauthorized,
		},
		"missing amount": {
			signer: alice,
			msg: &SendMsg{
				Metadata:    &harvest.Metadata{Schema: 1},
				Source:      alice.Address(),
				Destination: bob.Address(),
			},
			wantErr: errors.ErrAmount,
		},
		"missing metadata": {
			signer: alice,
			msg: &SendMsg{
				Source:      alice.Address(),
				Destination: bob.Address(),
				Amount:      &amount,
			},
			wantErr: errors.ErrMetadata,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			require.NoError(t, Initializer{}.FromGenesis(opts, db))

			auth := &weavetest.Auth{Signer: tc.signer}
			h := NewSendHandler(auth, NewController())
			_, err := h.Deliver(context.Background(), db, &weavetest.Tx{Msg: tc.msg})
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			got, err := NewController().Balance(db, bob.Address(), "USDC")
			require.NoError(t, err)
			assert.Equal(t, tc.wantBob, got)

			dai, err := NewController().Balance(db, alice.Address(), "DAI")
			require.NoError(t, err)
			assert.Equal(t, coin.NewCoin(3, 500000000, "DAI"), dai)
		})
	}
}
