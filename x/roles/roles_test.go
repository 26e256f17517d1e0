package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/store"
	"github.com/iov-one/harvest/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreOracleFromGenesis(t *testing.T) {
	gov := weavetest.NewCondition().Address()
	guard := weavetest.NewCondition().Address()

	genesis := fmt.Sprintf(`{"roles": [
		{"role": "governor", "address": %q},
		{"role": "guardian", "address": %q}
	]}`, gov.String(), guard.String())
	var opts harvest.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	require.NoError(t, Initializer{}.FromGenesis(opts, db))

	oracle := NewStoreOracle()
	assert.True(t, oracle.HasRole(db, Governor, gov))
	assert.False(t, oracle.HasRole(db, Guardian, gov))
	assert.True(t, oracle.HasRole(db, Guardian, guard))
	assert.False(t, oracle.HasRole(db, Curator, guard))
	assert.False(t, oracle.HasRole(db, Governor, nil))
}

func TestGenesisRejectsUnknownRole(t *testing.T) {
	addr := weavetest.NewCondition().Address()
	genesis := fmt.Sprintf(`{"roles": [{"role": "king", "address": %q}]}`, addr.String())
	var opts harvest.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))

	err := Initializer{}.FromGenesis(opts, store.MemStore())
	assert.True(t, errors.ErrInput.Is(err))
}

func TestRequire(t *testing.T) {
	gov := weavetest.NewCondition()
	other := weavetest.NewCondition()
	oracle := StaticOracle{Governor: {gov.Address()}}
	auth := &weavetest.CtxAuth{Key: "auth"}
	db := store.MemStore()

	cases := map[string]struct {
		signers []harvest.Condition
		role    Role
		wantErr *errors.Error
	}{
		"governor signed": {
			signers: []harvest.Condition{gov},
			role:    Governor,
		},
		"governor among other signers": {
			signers: []harvest.Condition{other, gov},
			role:    Governor,
		},
		"wrong role": {
			signers: []harvest.Condition{gov},
			role:    Curator,
			wantErr: errors.ErrUnauthorized,
		},
		"not signed": {
			role:    Governor,
			wantErr: errors.ErrUnauthorized,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := auth.SetConditions(context.Background(), tc.signers...)
			addr, err := Require(ctx, db, oracle, auth, tc.role)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				assert.Equal(t, gov.Address(), addr)
			}
		})
	}
}
