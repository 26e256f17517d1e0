package payout

import (
	"math/rand"
	"testing"
	"time"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeIncreaseTimelock(t *testing.T) {
	f := newFixture(t, 250, nil)
	newTreasury := weavetest.NewCondition().Address()

	id, err := f.router.ProposeFeeChange(f.ctx(), f.db, f.governor.Address(), 400, newTreasury)
	require.NoError(t, err)
	require.NotNil(t, id)

	policy, err := f.router.FeePolicy(f.db)
	require.NoError(t, err)
	assert.Equal(t, harvest.Ratio(250), policy.Ratio, "increase must wait")

	week := 7 * 24 * time.Hour
	err = f.router.ExecuteFeeChange(f.ctxAt(f.now.Add(week-time.Second)), f.db, id)
	if !ErrTimelockNotExpired.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	require.NoError(t, f.router.ExecuteFeeChange(f.ctxAt(f.now.Add(week)), f.db, id))
	policy, err = f.router.FeePolicy(f.db)
	require.NoError(t, err)
	assert.Equal(t, harvest.Ratio(400), policy.Ratio)
	assert.Equal(t, newTreasury, policy.Recipient)

	err = f.router.ExecuteFeeChange(f.ctxAt(f.now.Add(week)), f.db, id)
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("proposal must be removed: %+v", err)
	}
}

func TestProposeFeeChange(t *testing.T) {
	treasury := weavetest.NewCondition().Address()

	cases := map[string]struct {
		ratio       harvest.Ratio
		recipient   harvest.Address
		asGovernor  bool
		wantErr     *errors.Error
		wantPending bool
		wantRatio   harvest.Ratio
	}{
		"decrease is applied at once": {
			ratio:      100,
			recipient:  treasury,
			asGovernor: true,
			wantRatio:  100,
		},
		"equal ratio changes the recipient at once": {
			ratio:      250,
			recipient:  treasury,
			asGovernor: true,
			wantRatio:  250,
		},
		"drop to zero without a recipient": {
			ratio:      0,
			asGovernor: true,
			wantRatio:  0,
		},
		"increase within the step is pending": {
			ratio:       500,
			recipient:   treasury,
			asGovernor:  true,
			wantPending: true,
			wantRatio:   250,
		},
		"increase above the step": {
			ratio:      501,
			recipient:  treasury,
			asGovernor: true,
			wantErr:    ErrFeeIncreaseTooLarge,
			wantRatio:  250,
		},
		"above the maximum": {
			ratio:      1001,
			recipient:  treasury,
			asGovernor: true,
			wantErr:    ErrFeeTooHigh,
			wantRatio:  250,
		},
		"missing recipient": {
			ratio:      100,
			asGovernor: true,
			wantErr:    errors.ErrEmpty,
			wantRatio:  250,
		},
		"not a governor": {
			ratio:     100,
			recipient: treasury,
			wantErr:   errors.ErrUnauthorized,
			wantRatio: 250,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 250, nil)
			caller := weavetest.NewCondition().Address()
			if tc.asGovernor {
				caller = f.governor.Address()
			}
			ctx, rec := harvest.WithEventRecorder(f.ctx())
			id, err := f.router.ProposeFeeChange(ctx, f.db, caller, tc.ratio, tc.recipient)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			assert.Equal(t, tc.wantPending, id != nil)

			policy, err := f.router.FeePolicy(f.db)
			require.NoError(t, err)
			assert.Equal(t, tc.wantRatio, policy.Ratio)

			if tc.wantErr != nil {
				assert.Empty(t, rec.Events())
				return
			}
			require.Len(t, rec.Events(), 1)
			if tc.wantPending {
				assert.Equal(t, "payout/fee_proposed", rec.Events()[0].Kind)
			} else {
				assert.Equal(t, "payout/fee_executed", rec.Events()[0].Kind)
			}
		})
	}
}

func TestExecuteRechecksBounds(t *testing.T) {
	f := newFixture(t, 250, nil)
	treasury := weavetest.NewCondition().Address()

	id, err := f.router.ProposeFeeChange(f.ctx(), f.db, f.governor.Address(), 500, treasury)
	require.NoError(t, err)
	_, err = f.router.ProposeFeeChange(f.ctx(), f.db, f.governor.Address(), 100, treasury)
	require.NoError(t, err)

	later := f.ctxAt(f.now.Add(8 * 24 * time.Hour))
	err = f.router.ExecuteFeeChange(later, f.db, id)
	if !ErrFeeIncreaseTooLarge.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	_, err = f.router.Proposal(f.db, id)
	require.NoError(t, err, "failed execution keeps the proposal")
}

func TestCancelFeeChange(t *testing.T) {
	f := newFixture(t, 250, nil)
	treasury := weavetest.NewCondition().Address()
	id, err := f.router.ProposeFeeChange(f.ctx(), f.db, f.governor.Address(), 300, treasury)
	require.NoError(t, err)

	err = f.router.CancelFeeChange(f.ctx(), f.db, f.curator.Address(), id)
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	require.NoError(t, f.router.CancelFeeChange(f.ctx(), f.db, f.governor.Address(), id))

	err = f.router.ExecuteFeeChange(f.ctxAt(f.now.Add(30*24*time.Hour)), f.db, id)
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	err = f.router.CancelFeeChange(f.ctx(), f.db, f.governor.Address(), id)
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// Whatever governors propose and whenever proposals are executed, the
// applied fee stays below the maximum and never jumps by more than a step.
func TestFeeBoundsHoldForAnySequence(t *testing.T) {
	f := newFixture(t, 250, nil)
	conf, err := f.router.Config(f.db)
	require.NoError(t, err)
	treasury := weavetest.NewCondition().Address()
	rnd := rand.New(rand.NewSource(42))

	now := f.now
	var pending [][]byte
	applied := harvest.Ratio(250)
	for i := 0; i < 300; i++ {
		now = now.Add(time.Duration(rnd.Intn(72)) * time.Hour)
		ctx := f.ctxAt(now)

		if rnd.Intn(2) == 0 {
			ratio := harvest.Ratio(rnd.Intn(1400))
			id, err := f.router.ProposeFeeChange(ctx, f.db, f.governor.Address(), ratio, treasury)
			if err == nil && id != nil {
				pending = append(pending, id)
			}
		} else if len(pending) > 0 {
			n := rnd.Intn(len(pending))
			_ = f.router.ExecuteFeeChange(ctx, f.db, pending[n])
		}

		policy, err := f.router.FeePolicy(f.db)
		require.NoError(t, err)
		require.True(t, policy.Ratio <= conf.MaxFee, "fee %s above maximum", policy.Ratio)
		if policy.Ratio > applied {
			require.True(t, policy.Ratio-applied <= conf.MaxStep, "step from %s to %s", applied, policy.Ratio)
		}
		applied = policy.Ratio
	}
}
