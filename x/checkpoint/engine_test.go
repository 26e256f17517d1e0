package checkpoint

import (
	"fmt"
	"math/big"
	"math/rand"
	"testing"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/store"
	"github.com/iov-one/harvest/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioLateStakeCannotVote(t *testing.T) {
	f := newFixture(t)
	alice := f.stakeAt(2, hrv(100))
	index := f.schedule(100, 300, 4000)

	res := f.tick(100)
	assert.Equal(t, "opened trees/1", res.Log)
	c := f.checkpoint(index)
	assert.Equal(t, Status_Voting, c.Status)
	assert.Equal(t, int64(99), c.SnapshotHeight)
	assert.Equal(t, hrv(100), *c.TotalEligible)

	mallory := f.stakeAt(101, hrv(1000000))
	err := f.engine.Vote(f.at(102), f.db, mallory, "trees", index, true)
	if !ErrNotEligible.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	require.NoError(t, f.engine.Vote(f.at(102), f.db, alice, "trees", index, true))
	c = f.checkpoint(index)
	assert.Equal(t, hrv(100), *c.VotesFor)
	assert.Equal(t, hrv(100), *c.TotalEligible)
}

func TestFlashStakeNeverVotes(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		stakeHeight := 100 + r.Int63n(150)
		voteHeight := stakeHeight + r.Int63n(300-stakeHeight)
		amount := hrv(1 + r.Int63n(1e9))

		t.Run(fmt.Sprintf("stake %s at %d vote at %d", amount, stakeHeight, voteHeight), func(t *testing.T) {
			f := newFixture(t)
			f.stakeAt(2, hrv(10))
			index := f.schedule(100, 300, 1)
			f.tick(100)

			attacker := f.stakeAt(stakeHeight, amount)
			err := f.engine.Vote(f.at(voteHeight), f.db, attacker, "trees", index, true)
			if !ErrNotEligible.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestVoteWeightIsPinnedToSnapshot(t *testing.T) {
	f := newFixture(t)
	alice := f.stakeAt(2, hrv(100))
	index := f.schedule(100, 300, 4000)
	f.tick(100)

	require.NoError(t, f.ctrl.IssueCoins(f.db, alice, hrv(900)))
	require.NoError(t, f.stakes.AddStake(f.at(101), f.db, alice, "trees", hrv(900)))
	require.NoError(t, f.engine.Vote(f.at(102), f.db, alice, "trees", index, false))

	receipt, err := f.engine.Receipt(f.db, "trees", index, alice)
	require.NoError(t, err)
	assert.Equal(t, hrv(100), *receipt.Weight)
	assert.False(t, receipt.Support)
	assert.Equal(t, hrv(100), *f.checkpoint(index).VotesAgainst)
}

func TestEligibilityAge(t *testing.T) {
	f := newFixture(t)
	// Staked 50 seconds before the window, eligible ten seconds into it.
	bob := f.stakeAt(90, hrv(10))
	index := f.schedule(100, 300, 4000)
	f.tick(100)

	err := f.engine.Vote(f.at(101), f.db, bob, "trees", index, true)
	if !ErrNotEligible.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	require.NoError(t, f.engine.Vote(f.at(102), f.db, bob, "trees", index, true))
}

func TestVoteErrors(t *testing.T) {
	cases := map[string]struct {
		run     func(f *fixture, index int64) error
		wantErr *errors.Error
	}{
		"before opening": {
			run: func(f *fixture, index int64) error {
				voter := f.stakeAt(2, hrv(10))
				return f.engine.Vote(f.at(50), f.db, voter, "trees", index, true)
			},
			wantErr: ErrVotingNotOpen,
		},
		"after the window": {
			run: func(f *fixture, index int64) error {
				voter := f.stakeAt(2, hrv(10))
				f.tick(100)
				return f.engine.Vote(f.at(300), f.db, voter, "trees", index, true)
			},
			wantErr: ErrVotingNotOpen,
		},
		"twice": {
			run: func(f *fixture, index int64) error {
				voter := f.stakeAt(2, hrv(10))
				f.tick(100)
				if err := f.engine.Vote(f.at(101), f.db, voter, "trees", index, true); err != nil {
					return err
				}
				return f.engine.Vote(f.at(102), f.db, voter, "trees", index, false)
			},
			wantErr: ErrAlreadyVoted,
		},
		"without stake": {
			run: func(f *fixture, index int64) error {
				f.tick(100)
				return f.engine.Vote(f.at(101), f.db, weavetest.NewCondition().Address(), "trees", index, true)
			},
			wantErr: ErrNoVotingPower,
		},
		"exiting stake": {
			run: func(f *fixture, index int64) error {
				voter := f.stakeAt(2, hrv(10))
				f.tick(100)
				if err := f.stakes.RequestExit(f.at(101), f.db, voter, "trees"); err != nil {
					return err
				}
				return f.engine.Vote(f.at(102), f.db, voter, "trees", index, true)
			},
			wantErr: ErrNoVotingPower,
		},
		"unknown checkpoint": {
			run: func(f *fixture, index int64) error {
				voter := f.stakeAt(2, hrv(10))
				return f.engine.Vote(f.at(101), f.db, voter, "trees", index+1, true)
			},
			wantErr: errors.ErrNotFound,
		},
		"canceled": {
			run: func(f *fixture, index int64) error {
				voter := f.stakeAt(2, hrv(10))
				f.tick(100)
				if err := f.engine.Cancel(f.at(101), f.db, f.curator, "trees", index); err != nil {
					return err
				}
				return f.engine.Vote(f.at(102), f.db, voter, "trees", index, true)
			},
			wantErr: ErrVotingNotOpen,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			index := f.schedule(100, 300, 4000)
			if err := tc.run(f, index); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestSchedule(t *testing.T) {
	cases := map[string]struct {
		caller  func(f *fixture) harvest.Address
		start   int64
		end     int64
		quorum  harvest.Ratio
		wantErr *errors.Error
	}{
		"valid": {
			caller: func(f *fixture) harvest.Address { return f.curator },
			start:  100, end: 300, quorum: 5000,
		},
		"starts now": {
			caller: func(f *fixture) harvest.Address { return f.curator },
			start:  1, end: 300, quorum: 5000,
		},
		"not a curator": {
			caller: func(*fixture) harvest.Address { return weavetest.NewCondition().Address() },
			start:  100, end: 300, quorum: 5000,
			wantErr: errors.ErrUnauthorized,
		},
		"in the past": {
			caller: func(f *fixture) harvest.Address { return f.curator },
			start:  0, end: 300, quorum: 5000,
			wantErr: errors.ErrInput,
		},
		"window too short": {
			caller: func(f *fixture) harvest.Address { return f.curator },
			start:  100, end: 111, quorum: 5000,
			wantErr: errors.ErrInput,
		},
		"window too long": {
			caller: func(f *fixture) harvest.Address { return f.curator },
			start:  100, end: 100 + 17281, quorum: 5000,
			wantErr: errors.ErrInput,
		},
		"reversed window": {
			caller: func(f *fixture) harvest.Address { return f.curator },
			start:  300, end: 100, quorum: 5000,
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			index, err := f.engine.Schedule(f.at(1), f.db, tc.caller(f), "trees", unixOf(tc.start), unixOf(tc.end), tc.quorum)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			assert.Equal(t, int64(1), index)
			assert.Equal(t, Status_Scheduled, f.checkpoint(index).Status)
		})
	}
}

func TestIndexesArePerCampaign(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, int64(1), f.schedule(100, 300, 1))
	assert.Equal(t, int64(2), f.schedule(100, 300, 1))
	index, err := f.engine.Schedule(f.at(1), f.db, f.curator, "water", unixOf(100), unixOf(300), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), index)
}

func TestTickOpensOnlyDueCheckpoints(t *testing.T) {
	f := newFixture(t)
	first := f.schedule(100, 300, 1)
	second := f.schedule(200, 400, 1)

	assert.Equal(t, "", f.tick(99).Log)
	assert.Equal(t, Status_Scheduled, f.checkpoint(first).Status)

	res := f.tick(150)
	assert.Equal(t, "opened trees/1", res.Log)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "checkpoint/opened", res.Events[0].Kind)
	assert.Equal(t, int64(149), f.checkpoint(first).SnapshotHeight)
	assert.Equal(t, Status_Scheduled, f.checkpoint(second).Status)

	assert.Equal(t, "opened trees/2", f.tick(200).Log)
	assert.Equal(t, "", f.tick(201).Log)
}

func TestFinalize(t *testing.T) {
	cases := map[string]struct {
		yes, no, abstain int64
		wantStatus       Status
		wantHalted       bool
	}{
		"quorum reached": {yes: 40, abstain: 60, wantStatus: Status_Succeeded},
		"quorum missed":  {yes: 30, abstain: 70, wantStatus: Status_Failed, wantHalted: true},
		"outvoted":       {yes: 40, no: 50, abstain: 10, wantStatus: Status_Failed, wantHalted: true},
		"nobody voted":   {abstain: 100, wantStatus: Status_Failed, wantHalted: true},
		"only against":   {no: 60, abstain: 40, wantStatus: Status_Failed, wantHalted: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			votes := make(map[bool]harvest.Address)
			if tc.yes > 0 {
				votes[true] = f.stakeAt(2, hrv(tc.yes))
			}
			if tc.no > 0 {
				votes[false] = f.stakeAt(2, hrv(tc.no))
			}
			f.stakeAt(2, hrv(tc.abstain))
			index := f.schedule(100, 300, 4000)
			f.tick(100)
			for support, voter := range votes {
				require.NoError(t, f.engine.Vote(f.at(150), f.db, voter, "trees", index, support))
			}

			_, err := f.engine.Finalize(f.at(299), f.db, f.curator, "trees", index)
			if !ErrWindowOpen.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			status, err := f.engine.Finalize(f.at(300), f.db, f.curator, "trees", index)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantStatus, f.checkpoint(index).Status)

			halted, err := f.router.IsHalted(f.db, "trees")
			require.NoError(t, err)
			assert.Equal(t, tc.wantHalted, halted)

			_, err = f.engine.Finalize(f.at(301), f.db, f.curator, "trees", index)
			if !errors.ErrState.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestFinalizeRequiresCurator(t *testing.T) {
	f := newFixture(t)
	index := f.schedule(100, 300, 1)
	f.tick(100)
	_, err := f.engine.Finalize(f.at(300), f.db, weavetest.NewCondition().Address(), "trees", index)
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestQuorumRule(t *testing.T) {
	c := func(votesFor, votesAgainst, total int64, quorum harvest.Ratio) *Checkpoint {
		return &Checkpoint{
			Quorum:        quorum,
			VotesFor:      coin.NewCoinp(votesFor, 0, "HRV"),
			VotesAgainst:  coin.NewCoinp(votesAgainst, 0, "HRV"),
			TotalEligible: coin.NewCoinp(total, 0, "HRV"),
		}
	}
	cases := map[string]struct {
		checkpoint *Checkpoint
		want       bool
	}{
		"exactly the quorum":         {checkpoint: c(400, 0, 1000, 4000), want: true},
		"one below the quorum":       {checkpoint: c(399, 0, 1000, 4000), want: false},
		"tie":                        {checkpoint: c(400, 400, 1000, 4000), want: false},
		"narrow majority":            {checkpoint: c(500, 499, 1000, 4000), want: true},
		"full quorum, all in favor":  {checkpoint: c(1000, 0, 1000, 10000), want: true},
		"full quorum, one missing":   {checkpoint: c(999, 0, 1000, 10000), want: false},
		"no eligible stake":          {checkpoint: c(0, 0, 0, 1), want: false},
		"smallest quorum, one voter": {checkpoint: c(1, 0, 10000, 1), want: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.checkpoint.Passed())
		})
	}
}

func TestQuorumRuleMatchesRationalArithmetic(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		total := r.Int63n(1e6)
		votesFor := r.Int63n(total + 1)
		votesAgainst := r.Int63n(total - votesFor + 1)
		quorum := harvest.Ratio(1 + r.Int63n(harvest.RatioBasis))
		cp := &Checkpoint{
			Quorum:        quorum,
			VotesFor:      coin.NewCoinp(0, votesFor, "HRV"),
			VotesAgainst:  coin.NewCoinp(0, votesAgainst, "HRV"),
			TotalEligible: coin.NewCoinp(0, total, "HRV"),
		}

		want := votesFor > votesAgainst
		if total > 0 {
			share := big.NewRat(votesFor, total)
			want = want && share.Cmp(big.NewRat(int64(quorum), harvest.RatioBasis)) >= 0
		}
		if got := cp.Passed(); got != want {
			t.Fatalf("for=%d against=%d total=%d quorum=%s: want %v, got %v",
				votesFor, votesAgainst, total, quorum, want, got)
		}
	}
}

func TestExecute(t *testing.T) {
	f := newFixture(t)
	voter := f.stakeAt(2, hrv(10))
	index := f.schedule(100, 300, 1)

	err := f.engine.Execute(f.at(50), f.db, f.curator, "trees", index)
	if !errors.ErrState.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	f.tick(100)
	require.NoError(t, f.engine.Vote(f.at(101), f.db, voter, "trees", index, true))
	_, err = f.engine.Finalize(f.at(300), f.db, f.curator, "trees", index)
	require.NoError(t, err)

	err = f.engine.Execute(f.at(301), f.db, weavetest.NewCondition().Address(), "trees", index)
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	require.NoError(t, f.engine.Execute(f.at(301), f.db, f.curator, "trees", index))
	assert.Equal(t, Status_Executed, f.checkpoint(index).Status)

	err = f.engine.Execute(f.at(302), f.db, f.curator, "trees", index)
	if !errors.ErrState.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	scheduled := f.schedule(100, 300, 1)
	voting := f.schedule(50, 300, 1)

	f.tick(50)
	require.NoError(t, f.engine.Cancel(f.at(60), f.db, f.curator, "trees", scheduled))
	require.NoError(t, f.engine.Cancel(f.at(60), f.db, f.curator, "trees", voting))

	assert.Equal(t, "", f.tick(100).Log)
	assert.Equal(t, Status_Canceled, f.checkpoint(scheduled).Status)
	assert.Equal(t, Status_Canceled, f.checkpoint(voting).Status)

	err := f.engine.Cancel(f.at(61), f.db, f.curator, "trees", voting)
	if !errors.ErrState.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	_, err = f.engine.Finalize(f.at(300), f.db, f.curator, "trees", voting)
	if !errors.ErrState.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestFailedVoteLeavesNoReceipt(t *testing.T) {
	f := newFixture(t)
	index := f.schedule(100, 300, 1)
	f.tick(100)
	late := f.stakeAt(101, hrv(5))

	err := f.engine.Vote(f.at(102), f.db, late, "trees", index, true)
	if !ErrNotEligible.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	_, err = f.engine.Receipt(f.db, "trees", index, late)
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestEngineConfigDefaults(t *testing.T) {
	e := NewEngine(nil, nil, nil, nil)
	conf, err := e.Config(store.MemStore())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfiguration(), conf)
}
