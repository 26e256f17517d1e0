package checkpoint

import (
	"testing"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/weavetest"
	"github.com/iov-one/harvest/weavetest/assert"
)

func TestModelLayouts(t *testing.T) {
	cases := map[string]struct {
		model  interface{}
		frozen migration.Frozen
	}{
		"checkpoint": {
			model: &Checkpoint{},
			frozen: migration.Frozen{
				Fields: []string{
					"1:metadata", "2:campaign", "3:index", "4:window_start", "5:window_end",
					"6:quorum", "7:status", "8:snapshot_height", "9:opened_at", "10:votes_for",
					"11:votes_against", "12:total_eligible", "13:curator", "14:closed_at",
				},
				Capacity: 20,
			},
		},
		"vote receipt": {
			model: &VoteReceipt{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:campaign", "3:index", "4:voter", "5:support", "6:weight", "7:voted_at"},
				Capacity: 11,
			},
		},
		"due": {
			model: &Due{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:campaign", "3:index"},
				Capacity: 5,
			},
		},
		"configuration": {
			model: &Configuration{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:min_eligibility", "3:min_window", "4:max_window"},
				Capacity: 9,
			},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := migration.CheckLayout(tc.model, tc.frozen); err != nil {
				t.Fatalf("layout changed: %s", err)
			}
		})
	}
}

func TestCheckpointValidate(t *testing.T) {
	valid := func() Checkpoint {
		return Checkpoint{
			Metadata:      &harvest.Metadata{Schema: 1},
			Campaign:      "trees",
			Index:         1,
			WindowStart:   1000,
			WindowEnd:     2000,
			Quorum:        4000,
			Status:        Status_Scheduled,
			VotesFor:      coin.NewCoinp(0, 0, "HRV"),
			VotesAgainst:  coin.NewCoinp(0, 0, "HRV"),
			TotalEligible: coin.NewCoinp(0, 0, "HRV"),
			Curator:       weavetest.NewCondition().Address(),
		}
	}
	cases := map[string]struct {
		mutate    func(*Checkpoint)
		wantField string
		wantErr   *errors.Error
	}{
		"valid": {
			mutate: func(*Checkpoint) {},
		},
		"no index": {
			mutate:    func(c *Checkpoint) { c.Index = 0 },
			wantField: "Index",
			wantErr:   errors.ErrInput,
		},
		"empty window": {
			mutate:    func(c *Checkpoint) { c.WindowEnd = c.WindowStart },
			wantField: "WindowEnd",
			wantErr:   errors.ErrInput,
		},
		"zero quorum": {
			mutate:    func(c *Checkpoint) { c.Quorum = 0 },
			wantField: "Quorum",
			wantErr:   errors.ErrEmpty,
		},
		"quorum above one": {
			mutate:    func(c *Checkpoint) { c.Quorum = 10001 },
			wantField: "Quorum",
			wantErr:   errors.ErrInput,
		},
		"unknown status": {
			mutate:    func(c *Checkpoint) { c.Status = 42 },
			wantField: "Status",
			wantErr:   errors.ErrInput,
		},
		"missing tally": {
			mutate:    func(c *Checkpoint) { c.VotesFor = nil },
			wantField: "VotesFor",
			wantErr:   errors.ErrEmpty,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			assert.FieldError(t, err, tc.wantField, tc.wantErr)
		})
	}
}

func TestStatusString(t *testing.T) {
	if got := Status_Succeeded.String(); got != "Succeeded" {
		t.Fatalf("unexpected status name %q", got)
	}
	if got := Status(42).String(); got != "42" {
		t.Fatalf("unexpected status name %q", got)
	}
}
