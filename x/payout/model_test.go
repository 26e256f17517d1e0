package payout

import (
	"testing"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/weavetest/assert"
)

func TestModelLayouts(t *testing.T) {
	cases := map[string]struct {
		model  interface{}
		frozen migration.Frozen
	}{
		"fee policy": {
			model: &FeePolicy{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:ratio", "3:recipient", "4:updated_at"},
				Capacity: 9,
			},
		},
		"fee proposal": {
			model: &FeeProposal{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:ratio", "3:recipient", "4:effective_at", "5:proposed_at", "6:proposer"},
				Capacity: 10,
			},
		},
		"preference": {
			model: &Preference{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:holder", "3:campaign", "4:beneficiary", "5:allocation"},
				Capacity: 10,
			},
		},
		"campaign payout holds a collection": {
			model: &CampaignPayout{},
			frozen: migration.Frozen{
				Fields: []string{"1:metadata", "2:campaign", "3:halted", "4:halted_at", "5:paid"},
			},
		},
		"router state holds a collection": {
			model: &RouterState{},
			frozen: migration.Frozen{
				Fields: []string{"1:metadata", "2:dust"},
			},
		},
		"configuration": {
			model: &Configuration{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:max_fee", "3:max_step", "4:timelock", "5:default_campaign"},
				Capacity: 10,
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

func TestCampaignPayoutValidate(t *testing.T) {
	usdc := coin.NewCoinp(1, 0, "USDC")
	cases := map[string]struct {
		model     CampaignPayout
		wantField string
		wantErr   *errors.Error
	}{
		"halted without time": {
			model:     CampaignPayout{Metadata: &harvest.Metadata{Schema: 1}, Campaign: "trees", Halted: true},
			wantField: "HaltedAt",
			wantErr:   errors.ErrEmpty,
		},
		"duplicated currency": {
			model:     CampaignPayout{Metadata: &harvest.Metadata{Schema: 1}, Campaign: "trees", Paid: []*coin.Coin{usdc, usdc}},
			wantField: "Paid",
			wantErr:   errors.ErrDuplicate,
		},
		"bad campaign": {
			model:     CampaignPayout{Metadata: &harvest.Metadata{Schema: 1}, Campaign: "x"},
			wantField: "Campaign",
			wantErr:   errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.FieldError(t, tc.model.Validate(), tc.wantField, tc.wantErr)
		})
	}
}

func TestConfigurationValidate(t *testing.T) {
	conf := DefaultConfiguration()
	if err := conf.Validate(); err != nil {
		t.Fatalf("default configuration: %s", err)
	}
	conf.MaxStep = conf.MaxFee + 1
	assert.FieldError(t, conf.Validate(), "MaxStep", errors.ErrInput)
}
