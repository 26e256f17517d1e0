package vault

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
		"vault": {
			model: &Vault{},
			frozen: migration.Frozen{
				Fields: []string{
					"1:metadata", "2:ticker", "3:custody", "4:total_units",
					"5:buffer", "6:principal", "7:buffer_ratio", "8:slippage_ratio",
					"9:max_loss_ratio", "10:adapter", "11:cumulative_profit",
					"12:cumulative_loss", "13:paused", "14:emergency", "15:emergency_at",
				},
				Capacity: 20,
			},
		},
		"holding": {
			model: &Holding{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:vault_id", "3:holder", "4:units"},
				Capacity: 8,
			},
		},
		"configuration": {
			model: &Configuration{},
			frozen: migration.Frozen{
				Fields:   []string{"1:metadata", "2:grace_period", "3:virtual_offset", "4:min_deposit"},
				Capacity: 8,
			},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := migration.CheckLayout(tc.model, tc.frozen); err != nil {
				t.Fatalf("layout changed: %+v", err)
			}
		})
	}
}

func TestVaultValidate(t *testing.T) {
	usd := usdc(1)
	valid := func() *Vault {
		return &Vault{
			Metadata:         &harvest.Metadata{Schema: 1},
			Ticker:           "USDC",
			Custody:          CustodyCondition(weavetest.SequenceID(1)).Address(),
			TotalUnits:       "1000",
			Buffer:           &usd,
			Principal:        coin.NewCoinp(0, 0, "USDC"),
			CumulativeProfit: coin.NewCoinp(0, 0, "USDC"),
			CumulativeLoss:   coin.NewCoinp(0, 0, "USDC"),
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid vault: %+v", err)
	}

	v := valid()
	v.TotalUnits = "12x"
	assert.FieldError(t, v.Validate(), "TotalUnits", errors.ErrInput)

	v = valid()
	v.Buffer = coin.NewCoinp(1, 0, "DAI")
	assert.FieldError(t, v.Validate(), "Buffer", errors.ErrCurrency)

	v = valid()
	v.BufferRatio = 10001
	assert.FieldError(t, v.Validate(), "BufferRatio", errors.ErrInput)

	v = valid()
	v.Emergency = true
	assert.FieldError(t, v.Validate(), "EmergencyAt", errors.ErrEmpty)
}
