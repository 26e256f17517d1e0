package harvest

import (
	"math/big"
	"testing"

	"github.com/iov-one/harvest/errors"
	"github.com/stretchr/testify/assert"
)

func TestRatioMul(t *testing.T) {
	cases := map[string]struct {
		ratio     Ratio
		x         int64
		wantFloor int64
		wantCeil  int64
	}{
		"zero ratio": {
			ratio: 0, x: 1000, wantFloor: 0, wantCeil: 0,
		},
		"whole": {
			ratio: RatioBasis, x: 1000, wantFloor: 1000, wantCeil: 1000,
		},
		"exact fee": {
			ratio: 250, x: 100, wantFloor: 2, wantCeil: 3,
		},
		"one percent of a thousand": {
			ratio: 100, x: 1000, wantFloor: 10, wantCeil: 10,
		},
		"rounding a tiny amount": {
			ratio: 1, x: 9999, wantFloor: 0, wantCeil: 1,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			x := big.NewInt(tc.x)
			assert.Equal(t, tc.wantFloor, tc.ratio.MulFloor(x).Int64())
			assert.Equal(t, tc.wantCeil, tc.ratio.MulCeil(x).Int64())
		})
	}
}

func TestRatioValidate(t *testing.T) {
	assert.NoError(t, Ratio(0).Validate())
	assert.NoError(t, Ratio(RatioBasis).Validate())
	assert.True(t, errors.ErrInput.Is(Ratio(RatioBasis+1).Validate()))
}

func TestRatioExceeds(t *testing.T) {
	r := Ratio(100) // 1%
	assert.False(t, r.Exceeds(big.NewInt(1), big.NewInt(100)))
	assert.True(t, r.Exceeds(big.NewInt(2), big.NewInt(100)))
	assert.False(t, r.Exceeds(big.NewInt(0), big.NewInt(100)))
}

func TestRatioString(t *testing.T) {
	assert.Equal(t, "2.50%", Ratio(250).String())
	assert.Equal(t, "100.00%", Ratio(RatioBasis).String())
	assert.Equal(t, "0.01%", Ratio(1).String())
}

func TestMulDiv(t *testing.T) {
	a, b, c := big.NewInt(10), big.NewInt(10), big.NewInt(3)
	assert.Equal(t, int64(33), MulDivFloor(a, b, c).Int64())
	assert.Equal(t, int64(34), MulDivCeil(a, b, c).Int64())
	assert.Equal(t, int64(5), CeilDiv(big.NewInt(10), big.NewInt(2)).Int64())
	assert.Equal(t, int64(2500), RatioOf(big.NewInt(1), big.NewInt(4)).Int64())
}
