package harvest

import (
	"fmt"
	"math/big"

	"github.com/iov-one/harvest/errors"
)

// RatioBasis is the denominator of every Ratio. One unit of a ratio is 0.01%.
const RatioBasis = 10000

var bigBasis = big.NewInt(RatioBasis)

// Ratio is a fixed point fraction expressed in basis points. A fee of 2.5%
// is Ratio(250), a whole is Ratio(RatioBasis).
type Ratio uint32

// Validate returns an error if the ratio is greater than a whole.
func (r Ratio) Validate() error {
	if r > RatioBasis {
		return errors.Wrapf(errors.ErrInput, "ratio %d exceeds %d", r, RatioBasis)
	}
	return nil
}

// MulFloor returns floor(x * r / RatioBasis).
func (r Ratio) MulFloor(x *big.Int) *big.Int {
	n := new(big.Int).Mul(x, big.NewInt(int64(r)))
	return n.Quo(n, bigBasis)
}

// MulCeil returns ceil(x * r / RatioBasis) for non negative x.
func (r Ratio) MulCeil(x *big.Int) *big.Int {
	n := new(big.Int).Mul(x, big.NewInt(int64(r)))
	return CeilDiv(n, bigBasis)
}

// RatioOf returns ceil(part * RatioBasis / whole), the smallest ratio that
// is not less than part/whole. Whole must be positive.
func RatioOf(part, whole *big.Int) *big.Int {
	n := new(big.Int).Mul(part, bigBasis)
	return CeilDiv(n, whole)
}

// Exceeds returns true if part/whole is strictly greater than this ratio.
func (r Ratio) Exceeds(part, whole *big.Int) bool {
	// part * basis > r * whole
	lhs := new(big.Int).Mul(part, bigBasis)
	rhs := new(big.Int).Mul(whole, big.NewInt(int64(r)))
	return lhs.Cmp(rhs) > 0
}

// String returns the percentage representation, for example "2.50%".
func (r Ratio) String() string {
	return fmt.Sprintf("%d.%02d%%", r/100, r%100)
}

// CeilDiv returns ceil(x / y) for non negative x and positive y.
func CeilDiv(x, y *big.Int) *big.Int {
	q, m := new(big.Int).QuoRem(x, y, new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// MulDivFloor returns floor(a * b / c) computed without intermediate
// overflow. C must be positive.
func MulDivFloor(a, b, c *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	return n.Quo(n, c)
}

// MulDivCeil returns ceil(a * b / c) computed without intermediate overflow.
// C must be positive.
func MulDivCeil(a, b, c *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	return CeilDiv(n, c)
}
