package coin

import (
	"math/big"

	"github.com/iov-one/harvest/errors"
)

var (
	bigFracUnit = big.NewInt(FracUnit)
	maxAtoms    = new(big.Int).Add(
		new(big.Int).Mul(big.NewInt(MaxInt), bigFracUnit),
		big.NewInt(MaxFrac),
	)
)

// Atoms returns the coin value expressed in the smallest indivisible unit
// (10^-9 of a whole coin).
func (c Coin) Atoms() *big.Int {
	n := new(big.Int).Mul(big.NewInt(c.Whole), bigFracUnit)
	return n.Add(n, big.NewInt(c.Fractional))
}

// FromAtoms builds a coin of the given ticker out of an atom amount. It fails
// with ErrOverflow if the value cannot be represented.
func FromAtoms(atoms *big.Int, ticker string) (Coin, error) {
	if atoms.CmpAbs(maxAtoms) > 0 {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%s atoms", atoms)
	}
	// QuoRem truncates toward zero so whole and fractional share
	// the same sign.
	whole, frac := new(big.Int).QuoRem(atoms, bigFracUnit, new(big.Int))
	return Coin{
		Ticker:     ticker,
		Whole:      whole.Int64(),
		Fractional: frac.Int64(),
	}, nil
}

// MustFromAtoms is FromAtoms that panics on overflow. Use it only with values
// that are known to be in range.
func MustFromAtoms(atoms *big.Int, ticker string) Coin {
	c, err := FromAtoms(atoms, ticker)
	if err != nil {
		panic(err)
	}
	return c
}
