package vault

import (
	"math/big"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
)

// parseUnits decodes a decimal unit amount. An empty string is zero.
func parseUnits(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInput, "invalid unit amount %q", s)
	}
	if n.Sign() < 0 {
		return nil, errors.Wrapf(errors.ErrInput, "negative unit amount %q", s)
	}
	return n, nil
}

func formatUnits(n *big.Int) string {
	if n == nil || n.Sign() == 0 {
		return "0"
	}
	return n.String()
}

// conversion holds the values needed to convert between units and atoms of
// a single vault. The supply includes the virtual units and the assets
// include a single virtual atom. Redeeming the whole supply can therefore
// never pay more than the pooled assets, even after a loss.
type conversion struct {
	supply *big.Int
	assets *big.Int
}

func newConversion(v *Vault, offset int64) conversion {
	assets := totalAssets(v)
	return conversion{
		supply: new(big.Int).Add(v.Units(), big.NewInt(offset)),
		assets: assets.Add(assets, big.NewInt(1)),
	}
}

// mint returns the units minted for a deposit of given atoms, rounded down.
func (c conversion) mint(atoms *big.Int) *big.Int {
	return harvest.MulDivFloor(atoms, c.supply, c.assets)
}

// burn returns the units burned for a withdrawal of given atoms, rounded up.
func (c conversion) burn(atoms *big.Int) *big.Int {
	return harvest.MulDivCeil(atoms, c.supply, c.assets)
}

// redeem returns the atoms paid for given units, rounded down.
func (c conversion) redeem(units *big.Int) *big.Int {
	return harvest.MulDivFloor(units, c.assets, c.supply)
}

// totalAssets returns buffer plus principal in atoms.
func totalAssets(v *Vault) *big.Int {
	n := new(big.Int)
	if v.Buffer != nil {
		n.Add(n, v.Buffer.Atoms())
	}
	if v.Principal != nil {
		n.Add(n, v.Principal.Atoms())
	}
	return n
}

func atomsOf(c *coin.Coin) *big.Int {
	if c == nil {
		return new(big.Int)
	}
	return c.Atoms()
}

// setAtoms replaces *dst with the given amount. It fails with ErrOverflow
// when the amount cannot be represented as a coin.
func setAtoms(dst **coin.Coin, atoms *big.Int, ticker string) error {
	if atoms.Sign() < 0 {
		return errors.Wrapf(errors.ErrAmount, "negative balance of %s atoms", atoms)
	}
	c, err := coin.FromAtoms(atoms, ticker)
	if err != nil {
		return err
	}
	*dst = &c
	return nil
}
