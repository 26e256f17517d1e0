package roles

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x"
)

// Role names a capability.
type Role string

const (
	// Governor manages adapters, vault ratios and the fee policy.
	Governor Role = "governor"
	// Guardian controls the pause and emergency switches.
	Guardian Role = "guardian"
	// Curator manages campaign checkpoints and campaign resumption.
	Curator Role = "curator"
)

// Validate returns an error if the role is not one of the known roles.
func (r Role) Validate() error {
	switch r {
	case Governor, Guardian, Curator:
		return nil
	}
	return errors.Wrapf(errors.ErrInput, "unknown role %q", string(r))
}

// Oracle answers capability checks.
type Oracle interface {
	HasRole(db harvest.ReadOnlyKVStore, role Role, addr harvest.Address) bool
}

// Require returns the main signer address if any of the message signers
// holds the given role. ErrUnauthorized is returned otherwise.
func Require(ctx harvest.Context, db harvest.ReadOnlyKVStore, oracle Oracle, auth x.Authenticator, role Role) (harvest.Address, error) {
	for _, c := range auth.GetConditions(ctx) {
		if addr := c.Address(); oracle.HasRole(db, role, addr) {
			return addr, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrUnauthorized, "%s role required", string(role))
}

// StaticOracle is an in memory oracle. It ignores the store.
type StaticOracle map[Role][]harvest.Address

var _ Oracle = StaticOracle(nil)

// HasRole implements Oracle.
func (s StaticOracle) HasRole(_ harvest.ReadOnlyKVStore, role Role, addr harvest.Address) bool {
	for _, a := range s[role] {
		if a.Equals(addr) {
			return true
		}
	}
	return false
}
