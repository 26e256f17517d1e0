package x

import (
	"github.com/iov-one/harvest"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding x/sigs for all extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(harvest.Context) []harvest.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(harvest.Context, harvest.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx harvest.Context) []harvest.Condition {
	var res []harvest.Condition
	for _, impl := range m.impls {
		res = append(res, impl.GetConditions(ctx)...)
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx harvest.Context, addr harvest.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx harvest.Context, auth Authenticator) []harvest.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]harvest.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first permission if any, otherwise nil
func MainSigner(ctx harvest.Context, auth Authenticator) harvest.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// AnySigner returns the address of the main signer or nil when the
// message is not signed.
func AnySigner(ctx harvest.Context, auth Authenticator) harvest.Address {
	if c := MainSigner(ctx, auth); c != nil {
		return c.Address()
	}
	return nil
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx harvest.Context, auth Authenticator, required []harvest.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}
