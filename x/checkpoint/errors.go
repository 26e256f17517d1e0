package checkpoint

import "github.com/iov-one/harvest/errors"

var (
	ErrVotingNotOpen = errors.Register(340, "voting not open").Of(errors.Timing)
	ErrAlreadyVoted  = errors.Register(341, "already voted").Of(errors.State)
	ErrNoVotingPower = errors.Register(342, "no voting power").Of(errors.EconomicGuard)
	ErrNotEligible   = errors.Register(343, "stake not eligible").Of(errors.Timing)
	ErrWindowOpen    = errors.Register(344, "voting window still open").Of(errors.Timing)
)
