package stake

import "github.com/iov-one/harvest/errors"

var (
	ErrStakeLocked = errors.Register(360, "stake is locked").Of(errors.Timing)
	ErrNoStake     = errors.Register(361, "no active stake").Of(errors.State)
)
