package vault

import "github.com/iov-one/harvest/errors"

var (
	ErrZeroShares         = errors.Register(300, "deposit would mint zero units").Of(errors.Validation)
	ErrExcessiveLoss      = errors.Register(301, "loss exceeds the allowed ratio").Of(errors.EconomicGuard)
	ErrSlippageExceeded   = errors.Register(302, "slippage exceeds the allowed ratio").Of(errors.EconomicGuard)
	ErrGracePeriodExpired = errors.Register(303, "emergency grace period expired").Of(errors.Timing)
	ErrGracePeriodActive  = errors.Register(304, "emergency grace period still active").Of(errors.Timing)
	ErrNotInEmergency     = errors.Register(305, "vault is not in emergency").Of(errors.State)
	ErrInEmergency        = errors.Register(306, "vault is in emergency").Of(errors.State)
	ErrPaused             = errors.Register(307, "vault is paused").Of(errors.State)
	ErrAdapterBusy        = errors.Register(308, "adapter still holds funds").Of(errors.State)
	ErrInsufficientUnits  = errors.Register(309, "insufficient units").Of(errors.Validation)
)
