package payout

import "github.com/iov-one/harvest/errors"

var (
	ErrFeeIncreaseTooLarge = errors.Register(320, "fee increase exceeds the maximum step").Of(errors.EconomicGuard)
	ErrFeeTooHigh          = errors.Register(321, "fee exceeds the maximum").Of(errors.EconomicGuard)
	ErrTimelockNotExpired  = errors.Register(322, "timelock not expired").Of(errors.Timing)
	ErrCampaignHalted      = errors.Register(323, "campaign payouts are halted").Of(errors.State)
)
