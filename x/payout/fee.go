package payout

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/x/roles"
)

// FeePolicy returns the current fee. A router without a stored policy
// charges nothing.
func (r *Router) FeePolicy(db harvest.ReadOnlyKVStore) (*FeePolicy, error) {
	var p FeePolicy
	switch err := r.policy.One(db, policyKey, &p); {
	case err == nil:
		return &p, nil
	case errors.ErrNotFound.Is(err):
		return &FeePolicy{Metadata: &harvest.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "fee policy")
	}
}

// Proposal returns a pending fee proposal.
func (r *Router) Proposal(db harvest.ReadOnlyKVStore, id []byte) (*FeeProposal, error) {
	var p FeeProposal
	if err := r.proposals.One(db, id, &p); err != nil {
		return nil, errors.Wrap(err, "fee proposal")
	}
	return &p, nil
}

// checkFee verifies the bounds of moving from the current ratio to next.
func checkFee(conf Configuration, current, next harvest.Ratio) error {
	if next > conf.MaxFee {
		return errors.Wrapf(ErrFeeTooHigh, "%s exceeds %s", next, conf.MaxFee)
	}
	if next > current && next-current > conf.MaxStep {
		return errors.Wrapf(ErrFeeIncreaseTooLarge, "%s to %s exceeds the step of %s", current, next, conf.MaxStep)
	}
	return nil
}

// ProposeFeeChange changes the fee. A change that does not raise the ratio
// is applied at once and nil is returned. An increase is stored as a
// proposal executable after the timelock and its ID is returned.
func (r *Router) ProposeFeeChange(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, ratio harvest.Ratio, recipient harvest.Address) ([]byte, error) {
	if !r.oracle.HasRole(db, roles.Governor, caller) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "governor role required")
	}
	if err := ratio.Validate(); err != nil {
		return nil, errors.Wrap(err, "ratio")
	}
	if err := validateRecipient(ratio, recipient); err != nil {
		return nil, errors.Wrap(err, "recipient")
	}

	var id []byte
	err := r.run(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		conf, err := r.Config(db)
		if err != nil {
			return err
		}
		current, err := r.FeePolicy(db)
		if err != nil {
			return err
		}
		if err := checkFee(conf, current.Ratio, ratio); err != nil {
			return err
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		if ratio <= current.Ratio {
			return r.applyFee(ctx, db, current, ratio, recipient, now)
		}

		p := &FeeProposal{
			Metadata:    &harvest.Metadata{Schema: 1},
			Ratio:       ratio,
			Recipient:   recipient,
			ProposedAt:  now,
			EffectiveAt: now.Add(conf.Timelock.Duration()),
			Proposer:    caller,
		}
		if id, err = r.proposals.Put(db, nil, p); err != nil {
			return errors.Wrap(err, "store proposal")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("payout/fee_proposed",
			"proposal", fmtID(id),
			"ratio", ratio.String(),
			"recipient", recipient.String(),
			"effective", p.EffectiveAt.String(),
		))
		harvest.GetLogger(ctx).Info("fee increase proposed", "proposal", fmtID(id), "ratio", ratio.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// ExecuteFeeChange applies a proposal once its timelock expired. Anyone may
// execute it. Both bounds are checked again against the fee applied at the
// time of execution.
func (r *Router) ExecuteFeeChange(ctx harvest.Context, db harvest.KVStore, id []byte) error {
	return r.run(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		p, err := r.Proposal(db, id)
		if err != nil {
			return err
		}
		if !harvest.IsExpired(ctx, p.EffectiveAt) {
			return errors.Wrapf(ErrTimelockNotExpired, "executable at %s", p.EffectiveAt)
		}
		conf, err := r.Config(db)
		if err != nil {
			return err
		}
		current, err := r.FeePolicy(db)
		if err != nil {
			return err
		}
		if err := checkFee(conf, current.Ratio, p.Ratio); err != nil {
			return err
		}
		now, err := harvest.BlockUnixTime(ctx)
		if err != nil {
			return err
		}
		if err := r.proposals.Delete(db, id); err != nil {
			return errors.Wrap(err, "delete proposal")
		}
		return r.applyFee(ctx, db, current, p.Ratio, p.Recipient, now)
	})
}

// CancelFeeChange removes a pending proposal. Requires the governor role.
func (r *Router) CancelFeeChange(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, id []byte) error {
	if !r.oracle.HasRole(db, roles.Governor, caller) {
		return errors.Wrap(errors.ErrUnauthorized, "governor role required")
	}
	return r.run(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		if _, err := r.Proposal(db, id); err != nil {
			return err
		}
		if err := r.proposals.Delete(db, id); err != nil {
			return errors.Wrap(err, "delete proposal")
		}
		harvest.EmitEvent(ctx, harvest.NewEvent("payout/fee_canceled", "proposal", fmtID(id)))
		return nil
	})
}

func (r *Router) applyFee(ctx harvest.Context, db harvest.KVStore, current *FeePolicy, ratio harvest.Ratio, recipient harvest.Address, now harvest.UnixTime) error {
	prev := current.Ratio
	current.Ratio = ratio
	current.Recipient = recipient
	current.UpdatedAt = now
	if _, err := r.policy.Put(db, policyKey, current); err != nil {
		return errors.Wrap(err, "store fee policy")
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("payout/fee_executed",
		"previous", prev.String(),
		"ratio", ratio.String(),
		"recipient", recipient.String(),
	))
	harvest.GetLogger(ctx).Info("fee changed", "from", prev.String(), "to", ratio.String())
	return nil
}
