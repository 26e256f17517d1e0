package payout

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/gconf"
	"github.com/iov-one/harvest/migration"
)

// GenesisFee is the fee applied from the first block. It must respect the
// configured maximum but is not subject to the step limit.
type GenesisFee struct {
	Ratio     harvest.Ratio   `json:"ratio"`
	Recipient harvest.Address `json:"recipient"`
}

// Initializer loads the configuration and the initial fee policy.
type Initializer struct {
	Router *Router
}

var _ harvest.Initializer = (*Initializer)(nil)

func (i *Initializer) FromGenesis(opts harvest.Options, db harvest.KVStore) error {
	migration.MustInitPkg(db, packageName)

	conf := DefaultConfiguration()
	if err := gconf.InitConfigWithDefault(db, opts, packageName, &conf); err != nil {
		return errors.Wrap(err, "payout configuration")
	}

	var fee *GenesisFee
	if err := opts.ReadOptions("fee_policy", &fee); err != nil {
		return err
	}
	if fee == nil {
		return nil
	}
	if fee.Ratio > conf.MaxFee {
		return errors.Wrapf(ErrFeeTooHigh, "genesis fee %s exceeds %s", fee.Ratio, conf.MaxFee)
	}
	policy := &FeePolicy{
		Metadata:  &harvest.Metadata{Schema: 1},
		Ratio:     fee.Ratio,
		Recipient: fee.Recipient,
	}
	if _, err := i.Router.policy.Put(db, policyKey, policy); err != nil {
		return errors.Wrap(err, "genesis fee policy")
	}
	return nil
}
