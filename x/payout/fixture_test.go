package payout

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/store"
	"github.com/iov-one/harvest/weavetest"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/roles"
	"github.com/stretchr/testify/require"
)

func usdc(whole, fractional int64) coin.Coin {
	return coin.NewCoin(whole, fractional, "USDC")
}

// staticLedger is a unit ledger with a fixed list of holders.
type staticLedger struct {
	vault   harvest.Address
	holders []holderShare
}

var _ UnitLedger = (*staticLedger)(nil)

func (l *staticLedger) VaultAddress(harvest.ReadOnlyKVStore, []byte) (harvest.Address, error) {
	return l.vault, nil
}

func (l *staticLedger) TotalUnits(harvest.ReadOnlyKVStore, []byte) (*big.Int, error) {
	sum := new(big.Int)
	for _, h := range l.holders {
		sum.Add(sum, h.units)
	}
	return sum, nil
}

func (l *staticLedger) VisitHolders(_ harvest.ReadOnlyKVStore, _ []byte, fn func(harvest.Address, *big.Int) error) error {
	for _, h := range l.holders {
		if err := fn(h.holder, new(big.Int).Set(h.units)); err != nil {
			return err
		}
	}
	return nil
}

func (l *staticLedger) hold(addr harvest.Address, units int64) {
	l.holders = append(l.holders, holderShare{holder: addr, units: big.NewInt(units)})
}

type fixture struct {
	t        testing.TB
	db       harvest.KVStore
	ctrl     cash.Controller
	ledger   *staticLedger
	router   *Router
	vaultID  []byte
	governor harvest.Condition
	curator  harvest.Condition
	treasury harvest.Address
	now      time.Time
}

// newFixture returns a router charging feeRatio. Configuration entries
// override the defaults.
func newFixture(t testing.TB, feeRatio harvest.Ratio, conf map[string]interface{}) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		db:       store.MemStore(),
		ctrl:     cash.NewController(),
		ledger:   &staticLedger{vault: weavetest.NewCondition().Address()},
		vaultID:  weavetest.SequenceID(1),
		governor: weavetest.NewCondition(),
		curator:  weavetest.NewCondition(),
		treasury: weavetest.NewCondition().Address(),
		now:      time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	migration.MustInitPkg(f.db, "cash")
	oracle := roles.StaticOracle{
		roles.Governor: {f.governor.Address()},
		roles.Curator:  {f.curator.Address()},
	}
	f.router = NewRouter(f.ledger, f.ctrl, oracle, nil)

	genesis := map[string]interface{}{
		"fee_policy": map[string]interface{}{"ratio": feeRatio, "recipient": f.treasury},
	}
	if conf != nil {
		genesis["conf"] = map[string]interface{}{"payout": conf}
	}
	raw, err := json.Marshal(genesis)
	require.NoError(t, err)
	var opts harvest.Options
	require.NoError(t, json.Unmarshal(raw, &opts))
	require.NoError(t, (&Initializer{Router: f.router}).FromGenesis(opts, f.db))
	return f
}

func (f *fixture) ctx() harvest.Context {
	return weavetest.Ctx(100, f.now)
}

func (f *fixture) ctxAt(t time.Time) harvest.Context {
	return weavetest.Ctx(100, t)
}

// distribute funds the router account the way a vault does and calls the
// router.
func (f *fixture) distribute(amount coin.Coin) error {
	require.NoError(f.t, f.ctrl.IssueCoins(f.db, f.router.Account(), amount))
	return f.router.Distribute(f.ctx(), f.db, f.ledger.vault, f.vaultID, amount)
}

func (f *fixture) balance(addr harvest.Address) coin.Coin {
	c, err := f.ctrl.Balance(f.db, addr, "USDC")
	require.NoError(f.t, err)
	return c
}

func (f *fixture) campaignBalance(campaign string) coin.Coin {
	return f.balance(CampaignCondition(campaign).Address())
}
