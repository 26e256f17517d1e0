package checkpoint

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/store"
	"github.com/iov-one/harvest/weavetest"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/payout"
	"github.com/iov-one/harvest/x/roles"
	"github.com/iov-one/harvest/x/stake"
	"github.com/stretchr/testify/require"
)

// Blocks are five seconds apart, starting at genesis.
const blockTime = 5 * time.Second

var genesis = time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)

func hrv(whole int64) coin.Coin {
	return coin.NewCoin(whole, 0, "HRV")
}

type fixture struct {
	t      testing.TB
	db     harvest.KVStore
	ctrl   cash.Controller
	stakes *stake.Keeper
	router *payout.Router
	engine *Engine
	// curator signs curator messages.
	curatorKey harvest.Condition
	curator    harvest.Address
}

// newFixture returns an engine that accepts one minute windows and makes a
// stake eligible after one minute.
func newFixture(t testing.TB) *fixture {
	t.Helper()
	guard := harvest.NewGuard()
	f := &fixture{
		t:          t,
		db:         store.MemStore(),
		ctrl:       cash.NewController(),
		curatorKey: weavetest.NewCondition(),
	}
	f.curator = f.curatorKey.Address()
	oracle := roles.StaticOracle{roles.Curator: {f.curator}}
	f.stakes = stake.NewKeeper(f.ctrl, guard)
	f.router = payout.NewRouter(nil, f.ctrl, oracle, guard)
	f.engine = NewEngine(f.stakes, f.router, oracle, guard)

	raw, err := json.Marshal(map[string]interface{}{
		"conf": map[string]interface{}{
			"checkpoint": map[string]interface{}{
				"min_eligibility": "60s",
				"min_window":      "60s",
				"max_window":      "24h",
			},
		},
	})
	require.NoError(t, err)
	var opts harvest.Options
	require.NoError(t, json.Unmarshal(raw, &opts))

	migration.MustInitPkg(f.db, "cash")
	initializer := harvest.ChainInitializers(
		&stake.Initializer{},
		&payout.Initializer{Router: f.router},
		&Initializer{},
	)
	require.NoError(t, initializer.FromGenesis(opts, f.db))
	return f
}

func timeOf(height int64) time.Time {
	return genesis.Add(time.Duration(height) * blockTime)
}

func unixOf(height int64) harvest.UnixTime {
	return harvest.AsUnixTime(timeOf(height))
}

func (f *fixture) at(height int64) harvest.Context {
	return weavetest.Ctx(height, timeOf(height))
}

// stakeAt funds a new supporter and stakes everything at given height.
func (f *fixture) stakeAt(height int64, amount coin.Coin) harvest.Address {
	f.t.Helper()
	addr := weavetest.NewCondition().Address()
	require.NoError(f.t, f.ctrl.IssueCoins(f.db, addr, amount))
	require.NoError(f.t, f.stakes.AddStake(f.at(height), f.db, addr, "trees", amount))
	return addr
}

// schedule creates a checkpoint at height 1 voting between given heights.
func (f *fixture) schedule(start, end int64, quorum harvest.Ratio) int64 {
	f.t.Helper()
	index, err := f.engine.Schedule(f.at(1), f.db, f.curator, "trees", unixOf(start), unixOf(end), quorum)
	require.NoError(f.t, err)
	return index
}

func (f *fixture) tick(height int64) *harvest.TickResult {
	f.t.Helper()
	res, err := f.engine.Tick(f.at(height), f.db)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) checkpoint(index int64) *Checkpoint {
	f.t.Helper()
	c, err := f.engine.Checkpoint(f.db, "trees", index)
	require.NoError(f.t, err)
	return c
}
