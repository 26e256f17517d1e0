package vault

import (
	"testing"
	"time"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/store"
	"github.com/iov-one/harvest/weavetest"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/roles"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func usdc(whole int64) coin.Coin {
	return coin.NewCoin(whole, 0, "USDC")
}

// testVenue keeps the invested coins in its own cash account. Divest burns
// the haircut part of every request.
type testVenue struct {
	account  harvest.Address
	vault    harvest.Address
	ctrl     cash.Controller
	haircut  harvest.Ratio
	divested []coin.Coin
}

var _ Adapter = (*testVenue)(nil)

func newTestVenue(name string, vaultID []byte, ctrl cash.Controller) *testVenue {
	return &testVenue{
		account: harvest.NewCondition("test", "venue", []byte(name)).Address(),
		vault:   CustodyCondition(vaultID).Address(),
		ctrl:    ctrl,
	}
}

func (v *testVenue) Account() harvest.Address { return v.account }
func (v *testVenue) Asset() string            { return "USDC" }

func (v *testVenue) TotalAssets(db harvest.ReadOnlyKVStore) (coin.Coin, error) {
	return v.ctrl.Balance(db, v.account, "USDC")
}

func (v *testVenue) checkCaller(caller harvest.Address) error {
	if !caller.Equals(v.vault) {
		return errors.ErrUnauthorized
	}
	return nil
}

func (v *testVenue) Invest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, amount coin.Coin) error {
	return v.checkCaller(caller)
}

func (v *testVenue) Divest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, amount coin.Coin) (coin.Coin, error) {
	if err := v.checkCaller(caller); err != nil {
		return coin.Coin{}, err
	}
	bal, err := v.TotalAssets(db)
	if err != nil {
		return coin.Coin{}, err
	}
	if amount.Compare(bal) > 0 {
		amount = bal
	}
	v.divested = append(v.divested, amount)
	cut := coin.MustFromAtoms(v.haircut.MulFloor(amount.Atoms()), "USDC")
	if cut.IsPositive() {
		if err := v.ctrl.BurnCoins(db, v.account, cut); err != nil {
			return coin.Coin{}, err
		}
	}
	pay, err := amount.Subtract(cut)
	if err != nil {
		return coin.Coin{}, err
	}
	if pay.IsPositive() {
		if err := v.ctrl.MoveCoins(db, v.account, caller, pay); err != nil {
			return coin.Coin{}, err
		}
	}
	return pay, nil
}

func (v *testVenue) Harvest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address) (coin.Coin, coin.Coin, error) {
	return usdc(0), usdc(0), v.checkCaller(caller)
}

func (v *testVenue) EmergencyWithdraw(ctx harvest.Context, db harvest.KVStore, caller harvest.Address) (coin.Coin, error) {
	if err := v.checkCaller(caller); err != nil {
		return coin.Coin{}, err
	}
	bal, err := v.TotalAssets(db)
	if err != nil || !bal.IsPositive() {
		return bal, err
	}
	return bal, v.ctrl.MoveCoins(db, v.account, caller, bal)
}

// testDistributor accepts profit from the vault custody only and records
// every distributed amount.
type testDistributor struct {
	account harvest.Address
	calls   []coin.Coin
}

func (d *testDistributor) Account() harvest.Address { return d.account }

func (d *testDistributor) Distribute(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, amount coin.Coin) error {
	if !caller.Equals(CustodyCondition(vaultID).Address()) {
		return errors.ErrUnauthorized
	}
	d.calls = append(d.calls, amount)
	return nil
}

// mockAdapter is used where the adapter must misbehave.
type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) Account() harvest.Address {
	return m.Called().Get(0).(harvest.Address)
}

func (m *mockAdapter) Asset() string {
	return m.Called().String(0)
}

func (m *mockAdapter) TotalAssets(db harvest.ReadOnlyKVStore) (coin.Coin, error) {
	args := m.Called(db)
	return args.Get(0).(coin.Coin), args.Error(1)
}

func (m *mockAdapter) Invest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, amount coin.Coin) error {
	return m.Called(ctx, db, caller, amount).Error(0)
}

func (m *mockAdapter) Divest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, amount coin.Coin) (coin.Coin, error) {
	args := m.Called(ctx, db, caller, amount)
	return args.Get(0).(coin.Coin), args.Error(1)
}

func (m *mockAdapter) Harvest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address) (coin.Coin, coin.Coin, error) {
	args := m.Called(ctx, db, caller)
	return args.Get(0).(coin.Coin), args.Get(1).(coin.Coin), args.Error(2)
}

func (m *mockAdapter) EmergencyWithdraw(ctx harvest.Context, db harvest.KVStore, caller harvest.Address) (coin.Coin, error) {
	args := m.Called(ctx, db, caller)
	return args.Get(0).(coin.Coin), args.Error(1)
}

type fixture struct {
	db       harvest.CacheableKVStore
	ctrl     cash.BaseController
	keeper   *Keeper
	venue    *testVenue
	dist     *testDistributor
	vaultID  []byte
	governor harvest.Address
	guardian harvest.Address
	alice    harvest.Address
	bob      harvest.Address
	now      time.Time
	signers  map[string]harvest.Condition
}

// newFixture creates a USDC vault with 1% slippage and max loss ratios.
// When adapter is nil a testVenue named "alpha" is used.
func newFixture(t testing.TB, bufferRatio harvest.Ratio, adapter Adapter) *fixture {
	t.Helper()

	db := store.MemStore()
	migration.MustInitPkg(db, "vault", "cash")

	f := &fixture{
		db:      db,
		ctrl:    cash.NewController(),
		vaultID: weavetest.SequenceID(1),
		now:     time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC),
		signers: make(map[string]harvest.Condition),
	}
	for _, addr := range []*harvest.Address{&f.governor, &f.guardian, &f.alice, &f.bob} {
		c := weavetest.NewCondition()
		*addr = c.Address()
		f.signers[c.Address().String()] = c
	}
	oracle := roles.StaticOracle{
		roles.Governor: {f.governor},
		roles.Guardian: {f.guardian},
	}
	f.keeper = NewKeeper(f.ctrl, oracle, nil)
	f.venue = newTestVenue("alpha", f.vaultID, f.ctrl)
	if adapter == nil {
		adapter = f.venue
	}
	f.keeper.RegisterAdapter("alpha", adapter)
	f.dist = &testDistributor{account: weavetest.NewCondition().Address()}
	f.keeper.WithDistributor(f.dist)

	id, err := f.keeper.CreateVault(f.ctx(), db, f.governor, Vault{
		Ticker:        "USDC",
		BufferRatio:   bufferRatio,
		SlippageRatio: 100,
		MaxLossRatio:  100,
		Adapter:       "alpha",
	})
	require.NoError(t, err)
	require.Equal(t, f.vaultID, id)

	require.NoError(t, f.ctrl.IssueCoins(db, f.alice, usdc(10000)))
	require.NoError(t, f.ctrl.IssueCoins(db, f.bob, usdc(10000)))
	return f
}

func (f *fixture) ctx() harvest.Context {
	return weavetest.Ctx(100, f.now)
}

// auth returns an authenticator for the condition of given address.
func (f *fixture) auth(addr harvest.Address) *weavetest.Auth {
	if addr == nil {
		return &weavetest.Auth{}
	}
	return &weavetest.Auth{Signer: f.signers[addr.String()]}
}

func (f *fixture) vault(t testing.TB) *Vault {
	t.Helper()
	v, err := f.keeper.Vault(f.db, f.vaultID)
	require.NoError(t, err)
	return v
}

func (f *fixture) balance(t testing.TB, addr harvest.Address) coin.Coin {
	t.Helper()
	c, err := f.ctrl.Balance(f.db, addr, "USDC")
	require.NoError(t, err)
	return c
}

// donate raises the pooled assets without minting units.
func (f *fixture) donate(t testing.TB, amount coin.Coin) {
	t.Helper()
	v := f.vault(t)
	require.NoError(t, f.ctrl.IssueCoins(f.db, v.Custody, amount))
	buf, err := v.Buffer.Add(amount)
	require.NoError(t, err)
	v.Buffer = &buf
	_, err = f.keeper.vaults.Put(f.db, f.vaultID, v)
	require.NoError(t, err)
}
