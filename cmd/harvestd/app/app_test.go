package harvestd_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/app"
	harvestd "github.com/iov-one/harvest/cmd/harvestd/app"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/crypto"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/checkpoint"
	"github.com/iov-one/harvest/x/payout"
	"github.com/iov-one/harvest/x/sigs"
	"github.com/iov-one/harvest/x/stake"
	"github.com/iov-one/harvest/x/vault"
	"github.com/iov-one/harvest/x/yieldsim"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"
)

const chainID = "harvest-e2e"

func usdc(whole, fractional int64) coin.Coin {
	return coin.NewCoin(whole, fractional, "USDC")
}

// testChain runs an application over an in memory iavl store. Every
// transaction is signed, serialized and decoded again before delivery.
type testChain struct {
	t       testing.TB
	app     *app.Application
	comps   *harvestd.Components
	now     time.Time
	started bool

	governor *crypto.PrivateKey
	curator  *crypto.PrivateKey
	alice    *crypto.PrivateKey
	bob      *crypto.PrivateKey
	carol    *crypto.PrivateKey
	dave     *crypto.PrivateKey
	treasury harvest.Address
	charity  harvest.Address
	vaultID  []byte
}

func addr(k *crypto.PrivateKey) harvest.Address {
	return k.PublicKey().Address()
}

// operatorKey derives a role key from a fixed seed, the way operator
// accounts of a devnet are created.
func operatorKey(t testing.TB, account int) *crypto.PrivateKey {
	t.Helper()
	seed := []byte("harvest devnet operator seed 0001")
	k, err := crypto.DeriveKey(seed, fmt.Sprintf("m/44'/234'/%d'", account))
	require.NoError(t, err)
	return k
}

func newTestChain(t testing.TB) *testChain {
	t.Helper()
	c := &testChain{
		t:        t,
		comps:    harvestd.NewComponents(),
		now:      time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC),
		governor: operatorKey(t, 0),
		curator:  operatorKey(t, 1),
		alice:    crypto.GenPrivKeyEd25519(),
		bob:      crypto.GenPrivKeyEd25519(),
		carol:    crypto.GenPrivKeyEd25519(),
		dave:     crypto.GenPrivKeyEd25519(),
		treasury: crypto.GenPrivKeyEd25519().PublicKey().Address(),
		charity:  crypto.GenPrivKeyEd25519().PublicKey().Address(),
		vaultID:  orm.EncodeSequence(1),
	}

	kv, err := harvestd.CommitKVStore("")
	require.NoError(t, err)
	c.app, err = c.comps.Application(kv, nil)
	require.NoError(t, err)

	hrv := func(n int64) coin.Coin { return coin.NewCoin(n, 0, "HRV") }
	genesis := map[string]interface{}{
		"cash": []cash.GenesisAccount{
			{Address: addr(c.alice), Coins: []coin.Coin{usdc(10000, 0)}},
			{Address: addr(c.bob), Coins: []coin.Coin{usdc(10000, 0)}},
			{Address: addr(c.carol), Coins: []coin.Coin{hrv(1000)}},
			{Address: addr(c.dave), Coins: []coin.Coin{hrv(1000)}},
		},
		"roles": []map[string]interface{}{
			{"role": "governor", "address": addr(c.governor)},
			{"role": "curator", "address": addr(c.curator)},
		},
		"vaults": []vault.GenesisVault{
			{Ticker: "USDC", BufferRatio: 100, SlippageRatio: 100, MaxLossRatio: 100, Adapter: "sim_usdc"},
		},
		"yieldsim": []yieldsim.GenesisVenue{
			{Name: "sim_usdc", VaultID: 1},
		},
		"fee_policy": payout.GenesisFee{Ratio: 250, Recipient: c.treasury},
		"conf": map[string]interface{}{
			"checkpoint": map[string]interface{}{
				"min_eligibility": "60s",
				"min_window":      "60s",
			},
		},
	}
	opts := make(harvest.Options)
	for k, v := range genesis {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		opts[k] = raw
	}
	require.NoError(t, c.app.InitChain(app.Genesis{ChainID: chainID, AppState: opts}))
	return c
}

// blockAt commits the running block and begins a new one at given time.
func (c *testChain) blockAt(now time.Time) *harvest.TickResult {
	c.t.Helper()
	if c.started {
		_, err := c.app.Commit()
		require.NoError(c.t, err)
	}
	c.now = now
	res, err := c.app.BeginBlock(now)
	require.NoError(c.t, err)
	c.started = true
	return res
}

func (c *testChain) block(d time.Duration) *harvest.TickResult {
	return c.blockAt(c.now.Add(d))
}

// deliver signs msg with the current nonce of the signer and delivers it
// in the running block.
func (c *testChain) deliver(signer *crypto.PrivateKey, msg harvest.Msg) (*harvest.DeliverResult, error) {
	c.t.Helper()
	tx, err := harvestd.NewTx(msg)
	require.NoError(c.t, err)
	nonce, err := sigs.NextNonce(c.app.DeliverStore(), addr(signer))
	require.NoError(c.t, err)
	sig, err := sigs.SignTx(signer, tx, chainID, nonce)
	require.NoError(c.t, err)
	tx.Signatures = append(tx.Signatures, sig)

	raw, err := tx.Marshal()
	require.NoError(c.t, err)
	decoded, err := harvestd.TxDecoder(raw)
	require.NoError(c.t, err)
	return c.app.Deliver(decoded)
}

func (c *testChain) mustDeliver(signer *crypto.PrivateKey, msg harvest.Msg) *harvest.DeliverResult {
	c.t.Helper()
	res, err := c.deliver(signer, msg)
	require.NoError(c.t, err)
	return res
}

func (c *testChain) balance(a harvest.Address, ticker string) coin.Coin {
	c.t.Helper()
	b, err := c.comps.Cash.Balance(c.app.DeliverStore(), a, ticker)
	require.NoError(c.t, err)
	return b
}

func (c *testChain) vault() *vault.Vault {
	c.t.Helper()
	v, err := c.comps.Vaults.Vault(c.app.DeliverStore(), c.vaultID)
	require.NoError(c.t, err)
	return v
}

func (c *testChain) deposit(k *crypto.PrivateKey, amount coin.Coin) {
	c.mustDeliver(k, &vault.DepositMsg{
		Metadata:  &harvest.Metadata{Schema: 1},
		VaultID:   c.vaultID,
		Amount:    &amount,
		Depositor: addr(k),
		Receiver:  addr(k),
	})
}

func TestScenarios(t *testing.T) {
	Convey("Given a freshly initialized chain", t, func() {
		c := newTestChain(t)
		c.block(5 * time.Second)
		venue := c.comps.Venues[0]

		Convey("Deposits keep the buffer and withdrawals divest only the shortfall", func() {
			c.deposit(c.alice, usdc(1000, 0))

			v := c.vault()
			So(*v.Buffer, ShouldResemble, usdc(10, 0))
			So(*v.Principal, ShouldResemble, usdc(990, 0))
			invested, err := venue.TotalAssets(c.app.DeliverStore())
			So(err, ShouldBeNil)
			So(invested, ShouldResemble, usdc(990, 0))

			c.block(5 * time.Second)
			amount := usdc(500, 0)
			c.mustDeliver(c.alice, &vault.WithdrawMsg{
				Metadata: &harvest.Metadata{Schema: 1},
				VaultID:  c.vaultID,
				Amount:   &amount,
				Owner:    addr(c.alice),
				Receiver: addr(c.alice),
			})

			v = c.vault()
			So(*v.Buffer, ShouldResemble, usdc(0, 0))
			So(*v.Principal, ShouldResemble, usdc(500, 0))
			invested, err = venue.TotalAssets(c.app.DeliverStore())
			So(err, ShouldBeNil)
			So(invested, ShouldResemble, usdc(500, 0))
			So(c.balance(addr(c.alice), "USDC"), ShouldResemble, usdc(9500, 0))
			So(c.comps.Vaults.CheckInvariants(c.app.DeliverStore(), c.vaultID), ShouldBeNil)
		})

		Convey("Harvested profit pays the fee and follows holder preferences", func() {
			c.deposit(c.alice, usdc(3000, 0))
			c.deposit(c.bob, usdc(1000, 0))
			c.mustDeliver(c.alice, &payout.SetPreferenceMsg{
				Metadata:    &harvest.Metadata{Schema: 1},
				Holder:      addr(c.alice),
				Campaign:    "clean-water",
				Beneficiary: c.charity,
				Allocation:  4000,
			})

			c.block(time.Hour)
			profit := usdc(100, 0)
			c.mustDeliver(c.governor, &yieldsim.AccrueMsg{
				Metadata: &harvest.Metadata{Schema: 1},
				Venue:    venue.Name(),
				Amount:   &profit,
			})
			// Anyone may trigger a harvest.
			c.mustDeliver(c.carol, &vault.HarvestMsg{
				Metadata: &harvest.Metadata{Schema: 1},
				VaultID:  c.vaultID,
			})

			So(c.balance(c.treasury, "USDC"), ShouldResemble, usdc(2, 500000000))
			So(c.balance(payout.CampaignCondition("clean-water").Address(), "USDC"), ShouldResemble, usdc(29, 250000000))
			So(c.balance(c.charity, "USDC"), ShouldResemble, usdc(43, 875000000))
			So(c.balance(addr(c.alice), "USDC"), ShouldResemble, usdc(7000, 0))
			So(c.balance(addr(c.bob), "USDC"), ShouldResemble, usdc(9024, 375000000))
			So(c.comps.Vaults.CheckInvariants(c.app.DeliverStore(), c.vaultID), ShouldBeNil)
		})

		Convey("A fee increase waits for the timelock", func() {
			res := c.mustDeliver(c.governor, &payout.ProposeFeeMsg{
				Metadata:  &harvest.Metadata{Schema: 1},
				Ratio:     400,
				Recipient: c.treasury,
			})
			So(res.Log, ShouldEqual, "pending")
			proposalID := res.Data
			proposed := c.now
			execute := &payout.ExecuteFeeMsg{
				Metadata:   &harvest.Metadata{Schema: 1},
				ProposalID: proposalID,
			}

			c.blockAt(proposed.Add(7*24*time.Hour - time.Second))
			_, err := c.deliver(c.bob, execute)
			So(payout.ErrTimelockNotExpired.Is(err), ShouldBeTrue)

			c.blockAt(proposed.Add(7 * 24 * time.Hour))
			c.mustDeliver(c.bob, execute)
			policy, err := c.comps.Payout.FeePolicy(c.app.DeliverStore())
			So(err, ShouldBeNil)
			So(policy.Ratio, ShouldEqual, harvest.Ratio(400))
		})

		Convey("Stake placed after the snapshot cannot vote", func() {
			stakeMsg := func(k *crypto.PrivateKey, n int64) *stake.StakeMsg {
				amount := coin.NewCoin(n, 0, "HRV")
				return &stake.StakeMsg{
					Metadata:  &harvest.Metadata{Schema: 1},
					Supporter: addr(k),
					Campaign:  "clean-water",
					Amount:    &amount,
				}
			}
			c.mustDeliver(c.carol, stakeMsg(c.carol, 100))

			c.block(5 * time.Minute)
			start := c.now.Add(5 * time.Minute)
			res := c.mustDeliver(c.curator, &checkpoint.ScheduleMsg{
				Metadata:    &harvest.Metadata{Schema: 1},
				Campaign:    "clean-water",
				WindowStart: harvest.AsUnixTime(start),
				WindowEnd:   harvest.AsUnixTime(start.Add(30 * time.Minute)),
				Quorum:      1000,
			})
			index := orm.DecodeSequence(res.Data)

			tick := c.blockAt(start)
			So(tick.Log, ShouldContainSubstring, "opened clean-water/1")
			snapshot := c.app.Height() - 1

			// S+1
			c.block(time.Minute)
			c.mustDeliver(c.dave, stakeMsg(c.dave, 500))

			// S+2
			c.block(time.Minute)
			vote := func(k *crypto.PrivateKey) error {
				_, err := c.deliver(k, &checkpoint.VoteMsg{
					Metadata: &harvest.Metadata{Schema: 1},
					Voter:    addr(k),
					Campaign: "clean-water",
					Index:    index,
					Support:  true,
				})
				return err
			}
			So(checkpoint.ErrNotEligible.Is(vote(c.dave)), ShouldBeTrue)
			So(vote(c.carol), ShouldBeNil)

			cp, err := c.comps.Checkpoint.Checkpoint(c.app.DeliverStore(), "clean-water", index)
			So(err, ShouldBeNil)
			So(cp.SnapshotHeight, ShouldEqual, snapshot)
			So(*cp.VotesFor, ShouldResemble, coin.NewCoin(100, 0, "HRV"))
			So(*cp.TotalEligible, ShouldResemble, coin.NewCoin(100, 0, "HRV"))

			c.blockAt(start.Add(30 * time.Minute))
			res = c.mustDeliver(c.curator, &checkpoint.FinalizeMsg{
				Metadata: &harvest.Metadata{Schema: 1},
				Campaign: "clean-water",
				Index:    index,
			})
			So(res.Log, ShouldEqual, checkpoint.Status_Succeeded.String())
		})

		Convey("Transactions without a known signer are rejected", func() {
			tx, err := harvestd.NewTx(&vault.HarvestMsg{
				Metadata: &harvest.Metadata{Schema: 1},
				VaultID:  c.vaultID,
			})
			So(err, ShouldBeNil)
			_, err = c.app.Deliver(tx)
			So(errors.ErrUnauthorized.Is(err), ShouldBeTrue)
		})

		Convey("Committed state survives a new block", func() {
			c.deposit(c.alice, usdc(1000, 0))
			c.block(5 * time.Second)
			id, err := c.app.Commit()
			So(err, ShouldBeNil)
			So(id.Version, ShouldEqual, int64(2))
			So(c.balance(addr(c.alice), "USDC"), ShouldResemble, usdc(9000, 0))
		})
	})
}
