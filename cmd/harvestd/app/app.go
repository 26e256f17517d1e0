/*
Package harvestd links together all the various components
to construct the harvest application.
*/
package harvestd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/app"
	"github.com/iov-one/harvest/store/iavl"
	"github.com/iov-one/harvest/x"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/checkpoint"
	"github.com/iov-one/harvest/x/payout"
	"github.com/iov-one/harvest/x/roles"
	"github.com/iov-one/harvest/x/sigs"
	"github.com/iov-one/harvest/x/stake"
	"github.com/iov-one/harvest/x/utils"
	"github.com/iov-one/harvest/x/vault"
	"github.com/iov-one/harvest/x/yieldsim"
	"github.com/tendermint/tendermint/libs/log"
)

// VenueConfig declares a simulated yield venue. The venue is registered as
// a vault adapter under its name.
type VenueConfig struct {
	Name   string
	Ticker string
}

// DefaultVenues is used when no venue is configured.
var DefaultVenues = []VenueConfig{
	{Name: "sim_usdc", Ticker: "USDC"},
}

// Components holds every extension of the application. All of them share
// one cash controller, one role oracle and one re-entrancy guard.
type Components struct {
	Cash       cash.Controller
	Oracle     roles.Oracle
	Vaults     *vault.Keeper
	Payout     *payout.Router
	Stakes     *stake.Keeper
	Checkpoint *checkpoint.Engine
	Venues     []*yieldsim.Venue
}

// NewComponents wires the extensions together. The payout router receives
// the profit of every vault, and the checkpoint engine halts campaigns in
// the router.
func NewComponents(venues ...VenueConfig) *Components {
	if len(venues) == 0 {
		venues = DefaultVenues
	}
	ctrl := cash.NewController()
	oracle := roles.NewStoreOracle()
	guard := harvest.NewGuard()

	keeper := vault.NewKeeper(ctrl, oracle, guard)
	router := payout.NewRouter(keeper, ctrl, oracle, guard)
	keeper.WithDistributor(router)
	stakes := stake.NewKeeper(ctrl, guard)

	c := &Components{
		Cash:       ctrl,
		Oracle:     oracle,
		Vaults:     keeper,
		Payout:     router,
		Stakes:     stakes,
		Checkpoint: checkpoint.NewEngine(stakes, router, oracle, guard),
	}
	for _, vc := range venues {
		v := yieldsim.NewVenue(vc.Name, vc.Ticker, ctrl)
		keeper.RegisterAdapter(vc.Name, v)
		c.Venues = append(c.Venues, v)
	}
	return c
}

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return sigs.Authenticate{}
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// a bad tx still increments the nonce of its signers
		sigs.NewDecorator(),
		utils.NewSavepoint(),
	)
}

// Router returns a router dispatching to every extension.
func (c *Components) Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	cash.RegisterRoutes(r, authFn, c.Cash)
	vault.RegisterRoutes(r, authFn, c.Vaults)
	payout.RegisterRoutes(r, authFn, c.Payout)
	yieldsim.RegisterRoutes(r, authFn, c.Oracle, c.Venues...)
	stake.RegisterRoutes(r, authFn, c.Stakes)
	checkpoint.RegisterRoutes(r, authFn, c.Checkpoint)
	return r
}

// Stack wires up the router with the decorator chain.
func (c *Components) Stack() harvest.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(c.Router(authFn))
}

// Ticker runs at the beginning of every block.
func (c *Components) Ticker() harvest.Ticker {
	return app.ChainTickers(c.Checkpoint)
}

// Initializer loads the genesis state. Vaults are created before venues are
// bound to them.
func (c *Components) Initializer() harvest.Initializer {
	return harvest.ChainInitializers(
		sigs.Initializer{},
		cash.Initializer{},
		roles.Initializer{},
		&vault.Initializer{Keeper: c.Vaults},
		&yieldsim.Initializer{Venues: c.Venues},
		&payout.Initializer{Router: c.Payout},
		&stake.Initializer{},
		&checkpoint.Initializer{},
	)
}

// Application constructs the application on top of given store.
func (c *Components) Application(kv harvest.CommitKVStore, logger log.Logger) (*app.Application, error) {
	store, err := app.NewCommitStore(kv)
	if err != nil {
		return nil, err
	}
	return app.NewApplication(store, c.Stack(), c.Ticker(), c.Initializer(), logger)
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (harvest.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.NewMemCommitStore(), nil
	}

	// Expand the path fully
	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("invalid database name: %s", path)
	}

	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name)
}
