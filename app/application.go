package app

import (
	"context"
	"time"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Application processes blocks. Each block starts with BeginBlock that
// runs the tickers, continues with any number of Deliver calls and ends
// with Commit.
type Application struct {
	store       *CommitStore
	handler     harvest.Handler
	ticker      harvest.Ticker
	initializer harvest.Initializer
	logger      log.Logger

	chainID string
	height  int64
	now     time.Time
}

// NewApplication returns an application on top of given store. The ticker
// can be nil.
func NewApplication(
	store *CommitStore,
	handler harvest.Handler,
	ticker harvest.Ticker,
	initializer harvest.Initializer,
	logger log.Logger,
) (*Application, error) {
	chainID, err := loadChainID(store.DeliverStore())
	if err != nil {
		return nil, err
	}
	info, err := store.CommitInfo()
	if err != nil {
		return nil, errors.Wrap(err, "commit info")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Application{
		store:       store,
		handler:     handler,
		ticker:      ticker,
		initializer: initializer,
		logger:      logger,
		chainID:     chainID,
		height:      info.Version,
	}, nil
}

// InitChain stores the chain id and passes the application state to the
// initializer. It can be called only once per store.
func (a *Application) InitChain(gen Genesis) error {
	db := a.store.DeliverStore()
	if err := saveChainID(db, gen.ChainID); err != nil {
		return err
	}
	if err := a.initializer.FromGenesis(gen.AppState, db); err != nil {
		return errors.Wrap(err, "init state")
	}
	a.chainID = gen.ChainID
	a.logger.Info("chain initialized", "chain_id", gen.ChainID)
	return nil
}

// ChainID returns the chain id set at genesis.
func (a *Application) ChainID() string {
	return a.chainID
}

// Height returns the height of the current block.
func (a *Application) Height() int64 {
	return a.height
}

// BeginBlock starts the next block at given time and runs the tickers.
// Block time must not go back.
func (a *Application) BeginBlock(now time.Time) (*harvest.TickResult, error) {
	if a.chainID == "" {
		return nil, errors.Wrap(errors.ErrState, "chain not initialized")
	}
	if now.Before(a.now) {
		return nil, errors.Wrapf(errors.ErrInput, "block time %s before %s", now, a.now)
	}
	a.height++
	a.now = now

	if a.ticker == nil {
		return &harvest.TickResult{}, nil
	}
	ctx := harvest.WithLogInfo(a.blockContext(), "call", "begin_block")
	res, err := a.ticker.Tick(ctx, a.store.DeliverStore())
	if err != nil {
		return nil, errors.Wrapf(err, "tick at height %d", a.height)
	}
	return res, nil
}

// Deliver processes a single transaction in the current block. A failed
// transaction leaves no trace when the handler chain carries a savepoint.
func (a *Application) Deliver(tx harvest.Tx) (*harvest.DeliverResult, error) {
	if a.height == 0 {
		return nil, errors.Wrap(errors.ErrState, "no block started")
	}
	ctx := a.blockContext()
	if msg, err := tx.GetMsg(); err == nil && msg != nil {
		ctx = harvest.WithLogInfo(ctx, "call", "deliver_tx", "path", msg.Path())
	}
	ctx, rec := harvest.WithEventRecorder(ctx)
	res, err := a.handler.Deliver(ctx, a.store.DeliverStore(), tx)
	if err != nil {
		return nil, err
	}
	res.Events = append(res.Events, rec.Events()...)
	return res, nil
}

// Commit persists the current block.
func (a *Application) Commit() (harvest.CommitID, error) {
	id, err := a.store.Commit()
	if err != nil {
		return id, errors.Wrap(err, "commit")
	}
	a.logger.Info("block committed", "height", a.height, "version", id.Version)
	return id, nil
}

// DeliverStore gives read and write access to the state of the current
// block.
func (a *Application) DeliverStore() harvest.CacheableKVStore {
	return a.store.DeliverStore()
}

func (a *Application) blockContext() harvest.Context {
	ctx := harvest.WithHeight(context.Background(), a.height)
	ctx = harvest.WithBlockTime(ctx, a.now)
	ctx = harvest.WithChainID(ctx, a.chainID)
	return harvest.WithLogger(ctx, a.logger)
}
