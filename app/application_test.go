package app

import (
	"strconv"
	"testing"
	"time"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/store/iavl"
	"github.com/iov-one/harvest/weavetest"
	"github.com/iov-one/harvest/x/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInitializer struct {
	opts harvest.Options
}

func (r *recordingInitializer) FromGenesis(opts harvest.Options, db harvest.KVStore) error {
	r.opts = opts
	return db.Set([]byte("genesis"), []byte("done"))
}

// emittingHandler emits a single event for every delivered transaction.
type emittingHandler struct{}

func (emittingHandler) Deliver(ctx harvest.Context, db harvest.KVStore, tx harvest.Tx) (*harvest.DeliverResult, error) {
	height, _ := harvest.GetHeight(ctx)
	harvest.EmitEvent(ctx, harvest.NewEvent("test/delivered", "chain", harvest.GetChainID(ctx)))
	return &harvest.DeliverResult{Log: strconv.FormatInt(height, 10)}, nil
}

func newTestApp(t testing.TB, h harvest.Handler, ticker harvest.Ticker) (*Application, *recordingInitializer) {
	t.Helper()
	cs, err := NewCommitStore(iavl.NewMemCommitStore())
	require.NoError(t, err)
	rec := &recordingInitializer{}
	a, err := NewApplication(cs, h, ticker, rec, nil)
	require.NoError(t, err)
	return a, rec
}

func TestApplicationLifecycle(t *testing.T) {
	ticks := staticTicker{res: &harvest.TickResult{Log: "ticked"}}
	a, rec := newTestApp(t, emittingHandler{}, ticks)
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test/msg"}}

	_, err := a.BeginBlock(time.Now())
	if !errors.ErrState.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	err = a.InitChain(Genesis{
		ChainID:  "harvest-app",
		AppState: harvest.Options{"conf": []byte(`{}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "harvest-app", a.ChainID())
	assert.Contains(t, rec.opts, "conf")

	err = a.InitChain(Genesis{ChainID: "harvest-other"})
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	_, err = a.Deliver(tx)
	if !errors.ErrState.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	now := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	tres, err := a.BeginBlock(now)
	require.NoError(t, err)
	assert.Equal(t, "ticked", tres.Log)
	assert.EqualValues(t, 1, a.Height())

	res, err := a.Deliver(tx)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	chain, _ := res.Events[0].Attr("chain")
	assert.Equal(t, "harvest-app", chain)
	assert.Equal(t, "1", res.Log)

	id, err := a.Commit()
	require.NoError(t, err)
	assert.EqualValues(t, 1, id.Version)
	assert.NotEmpty(t, id.Hash)

	_, err = a.BeginBlock(now.Add(-time.Second))
	if !errors.ErrInput.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	assert.EqualValues(t, 1, a.Height())

	_, err = a.BeginBlock(now.Add(5 * time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 2, a.Height())

	v, err := a.DeliverStore().Get([]byte("genesis"))
	require.NoError(t, err)
	assert.Equal(t, []byte("done"), v)
}

func TestApplicationInvalidChainID(t *testing.T) {
	a, _ := newTestApp(t, emittingHandler{}, nil)
	err := a.InitChain(Genesis{ChainID: "x"})
	if !errors.ErrInput.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	assert.Equal(t, "", a.ChainID())
}

func TestFailedDeliverIsNotWritten(t *testing.T) {
	h := &weavetest.WriteHandler{Key: []byte("k"), Value: []byte("v"), Err: errors.ErrAmount}
	stack := ChainDecorators(utils.NewSavepoint()).WithHandler(h)
	a, _ := newTestApp(t, stack, nil)
	require.NoError(t, a.InitChain(Genesis{ChainID: "harvest-app"}))
	_, err := a.BeginBlock(time.Now())
	require.NoError(t, err)

	_, err = a.Deliver(&weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test/msg"}})
	if !errors.ErrAmount.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	ok, err := a.DeliverStore().Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}
