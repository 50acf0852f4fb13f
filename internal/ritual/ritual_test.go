// ABOUTME: Tests for the ritual state machine
// ABOUTME: Runs the state store against a live record store backed by a MockStore

package ritual

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/wen/internal/api"
	"github.com/2389/wen/internal/config"
	"github.com/2389/wen/internal/manifest"
	"github.com/2389/wen/internal/memory"
	"github.com/2389/wen/internal/remote"
	"github.com/2389/wen/internal/scroll"
	"github.com/2389/wen/internal/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) nextDay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, 1)
}

type fixture struct {
	clock *testClock
	cache *store.MockStore
	store *memory.Store
	url   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultStoreConfig()
	srv := api.NewWithStore(&cfg, store.NewMockStore(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})

	f := &fixture{
		clock: &testClock{now: time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)},
		cache: store.NewMockStore(),
		url:   ts.URL,
	}
	f.store = memory.NewStore(remote.NewClient(ts.URL), f.cache, memory.WithClock(f.clock.Now))
	return f
}

// stubGenerator returns a fixed result, optionally blocking until released.
type stubGenerator struct {
	result  scroll.Result
	entered chan struct{}
	release chan struct{}
}

func (g *stubGenerator) GenerateFor(manifest.StateReader) scroll.Result {
	if g.entered != nil {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.result
}

func TestBegin_FreshIdentityIsIntact(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, manifest.NewSeededGenerator(1))

	assert.Equal(t, PhaseUninitialized, r.Phase())

	phase, err := r.Begin(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, PhaseIntact, phase)
	assert.Equal(t, 1, r.State().CurrentDay)
}

func TestBegin_ErrorPhase(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, manifest.NewSeededGenerator(1))

	phase, err := r.Begin(t.Context(), "")
	assert.ErrorIs(t, err, memory.ErrNoIdentity)
	assert.Equal(t, PhaseError, phase)
	assert.Equal(t, PhaseError, r.Phase())
	assert.Error(t, r.Err())

	_, err = r.Resume(t.Context())
	assert.ErrorIs(t, err, ErrNotReady)

	res, err := r.Tear(t.Context())
	require.NoError(t, err)
	assert.Equal(t, TearIgnored, res.Outcome)

	phase, err = r.Begin(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, PhaseIntact, phase)
	assert.NoError(t, r.Err())
}

func TestTear_CommitsOncePerDay(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, manifest.NewSeededGenerator(7))
	ctx := t.Context()

	_, err := r.Begin(ctx, "u1")
	require.NoError(t, err)

	first, err := r.Tear(ctx)
	require.NoError(t, err)
	assert.Equal(t, TearCommitted, first.Outcome)
	assert.NoError(t, manifest.Validate(first.Result))
	assert.Equal(t, 1, first.State.TotalEntries)
	assert.Equal(t, PhaseTorn, r.Phase())

	second, err := r.Tear(ctx)
	require.NoError(t, err)
	assert.Equal(t, TearRejected, second.Outcome)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, 1, second.State.TotalEntries)

	other := New(f.store, manifest.NewSeededGenerator(7))
	phase, err := other.Begin(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, PhaseTorn, phase, "a new session on the same day sees the torn scroll")
}

func TestResume_NewDayRestoresIntact(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, manifest.NewSeededGenerator(3))
	ctx := t.Context()

	_, err := r.Begin(ctx, "u1")
	require.NoError(t, err)
	_, err = r.Tear(ctx)
	require.NoError(t, err)

	phase, err := r.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseTorn, phase, "same day stays torn")

	f.clock.nextDay()
	phase, err = r.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseIntact, phase)

	st := r.State()
	assert.Equal(t, 2, st.CurrentDay)
	assert.Equal(t, 1, st.Streak)
	assert.False(t, st.HasActedToday)

	res, err := r.Tear(ctx)
	require.NoError(t, err)
	assert.Equal(t, TearCommitted, res.Outcome)
	assert.Equal(t, 2, res.State.TotalEntries)
}

func TestTear_InvalidResultLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	gen := &stubGenerator{result: scroll.Result{Kind: "bogus", Display: "?", EntryClass: scroll.EntryTorn}}
	r := New(f.store, gen)
	ctx := t.Context()

	_, err := r.Begin(ctx, "u1")
	require.NoError(t, err)

	res, err := r.Tear(ctx)
	assert.ErrorIs(t, err, manifest.ErrInvalidResult)
	assert.Equal(t, TearIgnored, res.Outcome)
	assert.Equal(t, PhaseIntact, r.Phase())
	assert.Equal(t, 0, r.State().TotalEntries)
	assert.False(t, r.State().HasActedToday)

	gen.result = scroll.Result{Kind: scroll.KindNeutral, Display: "0", EntryClass: scroll.EntryTorn}
	res, err = r.Tear(ctx)
	require.NoError(t, err)
	assert.Equal(t, TearCommitted, res.Outcome)
}

func TestTear_InFlightIsIgnored(t *testing.T) {
	f := newFixture(t)
	gen := &stubGenerator{
		result:  scroll.Result{Kind: scroll.KindIncrement, Display: "+1", Value: 1, EntryClass: scroll.EntryTorn},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := New(f.store, gen)
	ctx := t.Context()

	_, err := r.Begin(ctx, "u1")
	require.NoError(t, err)

	done := make(chan TearResult)
	go func() {
		res, _ := r.Tear(ctx)
		done <- res
	}()
	<-gen.entered

	res, err := r.Tear(ctx)
	require.NoError(t, err)
	assert.Equal(t, TearIgnored, res.Outcome)

	close(gen.release)
	assert.Equal(t, TearCommitted, (<-done).Outcome)
	assert.Equal(t, 1, r.State().TotalEntries)
}

func TestRelease(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, manifest.NewSeededGenerator(11))
	ctx := t.Context()

	_, err := r.Begin(ctx, "u1")
	require.NoError(t, err)

	res, err := r.Release(ctx, scroll.Gesture{StartX: 100, EndX: 130})
	require.NoError(t, err)
	assert.Equal(t, TearSnapBack, res.Outcome)
	assert.Equal(t, PhaseIntact, r.Phase())

	res, err = r.Release(ctx, scroll.Gesture{StartX: 100, EndX: 20})
	require.NoError(t, err)
	assert.Equal(t, TearCommitted, res.Outcome)

	res, err = r.Release(ctx, scroll.Gesture{StartX: 0, EndX: 300})
	require.NoError(t, err)
	assert.Equal(t, TearRejected, res.Outcome)
}

func TestMilestone(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	seed := scroll.NewUserState("u1", f.clock.Now())
	seed.TotalEntries = 6
	seed.CurrentDay = 7
	require.NoError(t, f.cache.PutLocalState(ctx, &store.LocalState{Key: scroll.CacheKey, Identity: "u1", State: seed}))

	r := New(f.store, manifest.NewSeededGenerator(5))
	_, err := r.Begin(ctx, "u1")
	require.NoError(t, err)

	res, err := r.Tear(ctx)
	require.NoError(t, err)
	require.Equal(t, TearCommitted, res.Outcome)
	assert.Equal(t, 7, res.State.TotalEntries)
	assert.Equal(t, "first_week", res.Milestone)
}

func TestForget(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, manifest.NewSeededGenerator(5))
	ctx := t.Context()

	_, err := r.Begin(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, r.Forget(ctx, "u1"))

	assert.Equal(t, PhaseUninitialized, r.Phase())
	_, err = f.cache.GetLocalState(ctx, scroll.CacheKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	r := New(f.store, manifest.NewSeededGenerator(5))
	ctx := t.Context()

	_, err := r.Begin(ctx, "u1")
	require.NoError(t, err)
	_, err = r.Tear(ctx)
	require.NoError(t, err)

	entries, err := r.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Day)
}

func TestPhaseAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "torn", PhaseTorn.String())
	assert.Equal(t, "error", PhaseError.String())
	assert.Equal(t, "committed", TearCommitted.String())
	assert.Equal(t, "snap-back", TearSnapBack.String())
}
