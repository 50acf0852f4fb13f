// ABOUTME: Orchestrates one session of the daily ritual over the state store and generator
// ABOUTME: Owns the session, gates tears once per day and serializes commits with an in-flight flag

// Package ritual drives the daily tear for one identity. A Ritual owns its
// memory.Session; nothing about the session lives in package state.
package ritual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/2389/wen/internal/manifest"
	"github.com/2389/wen/internal/memory"
	"github.com/2389/wen/internal/scroll"
)

// ErrNotReady is returned when an operation needs a loaded session.
var ErrNotReady = errors.New("ritual not ready")

// Generator produces the result of a tear. *manifest.Generator implements it.
type Generator interface {
	GenerateFor(s manifest.StateReader) scroll.Result
}

// TearResult describes a tear attempt. Result and Milestone are set only when
// Outcome is TearCommitted; on TearRejected Result holds the stored result of
// the day, if any.
type TearResult struct {
	Outcome   Outcome
	Result    scroll.Result
	Milestone string
	State     scroll.UserState
}

// Ritual is the state machine for one session.
type Ritual struct {
	store   *memory.Store
	gen     Generator
	session *memory.Session
	logger  *slog.Logger

	mu       sync.Mutex
	phase    Phase
	err      error
	inFlight atomic.Bool
}

// Option configures a Ritual.
type Option func(*Ritual)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ritual) { r.logger = logger }
}

// New returns an uninitialized Ritual.
func New(st *memory.Store, gen Generator, opts ...Option) *Ritual {
	r := &Ritual{
		store:   st,
		gen:     gen,
		session: memory.NewSession(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "ritual")
	return r
}

// Phase returns the current phase.
func (r *Ritual) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Err returns the failure that put the ritual in PhaseError.
func (r *Ritual) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// State returns a copy of the session state.
func (r *Ritual) State() scroll.UserState {
	return r.session.Snapshot()
}

func (r *Ritual) setPhase(p Phase, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != p {
		r.logger.Debug("phase change", "from", r.phase, "to", p)
	}
	r.phase = p
	r.err = err
}

// Begin loads identity and settles in Intact or Torn. Any failure puts the
// ritual in PhaseError; calling Begin again is the only way out of it.
func (r *Ritual) Begin(ctx context.Context, identity string) (Phase, error) {
	r.setPhase(PhaseLoading, nil)

	state, err := r.store.Initialize(ctx, r.session, identity)
	if err != nil {
		err = fmt.Errorf("beginning ritual: %w", err)
		r.setPhase(PhaseError, err)
		return PhaseError, err
	}

	phase := PhaseIntact
	if state.HasActedToday {
		phase = PhaseTorn
	}
	r.setPhase(phase, nil)
	r.logger.Info("ritual ready", "id", identity, "phase", phase, "day", state.CurrentDay, "level", state.CultivationLevel)
	return phase, nil
}

// Resume reapplies day progression, typically when the user comes back to a
// long-lived session. A torn scroll becomes intact again on a new day.
func (r *Ritual) Resume(ctx context.Context) (Phase, error) {
	switch p := r.Phase(); p {
	case PhaseIntact, PhaseTorn:
	default:
		return p, ErrNotReady
	}

	days, err := r.store.Reconcile(ctx, r.session)
	if err != nil {
		return r.Phase(), fmt.Errorf("resuming ritual: %w", err)
	}
	if days > 0 && !r.session.HasActedToday() {
		r.setPhase(PhaseIntact, nil)
	}
	return r.Phase(), nil
}

// Release interprets a finished drag gesture and tears when it crossed the
// threshold.
func (r *Ritual) Release(ctx context.Context, g scroll.Gesture) (TearResult, error) {
	switch scroll.InterpretGesture(g, r.session.HasActedToday()) {
	case scroll.DecisionReject:
		return r.rejected(), nil
	case scroll.DecisionSnapBack:
		return TearResult{Outcome: TearSnapBack, State: r.State()}, nil
	default:
		return r.Tear(ctx)
	}
}

// Tear generates and commits today's result. A second call while one is in
// flight returns TearIgnored. An invalid result fails this attempt only and
// leaves the state untouched.
func (r *Ritual) Tear(ctx context.Context) (TearResult, error) {
	switch r.Phase() {
	case PhaseIntact:
	case PhaseTorn:
		return r.rejected(), nil
	default:
		return TearResult{Outcome: TearIgnored, State: r.State()}, nil
	}

	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("tear already in flight, ignoring")
		return TearResult{Outcome: TearIgnored, State: r.State()}, nil
	}
	defer r.inFlight.Store(false)

	result := r.gen.GenerateFor(r.session)
	if err := manifest.Validate(result); err != nil {
		r.logger.Error("generated result rejected", "kind", result.Kind, "error", err)
		return TearResult{Outcome: TearIgnored, State: r.State()}, err
	}

	if !r.store.RecordTear(ctx, r.session, result) {
		r.setPhase(PhaseTorn, nil)
		return r.rejected(), nil
	}
	r.setPhase(PhaseTorn, nil)

	state := r.State()
	res := TearResult{Outcome: TearCommitted, Result: result, State: state}
	if m := manifest.Milestone(state.TotalEntries); m != "" {
		res.Milestone = m
		r.logger.Info("milestone reached", "id", state.Identity, "milestone", m, "total", state.TotalEntries)
	}
	return res, nil
}

func (r *Ritual) rejected() TearResult {
	res := TearResult{Outcome: TearRejected, State: r.State()}
	if last := r.session.LastResult(); last != nil {
		res.Result = *last
	}
	return res
}

// History returns up to limit past entries for the session identity.
func (r *Ritual) History(ctx context.Context, limit int) ([]scroll.Entry, error) {
	return r.store.History(ctx, r.session, limit)
}

// Forget clears the device cache of identity and returns the ritual to
// PhaseUninitialized.
func (r *Ritual) Forget(ctx context.Context, identity string) error {
	if err := r.store.Forget(ctx, r.session, identity); err != nil {
		return err
	}
	r.setPhase(PhaseUninitialized, nil)
	return nil
}

var _ Generator = (*manifest.Generator)(nil)
