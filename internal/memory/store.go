// ABOUTME: State store reconciling remote records, the device cache and the clock
// ABOUTME: Initialize, RecordTear, Reconcile, History and Forget over a Session

// Package memory owns the daily state of an identity.
//
// A Store combines three sources: the remote record store (authoritative
// when reachable), a device-local cache (used when it is not), and a clock.
// Remote failures never surface as errors from Initialize or RecordTear;
// they degrade to local-only operation and are logged.
//
// # Merge policy
//
// A successful remote fetch wins, except when the device cache holds the
// same identity with strictly more total entries, which means a tear was
// committed while the remote was unreachable. The remote record is then
// kept as the base and the cache contributes its entry count. Day counters
// take the larger of the two, so neither side moves backwards. Today's
// committed flag and result come from the cache unless the remote has
// already moved to a later calendar day. The merged record is pushed back.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/wen/internal/remote"
	"github.com/2389/wen/internal/scroll"
	"github.com/2389/wen/internal/store"
)

var tracer = otel.Tracer("github.com/2389/wen/internal/memory")

// ErrNoIdentity is returned when an operation needs an identity and has none.
var ErrNoIdentity = errors.New("no identity")

// Remote is the record store as seen by the state store. *remote.Client
// implements it.
type Remote interface {
	GetUser(ctx context.Context, id string) remote.UserLookup
	CreateUser(ctx context.Context, s scroll.UserState) (*scroll.UserState, error)
	PatchUser(ctx context.Context, id string, patch scroll.UserPatch) (*scroll.UserState, error)
	CreateEntry(ctx context.Context, e scroll.Entry) (*scroll.Entry, error)
	History(ctx context.Context, id string, limit int) ([]scroll.Entry, error)
}

// Cache is the device-local persistence: one state snapshot plus a journal
// of committed entries.
type Cache interface {
	store.LocalStateStore
	store.EntryStore
}

// Store reads and writes daily state for sessions.
type Store struct {
	remote Remote
	cache  Cache
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a state store over a remote and a device cache.
func NewStore(r Remote, c Cache, opts ...Option) *Store {
	s := &Store{
		remote: r,
		cache:  c,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "memory")
	return s
}

// Initialize loads the state of identity into sess and applies day
// progression. Remote failures fall back to the device cache, then to a
// fresh record; only an empty identity or a cancelled context is an error.
func (s *Store) Initialize(ctx context.Context, sess *Session, identity string) (scroll.UserState, error) {
	if identity == "" {
		return scroll.UserState{}, ErrNoIdentity
	}
	if err := ctx.Err(); err != nil {
		return scroll.UserState{}, err
	}

	ctx, span := tracer.Start(ctx, "memory.Initialize", trace.WithAttributes(attribute.String("wen.identity", identity)))
	defer span.End()

	now := s.now()
	cached := s.loadCache(ctx, identity)

	lookup := s.remote.GetUser(ctx, identity)
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return scroll.UserState{}, fmt.Errorf("initializing %s: %w", identity, err)
	}
	span.SetAttributes(attribute.String("wen.lookup", lookup.Outcome.String()))

	var state scroll.UserState
	push := false

	switch lookup.Outcome {
	case remote.Found:
		state = lookup.User.Clone()
		state.Normalize()
		if cached != nil && cached.TotalEntries > state.TotalEntries {
			s.logger.Info("device cache ahead of remote, merging local entries",
				"id", identity, "local_entries", cached.TotalEntries, "remote_entries", state.TotalEntries)
			state = mergeAhead(state, cached.Clone())
			push = true
		}

	case remote.NotFound:
		if cached != nil {
			state = *cached
		} else {
			state = scroll.NewUserState(identity, now)
		}

	default:
		s.logger.Warn("remote unavailable, using local state", "id", identity, "error", lookup.Err)
		if cached != nil {
			state = *cached
		} else {
			state = scroll.NewUserState(identity, now)
		}
	}

	state.Identity = identity
	days := state.Advance(now)
	if days > 0 {
		s.logger.Debug("day progressed", "id", identity, "days", days, "current_day", state.CurrentDay, "streak", state.Streak)
	}

	sess.set(state)
	s.saveCache(ctx, state)

	switch {
	case lookup.Outcome == remote.NotFound:
		if _, err := s.remote.CreateUser(ctx, state); err != nil {
			s.logger.Warn("creating remote user failed", "id", identity, "error", err)
		} else {
			s.logger.Info("created remote user", "id", identity)
		}
	case lookup.Outcome == remote.Found && (days > 0 || push):
		s.pushUser(ctx, state)
	}

	return state.Clone(), nil
}

// mergeAhead folds a device cache that has committed more tears into the
// remote record rem.
func mergeAhead(rem, cached scroll.UserState) scroll.UserState {
	merged := rem
	merged.TotalEntries = cached.TotalEntries
	merged.CurrentDay = max(rem.CurrentDay, cached.CurrentDay)
	merged.Streak = max(rem.Streak, cached.Streak)

	// Same calendar day, or the cache is later: its tear belongs to today.
	if scroll.DaysBetween(cached.LastActiveAt, rem.LastActiveAt) == 0 {
		merged.HasActedToday = rem.HasActedToday || cached.HasActedToday
		if cached.LastResult != nil {
			merged.LastResult = cached.LastResult
		}
	}
	if cached.LastActiveAt.After(rem.LastActiveAt) {
		merged.LastActiveAt = cached.LastActiveAt
	}

	merged.Normalize()
	return merged
}

// Reconcile reapplies day progression to an initialized session, for example
// when a long-running presentation regains focus. It returns the number of
// days that elapsed.
func (s *Store) Reconcile(ctx context.Context, sess *Session) (int, error) {
	if !sess.Loaded() {
		return 0, ErrNoIdentity
	}

	now := s.now()
	var days int
	state, changed := sess.update(func(st *scroll.UserState) bool {
		days = st.Advance(now)
		return days > 0
	})
	if !changed {
		return 0, nil
	}

	s.saveCache(ctx, state)
	s.pushUser(ctx, state)
	return days, nil
}

// RecordTear commits result as today's tear. It returns false, and changes
// nothing, if today's tear was already committed. The device cache is always
// written; remote writes are best effort.
func (s *Store) RecordTear(ctx context.Context, sess *Session, result scroll.Result) bool {
	now := s.now()

	var entry scroll.Entry
	state, committed := sess.update(func(st *scroll.UserState) bool {
		if st.Identity == "" || !st.Commit(result, now) {
			return false
		}
		entry = st.EntryFor(result, now)
		return true
	})
	if !committed {
		return false
	}

	ctx, span := tracer.Start(ctx, "memory.RecordTear", trace.WithAttributes(
		attribute.String("wen.identity", state.Identity),
		attribute.Int("wen.day", state.CurrentDay),
		attribute.String("wen.kind", string(result.Kind)),
	))
	defer span.End()

	s.saveCache(ctx, state)
	journal := entry
	if err := s.cache.CreateEntry(ctx, &journal); err != nil && !errors.Is(err, store.ErrDuplicateEntry) {
		s.logger.Warn("journaling entry failed", "id", state.Identity, "day", entry.Day, "error", err)
	}

	s.pushEntry(ctx, state, entry)
	s.pushUser(ctx, state)

	s.logger.Debug("tear recorded", "id", state.Identity, "day", state.CurrentDay, "kind", result.Kind, "total", state.TotalEntries)
	return true
}

// History returns up to limit committed entries, most recent first. When the
// remote cannot answer, the device journal is used instead.
func (s *Store) History(ctx context.Context, sess *Session, limit int) ([]scroll.Entry, error) {
	identity := sess.Identity()
	if identity == "" {
		return nil, ErrNoIdentity
	}
	if limit <= 0 {
		limit = scroll.DefaultHistoryLimit
	}

	ctx, span := tracer.Start(ctx, "memory.History", trace.WithAttributes(attribute.String("wen.identity", identity)))
	defer span.End()

	entries, err := s.remote.History(ctx, identity, limit)
	if err == nil {
		return entries, nil
	}
	s.logger.Warn("remote history unavailable, using device journal", "id", identity, "error", err)

	entries, err = s.cache.ListEntries(ctx, identity, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history unavailable")
		return nil, fmt.Errorf("reading local history: %w", err)
	}
	return entries, nil
}

// Forget clears the device cache of identity and empties sess. Remote
// records are left untouched.
func (s *Store) Forget(ctx context.Context, sess *Session, identity string) error {
	if identity == "" {
		return ErrNoIdentity
	}

	ls, err := s.cache.GetLocalState(ctx, scroll.CacheKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("reading local state: %w", err)
	case ls.Identity == identity:
		if err := s.cache.DeleteLocalState(ctx, scroll.CacheKey); err != nil {
			return fmt.Errorf("clearing local state: %w", err)
		}
	}

	if err := s.cache.DeleteEntries(ctx, identity); err != nil {
		return fmt.Errorf("clearing local journal: %w", err)
	}

	if sess != nil {
		sess.reset()
	}
	s.logger.Info("device state cleared", "id", identity)
	return nil
}

// loadCache returns the cached state when it belongs to identity.
func (s *Store) loadCache(ctx context.Context, identity string) *scroll.UserState {
	ls, err := s.cache.GetLocalState(ctx, scroll.CacheKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("reading device cache failed", "error", err)
		}
		return nil
	}
	if ls.Identity != identity || ls.State.Identity != identity {
		s.logger.Debug("device cache belongs to another identity, ignoring", "cached", ls.Identity)
		return nil
	}

	state := ls.State.Clone()
	state.Normalize()
	return &state
}

func (s *Store) saveCache(ctx context.Context, state scroll.UserState) {
	ls := &store.LocalState{
		Key:       scroll.CacheKey,
		Identity:  state.Identity,
		State:     state,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.cache.PutLocalState(ctx, ls); err != nil {
		s.logger.Warn("writing device cache failed", "id", state.Identity, "error", err)
	}
}

// pushUser sends the full state to the remote, creating the record if the
// remote has lost it.
func (s *Store) pushUser(ctx context.Context, state scroll.UserState) {
	_, err := s.remote.PatchUser(ctx, state.Identity, scroll.PatchFrom(state))
	if errors.Is(err, remote.ErrUserNotFound) {
		_, err = s.remote.CreateUser(ctx, state)
	}
	if err != nil {
		s.logger.Warn("syncing remote user failed", "id", state.Identity, "error", err)
	}
}

func (s *Store) pushEntry(ctx context.Context, state scroll.UserState, entry scroll.Entry) {
	_, err := s.remote.CreateEntry(ctx, entry)
	if errors.Is(err, remote.ErrUserNotFound) {
		if _, err = s.remote.CreateUser(ctx, state); err == nil {
			_, err = s.remote.CreateEntry(ctx, entry)
		}
	}
	switch {
	case err == nil:
	case errors.Is(err, remote.ErrDuplicateEntry):
		s.logger.Debug("remote already has entry", "id", entry.Identity, "day", entry.Day)
	default:
		s.logger.Warn("recording remote entry failed", "id", entry.Identity, "day", entry.Day, "error", err)
	}
}

var _ Remote = (*remote.Client)(nil)
