// ABOUTME: Mutex-guarded holder of one identity's in-memory daily state
// ABOUTME: Read-only accessors never perform I/O; mutation goes through the Store

package memory

import (
	"sync"
	"time"

	"github.com/2389/wen/internal/scroll"
)

// Session holds the state of the identity currently using this process. The
// zero value is an empty, unloaded session. A Session is owned by one ritual
// and passed explicitly to the Store and the generator.
type Session struct {
	mu     sync.RWMutex
	state  scroll.UserState
	loaded bool
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Loaded reports whether Initialize has populated the session.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a deep copy of the whole state.
func (s *Session) Snapshot() scroll.UserState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Identity returns the identity the session was loaded for.
func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Identity
}

// CurrentDay returns the 1-based day counter.
func (s *Session) CurrentDay() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentDay
}

// TotalEntries returns how many tears have been committed.
func (s *Session) TotalEntries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TotalEntries
}

// Streak returns the count of consecutive days with activity.
func (s *Session) Streak() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Streak
}

// CultivationLevel returns the level derived from TotalEntries.
func (s *Session) CultivationLevel() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CultivationLevel
}

// LastActiveAt returns when the state last advanced or committed.
func (s *Session) LastActiveAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastActiveAt
}

// HasActedToday reports whether today's tear is already committed.
func (s *Session) HasActedToday() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasActedToday
}

// LastResult returns a copy of today's result, or nil if none.
func (s *Session) LastResult() *scroll.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.LastResult == nil {
		return nil
	}
	r := *s.state.LastResult
	return &r
}

func (s *Session) set(state scroll.UserState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.loaded = true
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = scroll.UserState{}
	s.loaded = false
}

// update runs fn on the state under the write lock and returns a copy of the
// result when fn reports a change.
func (s *Session) update(fn func(*scroll.UserState) bool) (scroll.UserState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn(&s.state) {
		return scroll.UserState{}, false
	}
	return s.state.Clone(), true
}
