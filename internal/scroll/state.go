// ABOUTME: Per-identity daily state with day progression and tear commit rules
// ABOUTME: Pure state transitions; callers supply the clock and handle persistence

package scroll

import "time"

// UserState is the authoritative daily state of one identity.
type UserState struct {
	Identity         string    `json:"id"`
	CurrentDay       int       `json:"current_day"`
	TotalEntries     int       `json:"total_entries"`
	Streak           int       `json:"streak"`
	CultivationLevel int       `json:"cultivation_level"`
	LastActiveAt     time.Time `json:"last_active_at"`
	LastResult       *Result   `json:"last_result,omitempty"`
	HasActedToday    bool      `json:"has_acted_today"`
}

// NewUserState returns the state of an identity seen for the first time.
func NewUserState(identity string, now time.Time) UserState {
	return UserState{
		Identity:         identity,
		CurrentDay:       1,
		CultivationLevel: 1,
		LastActiveAt:     now.UTC(),
	}
}

// Clone returns a deep copy of s.
func (s UserState) Clone() UserState {
	if s.LastResult != nil {
		r := *s.LastResult
		s.LastResult = &r
	}
	return s
}

// Normalize repairs a state loaded from an untrusted source: counters are
// floored, CurrentDay is at least 1 and CultivationLevel is recomputed.
func (s *UserState) Normalize() {
	if s.CurrentDay < 1 {
		s.CurrentDay = 1
	}
	if s.TotalEntries < 0 {
		s.TotalEntries = 0
	}
	if s.Streak < 0 {
		s.Streak = 0
	}
	s.CultivationLevel = Level(s.TotalEntries)
	s.LastActiveAt = s.LastActiveAt.UTC()
}

// DaysBetween returns the number of UTC calendar days from 'from' to 'to'.
// Time of day is ignored. A 'to' before 'from' yields 0.
func DaysBetween(from, to time.Time) int {
	f, t := from.UTC(), to.UTC()
	fromDate := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	days := int(toDate.Sub(fromDate) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// Advance applies day progression at now and returns the number of days
// elapsed since LastActiveAt. When at least one day passed, the daily gate is
// reopened, the last result cleared, the streak continued or reset, and
// LastActiveAt moved to now so the same days are never counted twice.
func (s *UserState) Advance(now time.Time) int {
	if s.LastActiveAt.IsZero() {
		s.LastActiveAt = now.UTC()
		return 0
	}

	days := DaysBetween(s.LastActiveAt, now)
	if days == 0 {
		return 0
	}

	s.CurrentDay += days
	s.HasActedToday = false
	s.LastResult = nil
	if days == 1 {
		s.Streak++
	} else {
		s.Streak = 0
	}
	s.LastActiveAt = now.UTC()
	return days
}

// Commit records r as today's tear. It returns false and leaves s untouched
// when today's tear has already been committed.
func (s *UserState) Commit(r Result, now time.Time) bool {
	if s.HasActedToday {
		return false
	}

	s.TotalEntries++
	s.LastActiveAt = now.UTC()
	s.HasActedToday = true
	s.LastResult = &r
	s.CultivationLevel = Level(s.TotalEntries)
	return true
}

// EntryFor returns the history entry recording r on the current day.
func (s UserState) EntryFor(r Result, at time.Time) Entry {
	return Entry{
		Identity:     s.Identity,
		Day:          s.CurrentDay,
		EntryClass:   r.EntryClass,
		NumericValue: r.Value,
		CreatedAt:    at.UTC(),
	}
}
