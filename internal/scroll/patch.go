// ABOUTME: Partial update of a user record as sent over PATCH /user/{id}
// ABOUTME: Apply refuses to move monotonic counters backwards

package scroll

import "time"

// UserPatch carries the fields of a partial user update. Nil fields are left
// unchanged. ClearLastResult removes the stored result.
type UserPatch struct {
	CurrentDay       *int       `json:"current_day,omitempty"`
	TotalEntries     *int       `json:"total_entries,omitempty"`
	Streak           *int       `json:"streak,omitempty"`
	CultivationLevel *int       `json:"cultivation_level,omitempty"`
	LastActiveAt     *time.Time `json:"last_active_at,omitempty"`
	HasActedToday    *bool      `json:"has_acted_today,omitempty"`
	LastResult       *Result    `json:"last_result,omitempty"`
	ClearLastResult  bool       `json:"clear_last_result,omitempty"`
}

// PatchFrom returns a patch carrying every mutable field of s.
func PatchFrom(s UserState) UserPatch {
	s = s.Clone()
	p := UserPatch{
		CurrentDay:       &s.CurrentDay,
		TotalEntries:     &s.TotalEntries,
		Streak:           &s.Streak,
		CultivationLevel: &s.CultivationLevel,
		LastActiveAt:     &s.LastActiveAt,
		HasActedToday:    &s.HasActedToday,
		LastResult:       s.LastResult,
	}
	if s.LastResult == nil {
		p.ClearLastResult = true
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.CurrentDay == nil && p.TotalEntries == nil && p.Streak == nil &&
		p.CultivationLevel == nil && p.LastActiveAt == nil && p.HasActedToday == nil &&
		p.LastResult == nil && !p.ClearLastResult
}

// Apply merges p into s. CurrentDay and TotalEntries only move forward, and
// CultivationLevel is always rederived from TotalEntries.
func (p UserPatch) Apply(s *UserState) {
	if p.CurrentDay != nil && *p.CurrentDay > s.CurrentDay {
		s.CurrentDay = *p.CurrentDay
	}
	if p.TotalEntries != nil && *p.TotalEntries > s.TotalEntries {
		s.TotalEntries = *p.TotalEntries
	}
	if p.Streak != nil {
		s.Streak = *p.Streak
	}
	if p.LastActiveAt != nil {
		s.LastActiveAt = p.LastActiveAt.UTC()
	}
	if p.HasActedToday != nil {
		s.HasActedToday = *p.HasActedToday
	}
	switch {
	case p.LastResult != nil:
		r := *p.LastResult
		s.LastResult = &r
	case p.ClearLastResult:
		s.LastResult = nil
	}
	s.Normalize()
}
