// ABOUTME: Validation gate between the generator and the state store
// ABOUTME: Also holds the silent milestone lookup used for logging

package manifest

import (
	"errors"
	"fmt"

	"github.com/2389/wen/internal/scroll"
)

// ErrInvalidResult is returned when a result must not be committed.
var ErrInvalidResult = errors.New("invalid result")

// Validate checks that r is well formed. Only results that pass may be
// committed to a user's state.
func Validate(r scroll.Result) error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidResult, r.Kind)
	}
	if r.Display == "" {
		return fmt.Errorf("%w: empty display", ErrInvalidResult)
	}
	if !r.EntryClass.Valid() {
		return fmt.Errorf("%w: unknown entry class %q", ErrInvalidResult, r.EntryClass)
	}
	if r.Value < 0 {
		return fmt.Errorf("%w: negative value %d", ErrInvalidResult, r.Value)
	}
	return nil
}

var milestones = map[int]string{
	7:   "first_week",
	30:  "first_month",
	100: "centurion",
	365: "year_intact",
}

// Milestone returns the milestone reached at exactly totalEntries, or "" if
// none. Milestones are only logged; they never change a result or state.
func Milestone(totalEntries int) string {
	return milestones[totalEntries]
}
