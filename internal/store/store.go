// ABOUTME: Store interfaces and local snapshot type for wen persistence
// ABOUTME: User records and history entries reuse the scroll domain types

package store

import (
	"context"
	"errors"
	"time"

	"github.com/2389/wen/internal/scroll"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when creating a user that already exists
var ErrDuplicateUser = errors.New("user already exists")

// ErrDuplicateEntry is returned when an entry for the same user and day exists
var ErrDuplicateEntry = errors.New("entry already exists for this day")

// Limits applied by ListEntries.
const (
	MaxEntriesLimit = 1000
)

// LocalState is a device-local snapshot of one user's state.
type LocalState struct {
	Key       string
	Identity  string
	State     scroll.UserState
	UpdatedAt time.Time
}

// UserStore persists per-identity daily state.
type UserStore interface {
	// CreateUser inserts a new record. Returns ErrDuplicateUser if the id exists.
	CreateUser(ctx context.Context, user *scroll.UserState) error

	// GetUser returns the record for id or ErrNotFound.
	GetUser(ctx context.Context, id string) (*scroll.UserState, error)

	// UpdateUser replaces every mutable field. Returns ErrNotFound if missing.
	UpdateUser(ctx context.Context, user *scroll.UserState) error
}

// EntryStore persists committed tears.
type EntryStore interface {
	// CreateEntry inserts e, assigning EntryID when empty.
	// Returns ErrDuplicateEntry if the identity already has an entry for e.Day.
	CreateEntry(ctx context.Context, e *scroll.Entry) error

	// ListEntries returns up to limit entries for identity, most recent first.
	// A limit <= 0 uses scroll.DefaultHistoryLimit.
	ListEntries(ctx context.Context, identity string, limit int) ([]scroll.Entry, error)

	// DeleteEntries removes every entry of identity.
	DeleteEntries(ctx context.Context, identity string) error
}

// LocalStateStore persists keyed device-local snapshots.
type LocalStateStore interface {
	// GetLocalState returns the snapshot under key or ErrNotFound.
	GetLocalState(ctx context.Context, key string) (*LocalState, error)

	// PutLocalState inserts or replaces the snapshot under ls.Key.
	PutLocalState(ctx context.Context, ls *LocalState) error

	// DeleteLocalState removes the snapshot under key. Missing keys are not an error.
	DeleteLocalState(ctx context.Context, key string) error
}

// Store combines every persistence interface.
type Store interface {
	UserStore
	EntryStore
	LocalStateStore

	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return scroll.DefaultHistoryLimit
	}
	if limit > MaxEntriesLimit {
		return MaxEntriesLimit
	}
	return limit
}
