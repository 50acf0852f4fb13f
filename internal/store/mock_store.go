// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/wen/internal/scroll"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu         sync.RWMutex
	users      map[string]*scroll.UserState // keyed by identity
	entries    map[string][]scroll.Entry    // keyed by identity
	localState map[string]*LocalState       // keyed by snapshot key
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:      make(map[string]*scroll.UserState),
		entries:    make(map[string][]scroll.Entry),
		localState: make(map[string]*LocalState),
	}
}

// CreateUser stores a new user.
func (m *MockStore) CreateUser(ctx context.Context, user *scroll.UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Identity]; ok {
		return ErrDuplicateUser
	}

	// Make a copy to avoid external modification
	u := user.Clone()
	u.CultivationLevel = scroll.Level(u.TotalEntries)
	u.LastActiveAt = u.LastActiveAt.UTC()
	m.users[u.Identity] = &u
	return nil
}

// GetUser retrieves a user by identity.
func (m *MockStore) GetUser(ctx context.Context, id string) (*scroll.UserState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := u.Clone()
	return &result, nil
}

// UpdateUser replaces an existing user.
func (m *MockStore) UpdateUser(ctx context.Context, user *scroll.UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Identity]; !ok {
		return ErrNotFound
	}

	u := user.Clone()
	u.CultivationLevel = scroll.Level(u.TotalEntries)
	u.LastActiveAt = u.LastActiveAt.UTC()
	m.users[u.Identity] = &u
	return nil
}

// CreateEntry stores an entry, enforcing one entry per user and day.
func (m *MockStore) CreateEntry(ctx context.Context, e *scroll.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.entries[e.Identity] {
		if existing.Day == e.Day {
			return ErrDuplicateEntry
		}
	}

	if e.EntryID == "" {
		e.EntryID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.entries[e.Identity] = append(m.entries[e.Identity], *e)
	return nil
}

// ListEntries returns entries for identity, most recent day first.
func (m *MockStore) ListEntries(ctx context.Context, identity string, limit int) ([]scroll.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]scroll.Entry, len(m.entries[identity]))
	copy(result, m.entries[identity])

	sort.Slice(result, func(i, j int) bool {
		if result[i].Day != result[j].Day {
			return result[i].Day > result[j].Day
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit = clampLimit(limit); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteEntries removes all entries of identity.
func (m *MockStore) DeleteEntries(ctx context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, identity)
	return nil
}

// GetLocalState retrieves a snapshot by key.
func (m *MockStore) GetLocalState(ctx context.Context, key string) (*LocalState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ls, ok := m.localState[key]
	if !ok {
		return nil, ErrNotFound
	}

	result := *ls
	result.State = ls.State.Clone()
	return &result, nil
}

// PutLocalState stores a snapshot, replacing any previous one.
func (m *MockStore) PutLocalState(ctx context.Context, ls *LocalState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ls.UpdatedAt.IsZero() {
		ls.UpdatedAt = time.Now().UTC()
	}
	stored := *ls
	stored.State = ls.State.Clone()
	m.localState[ls.Key] = &stored
	return nil
}

// DeleteLocalState removes a snapshot.
func (m *MockStore) DeleteLocalState(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.localState, key)
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// Compile-time interface check
var _ Store = (*MockStore)(nil)
