// ABOUTME: Shared behavioral tests run against both SQLiteStore and MockStore
// ABOUTME: Keeps the mock honest about duplicate, ordering and not-found semantics

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/wen/internal/scroll"
)

var base = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestStore(t)) })
	t.Run("mock", func(t *testing.T) { fn(t, NewMockStore()) })
}

func TestUserLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.GetUser(ctx, "u1")
		assert.ErrorIs(t, err, ErrNotFound)

		user := scroll.NewUserState("u1", base)
		require.NoError(t, s.CreateUser(ctx, &user))
		assert.ErrorIs(t, s.CreateUser(ctx, &user), ErrDuplicateUser)

		got, err := s.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.Identity)
		assert.Equal(t, 1, got.CurrentDay)
		assert.True(t, got.LastActiveAt.Equal(base))
		assert.Nil(t, got.LastResult)

		r := scroll.Result{Kind: scroll.KindMarker, Display: "day 1", EntryClass: scroll.EntryUnchanged}
		require.True(t, got.Commit(r, base.Add(time.Hour)))
		require.NoError(t, s.UpdateUser(ctx, got))

		got, err = s.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.TotalEntries)
		assert.True(t, got.HasActedToday)
		require.NotNil(t, got.LastResult)
		assert.Equal(t, r, *got.LastResult)
		assert.True(t, got.LastActiveAt.Equal(base.Add(time.Hour)))

		got.LastResult = nil
		require.NoError(t, s.UpdateUser(ctx, got))
		got, err = s.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, got.LastResult)

		missing := scroll.NewUserState("ghost", base)
		assert.ErrorIs(t, s.UpdateUser(ctx, &missing), ErrNotFound)
	})
}

func TestEntries(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for day := 1; day <= 5; day++ {
			e := scroll.Entry{
				Identity:     "u1",
				Day:          day,
				EntryClass:   scroll.EntryTorn,
				NumericValue: day % 2,
				CreatedAt:    base.AddDate(0, 0, day),
			}
			require.NoError(t, s.CreateEntry(ctx, &e))
			assert.NotEmpty(t, e.EntryID)
		}

		dup := scroll.Entry{Identity: "u1", Day: 3, EntryClass: scroll.EntryEmpty, CreatedAt: base}
		assert.ErrorIs(t, s.CreateEntry(ctx, &dup), ErrDuplicateEntry)

		other := scroll.Entry{Identity: "u2", Day: 3, EntryClass: scroll.EntryEmpty, CreatedAt: base}
		require.NoError(t, s.CreateEntry(ctx, &other))

		entries, err := s.ListEntries(ctx, "u1", 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, []int{5, 4, 3}, []int{entries[0].Day, entries[1].Day, entries[2].Day})
		assert.Equal(t, scroll.EntryTorn, entries[0].EntryClass)
		assert.True(t, entries[0].CreatedAt.Equal(base.AddDate(0, 0, 5)))

		entries, err = s.ListEntries(ctx, "u1", 0)
		require.NoError(t, err)
		assert.Len(t, entries, 5)

		entries, err = s.ListEntries(ctx, "nobody", 10)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)

		require.NoError(t, s.DeleteEntries(ctx, "u1"))
		entries, err = s.ListEntries(ctx, "u1", 10)
		require.NoError(t, err)
		assert.Empty(t, entries)

		entries, err = s.ListEntries(ctx, "u2", 10)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestLocalState(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.GetLocalState(ctx, scroll.CacheKey)
		assert.ErrorIs(t, err, ErrNotFound)

		state := scroll.NewUserState("u1", base)
		state.CurrentDay = 3
		state.LastResult = &scroll.Result{Kind: scroll.KindEmpty, Display: "・", EntryClass: scroll.EntryEmpty}
		require.NoError(t, s.PutLocalState(ctx, &LocalState{Key: scroll.CacheKey, Identity: "u1", State: state}))

		got, err := s.GetLocalState(ctx, scroll.CacheKey)
		require.NoError(t, err)
		assert.Equal(t, "u1", got.Identity)
		assert.Equal(t, 3, got.State.CurrentDay)
		require.NotNil(t, got.State.LastResult)
		assert.Equal(t, "・", got.State.LastResult.Display)
		assert.False(t, got.UpdatedAt.IsZero())

		replacement := scroll.NewUserState("u2", base)
		require.NoError(t, s.PutLocalState(ctx, &LocalState{Key: scroll.CacheKey, Identity: "u2", State: replacement}))
		got, err = s.GetLocalState(ctx, scroll.CacheKey)
		require.NoError(t, err)
		assert.Equal(t, "u2", got.Identity)
		assert.Nil(t, got.State.LastResult)

		require.NoError(t, s.DeleteLocalState(ctx, scroll.CacheKey))
		require.NoError(t, s.DeleteLocalState(ctx, scroll.CacheKey))
		_, err = s.GetLocalState(ctx, scroll.CacheKey)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
