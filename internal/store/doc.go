// Package store provides persistent storage for wen using SQLite.
//
// # Architecture
//
// The package is split into three narrow interfaces:
//
//   - UserStore: one record per identity (the daily state)
//   - EntryStore: the append-only history of committed tears
//   - LocalStateStore: keyed device-local snapshots of a user's state
//
// SQLiteStore implements all of them in a single struct. The record store
// server uses the user and entry tables; the CLI opens its own database file
// as a device cache and uses the local state table plus the entry table as a
// journal of tears made while the remote was unreachable.
//
// MockStore is an in-memory implementation with the same semantics for tests.
//
// # Schema
//
//   - users: primary key id, counters, last_active_at, has_acted_today,
//     last_result (JSON, nullable)
//   - entries: primary key entry_id, UNIQUE(user_id, day) so a day can only
//     be committed once per identity
//   - local_state: primary key key, identity, JSON payload
//
// Timestamps are stored as RFC3339 strings in UTC.
//
// # Errors
//
//   - ErrNotFound: the requested record does not exist
//   - ErrDuplicateUser: a user with that id already exists
//   - ErrDuplicateEntry: an entry for that (user, day) already exists
package store
