// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user, entry and local snapshot persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/2389/wen/internal/scroll"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Writers wait instead of failing while another connection holds the lock
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			current_day       INTEGER NOT NULL DEFAULT 1,
			total_entries     INTEGER NOT NULL DEFAULT 0,
			streak            INTEGER NOT NULL DEFAULT 0,
			cultivation_level INTEGER NOT NULL DEFAULT 1,
			last_active_at    TEXT NOT NULL,
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL,

			CHECK (current_day >= 1),
			CHECK (total_entries >= 0)
		);

		CREATE TABLE IF NOT EXISTS entries (
			entry_id      TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			day           INTEGER NOT NULL,
			entry_class   TEXT NOT NULL,
			numeric_value INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL,

			UNIQUE(user_id, day),
			CHECK (entry_class IN ('torn', 'empty', 'unchanged'))
		);

		CREATE INDEX IF NOT EXISTS idx_entries_user_day ON entries(user_id, day DESC);

		CREATE TABLE IF NOT EXISTS local_state (
			key        TEXT PRIMARY KEY,
			identity   TEXT NOT NULL,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
	migrations := []struct {
		check  string
		apply  string
		column string
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('users') WHERE name = 'has_acted_today'`,
			apply:  `ALTER TABLE users ADD COLUMN has_acted_today INTEGER NOT NULL DEFAULT 0`,
			column: "has_acted_today",
		},
		{
			check:  `SELECT 1 FROM pragma_table_info('users') WHERE name = 'last_result'`,
			apply:  `ALTER TABLE users ADD COLUMN last_result TEXT`,
			column: "last_result",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			continue
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to users: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "users")
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE or PRIMARY KEY
// constraint violation. CHECK and NOT NULL failures are not duplicates.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t.UTC(), nil
}

func encodeResult(r *scroll.Result) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding last_result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// CreateUser inserts a new user record.
// Returns ErrDuplicateUser if a record with the same id already exists.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *scroll.UserState) error {
	lastResult, err := encodeResult(user.LastResult)
	if err != nil {
		return err
	}

	now := formatTime(time.Now())
	query := `
		INSERT INTO users (id, current_day, total_entries, streak, cultivation_level,
			last_active_at, has_acted_today, last_result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		user.Identity,
		user.CurrentDay,
		user.TotalEntries,
		user.Streak,
		scroll.Level(user.TotalEntries),
		formatTime(user.LastActiveAt),
		user.HasActedToday,
		lastResult,
		now,
		now,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", user.Identity)
	return nil
}

// GetUser retrieves a user by id.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*scroll.UserState, error) {
	query := `
		SELECT id, current_day, total_entries, streak, cultivation_level,
			last_active_at, has_acted_today, last_result
		FROM users
		WHERE id = ?
	`

	var user scroll.UserState
	var lastActiveStr string
	var lastResult sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.Identity,
		&user.CurrentDay,
		&user.TotalEntries,
		&user.Streak,
		&user.CultivationLevel,
		&lastActiveStr,
		&user.HasActedToday,
		&lastResult,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.LastActiveAt, err = parseTime("last_active_at", lastActiveStr)
	if err != nil {
		return nil, err
	}

	if lastResult.Valid {
		var r scroll.Result
		if err := json.Unmarshal([]byte(lastResult.String), &r); err != nil {
			return nil, fmt.Errorf("decoding last_result: %w", err)
		}
		user.LastResult = &r
	}

	return &user, nil
}

// UpdateUser overwrites the mutable fields of an existing user.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *scroll.UserState) error {
	lastResult, err := encodeResult(user.LastResult)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET current_day = ?, total_entries = ?, streak = ?, cultivation_level = ?,
			last_active_at = ?, has_acted_today = ?, last_result = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		user.CurrentDay,
		user.TotalEntries,
		user.Streak,
		scroll.Level(user.TotalEntries),
		formatTime(user.LastActiveAt),
		user.HasActedToday,
		lastResult,
		formatTime(time.Now()),
		user.Identity,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated user", "id", user.Identity, "day", user.CurrentDay)
	return nil
}

// CreateEntry inserts a history entry, assigning an EntryID if none is set.
// Returns ErrDuplicateEntry if the user already has an entry for that day.
func (s *SQLiteStore) CreateEntry(ctx context.Context, e *scroll.Entry) error {
	if e.EntryID == "" {
		e.EntryID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO entries (entry_id, user_id, day, entry_class, numeric_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.EntryID,
		e.Identity,
		e.Day,
		string(e.EntryClass),
		e.NumericValue,
		formatTime(e.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("inserting entry: %w", err)
	}

	s.logger.Debug("created entry", "id", e.Identity, "day", e.Day, "class", e.EntryClass)
	return nil
}

// ListEntries retrieves entries for identity, most recent day first.
func (s *SQLiteStore) ListEntries(ctx context.Context, identity string, limit int) ([]scroll.Entry, error) {
	query := `
		SELECT entry_id, user_id, day, entry_class, numeric_value, created_at
		FROM entries
		WHERE user_id = ?
		ORDER BY day DESC, created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, identity, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	entries := []scroll.Entry{}
	for rows.Next() {
		var e scroll.Entry
		var class, createdAtStr string
		if err := rows.Scan(&e.EntryID, &e.Identity, &e.Day, &class, &e.NumericValue, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.EntryClass = scroll.EntryClass(class)
		e.CreatedAt, err = parseTime("created_at", createdAtStr)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return entries, nil
}

// DeleteEntries removes every entry belonging to identity.
func (s *SQLiteStore) DeleteEntries(ctx context.Context, identity string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE user_id = ?`, identity); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}

// GetLocalState retrieves the snapshot stored under key.
// Returns ErrNotFound if there is none.
func (s *SQLiteStore) GetLocalState(ctx context.Context, key string) (*LocalState, error) {
	query := `SELECT key, identity, payload, updated_at FROM local_state WHERE key = ?`

	var ls LocalState
	var payload, updatedAtStr string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&ls.Key, &ls.Identity, &payload, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying local state: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &ls.State); err != nil {
		return nil, fmt.Errorf("decoding local state: %w", err)
	}
	ls.UpdatedAt, err = parseTime("updated_at", updatedAtStr)
	if err != nil {
		return nil, err
	}

	return &ls, nil
}

// PutLocalState inserts or replaces the snapshot under ls.Key.
func (s *SQLiteStore) PutLocalState(ctx context.Context, ls *LocalState) error {
	payload, err := json.Marshal(ls.State)
	if err != nil {
		return fmt.Errorf("encoding local state: %w", err)
	}
	if ls.UpdatedAt.IsZero() {
		ls.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO local_state (key, identity, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			identity = excluded.identity,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, ls.Key, ls.Identity, string(payload), formatTime(ls.UpdatedAt)); err != nil {
		return fmt.Errorf("saving local state: %w", err)
	}
	return nil
}

// DeleteLocalState removes the snapshot under key.
func (s *SQLiteStore) DeleteLocalState(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting local state: %w", err)
	}
	return nil
}

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)
