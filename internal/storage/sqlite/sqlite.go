// Package sqlite provides a SQLite-backed implementation of storage.Provider.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Luca-B431/bill-app/internal/storage"
)

// Ensure SQLiteStore implements storage.Provider
var _ storage.Provider = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Provider using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time avoids SQLITE_BUSY under concurrent sessions.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Scope returns the storage for one browser session.
func (s *SQLiteStore) Scope(sessionID string) storage.Storage {
	return &scope{store: s, sessionID: sessionID}
}

// Drop removes every item stored for sessionID.
func (s *SQLiteStore) Drop(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_items WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to drop session: %w", err)
	}
	return nil
}

// PurgeBefore removes items of sessions not written since cutoff and
// returns how many rows were deleted.
func (s *SQLiteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM session_items WHERE session_id IN (
			SELECT session_id FROM session_items GROUP BY session_id HAVING MAX(updated_at) < ?
		)`,
		cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return result.RowsAffected()
}

type scope struct {
	store     *SQLiteStore
	sessionID string
}

// GetItem retrieves a value by key.
func (s *scope) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT value FROM session_items WHERE session_id = ? AND key = ?",
		s.sessionID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get session item: %w", err)
	}
	return value, true, nil
}

// SetItem inserts or replaces a value.
func (s *scope) SetItem(ctx context.Context, key, value string) error {
	_, err := s.store.db.ExecContext(ctx,
		`INSERT INTO session_items (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.sessionID, key, value, s.store.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set session item: %w", err)
	}
	return nil
}

// RemoveItem deletes a key.
func (s *scope) RemoveItem(ctx context.Context, key string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM session_items WHERE session_id = ? AND key = ?",
		s.sessionID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to remove session item: %w", err)
	}
	return nil
}

// Clear removes every key of the session.
func (s *scope) Clear(ctx context.Context) error {
	return s.store.Drop(ctx, s.sessionID)
}
