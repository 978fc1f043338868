// Package kv provides durable named-blob storage backed by SQLite.
//
// The store holds one row per blob name and is read synchronously at startup
// to rehydrate application state, then written synchronously after every
// state mutation. Writes are small and infrequent, so no batching is done.
package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// ErrNotFound is returned when no blob exists under the requested name.
var ErrNotFound = errors.New("kv: not found")

// Store is a SQLite-backed key/value blob store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			name       TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create blobs table: %w", err)
	}
	return nil
}

// Get returns the blob stored under name, or ErrNotFound.
func (s *Store) Get(name string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %q: %w", name, err)
	}
	return value, nil
}

// Set stores value under name, replacing any previous blob.
func (s *Store) Set(name string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write blob %q: %w", name, err)
	}
	return nil
}

// Delete removes the blob stored under name. Deleting an absent name is a no-op.
func (s *Store) Delete(name string) error {
	_, err := s.db.Exec(`DELETE FROM blobs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete blob %q: %w", name, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
