// Package localstore implements the local persistence adapter on top of
// a single-file SQLite database. Storage is a one-table key-value
// namespace; the whole task list lives under one key as JSON.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"taskpad/internal/backend"
	"taskpad/internal/task"
)

// tasksKey is the key the serialized task list is stored under.
const tasksKey = "tasks"

// Store implements backend.Local over modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and bootstraps
// the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// A single connection avoids SQLITE_BUSY between the save calls
	// issued on every mutation.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
  k TEXT PRIMARY KEY,
  v BLOB NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Load reads the full task list. No prior data yields an empty list and
// no error. An unreadable or corrupt value also yields an empty list,
// with a *backend.PersistenceError for the caller to report; the user
// is never blocked on it.
func (s *Store) Load(ctx context.Context) ([]task.Task, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM state WHERE k = ?`, tasksKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &backend.PersistenceError{Op: "load", Err: err}
	}

	var tasks []task.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		// Corrupt data is treated as no data.
		return nil, &backend.PersistenceError{Op: "load", Err: err}
	}
	return tasks, nil
}

// Save overwrites the stored list with the given one.
func (s *Store) Save(ctx context.Context, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return &backend.PersistenceError{Op: "save", Err: err}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO state(k, v) VALUES(?, ?)`, tasksKey, raw); err != nil {
		return &backend.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
