// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package history keeps a local SQLite log of finished sessions so earlier
// questions and their final SQL can be listed and shown again.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// FileName is the database file inside the XDG state directory.
const FileName = "history.db"

// Entry is one finished session.
type Entry struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	Prompt     string    `json:"prompt"`
	SQL        string    `json:"sql,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("history: entry not found")

// Store is a SQLite-backed history.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    channel     TEXT NOT NULL,
    prompt      TEXT NOT NULL,
    final_sql   TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_started ON sessions(started_at DESC);
`

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts or replaces e. An empty ID gets a fresh uuid.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, channel, prompt, final_sql, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Channel, e.Prompt, e.SQL, e.Status, e.Error, e.StartedAt.UnixMilli(), e.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, prompt, final_sql, status, error, started_at, finished_at
		 FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("history: list: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry whose id starts with prefix. A prefix matching more
// than one entry is an error.
func (s *Store) Get(ctx context.Context, prefix string) (Entry, error) {
	if prefix == "" {
		return Entry{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, prompt, final_sql, status, error, started_at, finished_at
		 FROM sessions WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return Entry{}, fmt.Errorf("history: get: %w", err)
	}
	defer rows.Close()

	var found []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Entry{}, fmt.Errorf("history: get: %w", err)
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, err
	}
	switch len(found) {
	case 0:
		return Entry{}, ErrNotFound
	case 1:
		return found[0], nil
	}
	return Entry{}, fmt.Errorf("history: id prefix %q is ambiguous", prefix)
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("history: clear: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var started, finished int64
	if err := rows.Scan(&e.ID, &e.Channel, &e.Prompt, &e.SQL, &e.Status, &e.Error, &started, &finished); err != nil {
		return Entry{}, err
	}
	e.StartedAt = time.UnixMilli(started)
	e.FinishedAt = time.UnixMilli(finished)
	return e, nil
}
