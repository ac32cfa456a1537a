// Package db opens the tutor's SQLite store and scopes writes to
// transactions.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// BusyTimeoutMs is how long a connection waits on another process's write
// lock. ask and watch may run side by side against one database.
const BusyTimeoutMs = 5000

// OpenDB opens the history database at path, creating its directory, and
// runs migrations. ":memory:" gives a private database on a single
// connection.
//
// File databases use WAL, enforce foreign keys, and begin transactions
// IMMEDIATE so two writers appending to the same thread serialise on the
// write lock instead of both reading the same next seq.
func OpenDB(path string) (*sql.DB, error) {
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if memory {
		// Every pooled connection to ":memory:" would get its own empty database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// dsn applies per-connection pragmas through modernc's query parameters so
// every pooled connection gets them, not just the first.
func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", BusyTimeoutMs))
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}
