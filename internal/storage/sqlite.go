// Package storage persists the list collection.
//
// The default backend is SQLite: a key/value table holds the collection as
// one JSON record and every save appends a row to collection_snapshots.
// FileStore keeps the same record in a plain JSON file instead.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.
)

const memoryPath = ":memory:"

// pragmas applied to every connection: WAL journal, 5s busy wait, FK checks.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(ON)",
}

// SQLiteStore keeps the collection in a SQLite key/value table and records a
// snapshot row on every save.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the connection to tests and maintenance code.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// OpenDatabase opens the SQLite database at path, creating it and its parent
// directory when missing. The pool holds a single connection so every write
// goes through one SQLite writer.
func OpenDatabase(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory for %q: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database %q: %w", path, err)
	}

	slog.Debug("sqlite database opened", "path", path)
	return db, nil
}

func dataSourceName(path string) string {
	dsn := path
	sep := "?"
	for _, p := range pragmas {
		dsn += sep + "_pragma=" + p
		sep = "&"
	}
	return dsn
}

// sqliteTimeLayouts are the timestamp shapes SQLite and Go callers write.
var sqliteTimeLayouts = []string{
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// parseTime reads a stored timestamp, returning the zero time when none of
// the known layouts match.
func parseTime(s string) time.Time {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
