// Package sqlite caches fetched sitemap documents in a SQLite database so
// that repeated resolutions of the same site do not refetch them.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB is a handle to the cache database.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// pragmas are applied to every connection before the schema is created.
// The journal mode is skipped for in-memory databases, which cannot use WAL.
var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
}

// Open opens the database and creates the cache table if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("open cache database: %w", err)
	}
	// One writer at a time; concurrent resolutions wait on busy_timeout.
	conn.SetMaxOpenConns(1)

	if err := db.init(conn); err != nil {
		conn.Close()
		return err
	}
	db.db = conn
	return nil
}

func (db *DB) init(conn *sql.DB) error {
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("connect to cache database: %w", err)
	}
	for _, pragma := range pragmas {
		if db.path == ":memory:" && strings.Contains(pragma, "journal_mode") {
			continue
		}
		if _, err := conn.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("create cache schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	url TEXT PRIMARY KEY,
	final_url TEXT NOT NULL,
	status INTEGER NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	body BLOB NOT NULL,
	body_hash TEXT NOT NULL,
	truncated INTEGER NOT NULL DEFAULT 0,
	fetched_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_fetched_at ON responses(fetched_at);
`
