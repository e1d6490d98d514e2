// Package search keeps a SQLite full-text index of the published posts.
//
// The index is derived state: it is rebuilt from every published snapshot
// and can be thrown away at any time. FTS5 is used when the binary is built
// with the sqlite_fts5 tag; otherwise queries fall back to LIKE scans.
package search

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN keeps the search index in memory only.
const MemoryDSN = ":memory:"

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	token      TEXT PRIMARY KEY,
	category   TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	body       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category);
`

// DB wraps a sql.DB with search-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// An empty dsn means MemoryDSN.
func Open(dsn string) (*DB, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("search: open db: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// writes are serialized by the rebuild worker anyway.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
