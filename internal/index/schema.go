// Package index keeps a SQLite snapshot of the site page index.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pages (
	index_key           TEXT NOT NULL,
	path                TEXT NOT NULL,
	position            INTEGER NOT NULL DEFAULT 0,
	title               TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	template            TEXT NOT NULL DEFAULT '',
	breadcrumb_title    TEXT NOT NULL DEFAULT '',
	image               TEXT NOT NULL DEFAULT '',
	last_modified       INTEGER NOT NULL DEFAULT 0,
	publication_date    INTEGER NOT NULL DEFAULT 0,
	from_the_department INTEGER NOT NULL DEFAULT 0,
	robots              INTEGER NOT NULL DEFAULT 0,
	checksum            TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (index_key, path)
);

CREATE INDEX IF NOT EXISTS idx_pages_position ON pages(index_key, position);
`

// DB wraps a sql.DB with snapshot-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
