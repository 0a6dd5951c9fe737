package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

var sqliteDialect = sqlDialect{
	schema: `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);`,
	get: `SELECT value FROM kv WHERE key = ?`,
	set: `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	delete: `DELETE FROM kv WHERE key = ?`,
	keys:   `SELECT key FROM kv ORDER BY key`,
}

// OpenSQLite opens (or creates) a SQLite database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps write-through ordering identical to mutation ordering.
	db.SetMaxOpenConns(1)
	return newSQL(ctx, db, sqliteDialect)
}
