package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresDialect = sqlDialect{
	schema: `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BYTEA NOT NULL,
    updated_at BIGINT NOT NULL
);`,
	get: `SELECT value FROM kv WHERE key = $1`,
	set: `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
	delete: `DELETE FROM kv WHERE key = $1`,
	keys:   `SELECT key FROM kv ORDER BY key`,
}

// OpenPostgres connects to the Postgres database named by dsn.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("storage dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	return newSQL(ctx, db, postgresDialect)
}
