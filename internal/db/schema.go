package db

import (
	"database/sql"
	"fmt"
)

// sqliteSchema is the full SQLite schema. Every record lives in the kv
// table; timestamps are unix milliseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    k          TEXT PRIMARY KEY,
    v          BLOB NOT NULL,
    version    INTEGER NOT NULL,
    expires_at INTEGER,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kv_expires_at
    ON kv(expires_at) WHERE expires_at IS NOT NULL;
`

// mysqlSchema mirrors sqliteSchema. Keys use a binary collation so prefix
// scans are case-sensitive.
const mysqlSchema = `
CREATE TABLE IF NOT EXISTS kv (
    k          VARCHAR(255) COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
    v          LONGBLOB NOT NULL,
    version    BIGINT NOT NULL,
    expires_at BIGINT NULL,
    updated_at BIGINT NOT NULL,
    INDEX idx_kv_expires_at (expires_at)
) DEFAULT CHARSET=utf8mb4
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == MySQL {
		schema = mysqlSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
