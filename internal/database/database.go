package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	config "github.com/maheshrc27/chanpost/configs"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	text            TEXT    NOT NULL DEFAULT '',
	media_type      TEXT,
	media_reference TEXT,
	archive_url     TEXT,
	scheduled_at    INTEGER NOT NULL,
	status          TEXT    NOT NULL DEFAULT 'scheduled',
	created_at      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_status_scheduled_at
ON posts(status, scheduled_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id              BIGSERIAL PRIMARY KEY,
	text            TEXT   NOT NULL DEFAULT '',
	media_type      TEXT,
	media_reference TEXT,
	archive_url     TEXT,
	scheduled_at    BIGINT NOT NULL,
	status          TEXT   NOT NULL DEFAULT 'scheduled',
	created_at      BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_status_scheduled_at
ON posts(status, scheduled_at);
`

// Open connects to the configured database, verifies it is reachable and
// applies the schema. Every call returns an independent handle.
func Open(cfg config.Database) (*sql.DB, error) {
	var (
		driverName string
		dsn        string
		schema     string
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		driverName = "sqlite"
		dsn = cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		schema = sqliteSchema
	case config.DriverPostgres:
		driverName = "postgres"
		dsn = cfg.PostgresURI
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}
