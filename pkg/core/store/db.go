package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	company     TEXT NOT NULL DEFAULT '',
	schema_tag  TEXT NOT NULL DEFAULT '',
	source_file TEXT NOT NULL DEFAULT '',
	document    JSONB NOT NULL,
	html        TEXT NOT NULL DEFAULT '',
	warnings    JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at);
`

// InitDB initializes the database connection pool and creates the reports
// table when it is missing.
func InitDB(ctx context.Context, dbURL string) error {
	var err error
	once.Do(func() {
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return
		}
		if _, err = pool.Exec(ctx, schemaDDL); err != nil {
			err = fmt.Errorf("failed to create reports table: %w", err)
		}
	})
	return err
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}
