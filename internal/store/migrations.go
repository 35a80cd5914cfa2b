package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all tables. Each statement uses
// IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS generations (
		id              TEXT PRIMARY KEY,
		job_name        TEXT NOT NULL,
		config_path     TEXT NOT NULL,
		script_path     TEXT NOT NULL,
		list_path       TEXT NOT NULL,
		file_count      INTEGER NOT NULL,
		task_count      INTEGER NOT NULL,
		concurrency_cap INTEGER NOT NULL,
		created_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_generations_job_name ON generations(job_name)`,
	`CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
