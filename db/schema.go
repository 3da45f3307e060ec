// ABOUTME: Schema for the export run history
// ABOUTME: One row per collect invocation with its outcome
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS export_runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL DEFAULT 'cli',
	status TEXT NOT NULL CHECK(status IN ('running', 'exported', 'fallback', 'declined', 'failed', 'empty', 'dry-run')),
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	broadcasts INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	row_count INTEGER NOT NULL DEFAULT 0,
	sheet_name TEXT,
	fallback_path TEXT,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_export_runs_started_at ON export_runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_export_runs_status ON export_runs(status);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
