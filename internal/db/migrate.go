package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrations are idempotent and re-run on every open.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		profile          TEXT PRIMARY KEY,
		zoom             TEXT NOT NULL DEFAULT 'Days'
		                 CHECK (zoom IN ('Days', 'Weeks', 'Months', 'Quarters', 'Years')),
		start_date       TEXT,
		end_date         TEXT,
		show_outside     INTEGER NOT NULL DEFAULT 1,
		show_unscheduled INTEGER NOT NULL DEFAULT 0,
		show_closed      INTEGER NOT NULL DEFAULT 0,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		phid      TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		columns   TEXT NOT NULL DEFAULT '[]',
		synced_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS snapshots (
		project_id TEXT PRIMARY KEY,
		task_count INTEGER NOT NULL,
		link_count INTEGER NOT NULL,
		fetched_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS snapshot_tasks (
		project_id TEXT NOT NULL REFERENCES snapshots(project_id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		task_id    TEXT NOT NULL,
		payload    TEXT NOT NULL,
		PRIMARY KEY (project_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS snapshot_links (
		project_id TEXT NOT NULL REFERENCES snapshots(project_id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		link_id    TEXT NOT NULL,
		payload    TEXT NOT NULL,
		PRIMARY KEY (project_id, position)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_snapshot_tasks_task ON snapshot_tasks(project_id, task_id)`,

	`ALTER TABLE settings ADD COLUMN default_project TEXT`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN is not idempotent in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
