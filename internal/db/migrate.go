package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Hours are stored as canonical decimal TEXT so sums never drift.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		budgeted_hours TEXT NOT NULL DEFAULT '0',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS phases (
		id                 TEXT PRIMARY KEY,
		project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name               TEXT NOT NULL,
		start_date         TEXT NOT NULL,
		end_date           TEXT NOT NULL,
		product_manager_id TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL,
		CHECK (end_date >= start_date)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_phases_project ON phases(project_id)`,

	`CREATE TABLE IF NOT EXISTS consultant_assignments (
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		consultant_id   TEXT NOT NULL,
		allocated_hours TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		PRIMARY KEY (project_id, consultant_id)
	)`,

	`CREATE TABLE IF NOT EXISTS phase_allocations (
		id                            TEXT PRIMARY KEY,
		phase_id                      TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		consultant_id                 TEXT NOT NULL,
		total_hours                   TEXT NOT NULL,
		approval_status               TEXT NOT NULL DEFAULT 'PENDING'
		                              CHECK(approval_status IN ('PENDING','APPROVED','REJECTED','DELETION_PENDING','EXPIRED','FORFEITED')),
		approved_by                   TEXT,
		approved_at                   TEXT,
		rejection_reason              TEXT,
		is_reallocation               INTEGER NOT NULL DEFAULT 0,
		reallocated_from_phase_id     TEXT,
		reallocated_from_unplanned_id TEXT,
		is_composite                  INTEGER NOT NULL DEFAULT 0,
		created_at                    TEXT NOT NULL,
		updated_at                    TEXT NOT NULL,
		UNIQUE (phase_id, consultant_id)
	)`,

	`ALTER TABLE phase_allocations ADD COLUMN composition_metadata TEXT`,
	`ALTER TABLE phase_allocations ADD COLUMN version INTEGER NOT NULL DEFAULT 1`,

	`CREATE INDEX IF NOT EXISTS idx_phase_allocations_consultant ON phase_allocations(consultant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_phase_allocations_status ON phase_allocations(approval_status)`,

	`CREATE TABLE IF NOT EXISTS weekly_allocations (
		id                  TEXT PRIMARY KEY,
		phase_allocation_id TEXT NOT NULL REFERENCES phase_allocations(id) ON DELETE CASCADE,
		consultant_id       TEXT NOT NULL,
		week_start_date     TEXT NOT NULL,
		week_end_date       TEXT NOT NULL,
		week_number         INTEGER NOT NULL CHECK(week_number BETWEEN 1 AND 53),
		year                INTEGER NOT NULL,
		proposed_hours      TEXT NOT NULL,
		approved_hours      TEXT,
		planning_status     TEXT NOT NULL DEFAULT 'PENDING'
		                    CHECK(planning_status IN ('PENDING','APPROVED','REJECTED')),
		planned_by          TEXT NOT NULL DEFAULT '',
		approved_by         TEXT,
		approved_at         TEXT,
		rejection_reason    TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		UNIQUE (phase_allocation_id, year, week_number)
	)`,

	`CREATE TABLE IF NOT EXISTS unplanned_expired_hours (
		id                           TEXT PRIMARY KEY,
		phase_allocation_id          TEXT NOT NULL UNIQUE REFERENCES phase_allocations(id),
		unplanned_hours              TEXT NOT NULL,
		status                       TEXT NOT NULL DEFAULT 'EXPIRED'
		                             CHECK(status IN ('EXPIRED','FORFEITED','REALLOCATED')),
		detected_at                  TEXT NOT NULL,
		handled_at                   TEXT,
		handled_by                   TEXT,
		reallocated_to_phase_id      TEXT,
		reallocated_to_allocation_id TEXT REFERENCES phase_allocations(id),
		notes                        TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_unplanned_status ON unplanned_expired_hours(status)`,
	`CREATE INDEX IF NOT EXISTS idx_unplanned_destination ON unplanned_expired_hours(reallocated_to_allocation_id)`,

	`CREATE TABLE IF NOT EXISTS reallocation_proposals (
		id                        TEXT PRIMARY KEY,
		destination_allocation_id TEXT NOT NULL REFERENCES phase_allocations(id),
		unplanned_id              TEXT NOT NULL UNIQUE REFERENCES unplanned_expired_hours(id),
		source_phase_id           TEXT NOT NULL,
		consultant_id             TEXT NOT NULL,
		hours                     TEXT NOT NULL,
		requested_by              TEXT NOT NULL,
		requested_at              TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_proposals_destination ON reallocation_proposals(destination_allocation_id)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id           TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL,
		type         TEXT NOT NULL,
		title        TEXT NOT NULL,
		message      TEXT NOT NULL,
		action_url   TEXT NOT NULL DEFAULT '',
		metadata     TEXT,
		created_at   TEXT NOT NULL,
		read_at      TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at)`,
}
