package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
)

// SQLiteUnplannedRepo implements UnplannedRepo using a SQLite database.
type SQLiteUnplannedRepo struct {
	db db.DBTX
}

func NewSQLiteUnplannedRepo(db db.DBTX) *SQLiteUnplannedRepo {
	return &SQLiteUnplannedRepo{db: db}
}

const unplannedColumns = `id, phase_allocation_id, unplanned_hours, status, detected_at,
	handled_at, handled_by, reallocated_to_phase_id, reallocated_to_allocation_id, notes`

func (r *SQLiteUnplannedRepo) Create(ctx context.Context, u *domain.UnplannedExpiredHours) error {
	query := `INSERT INTO unplanned_expired_hours (` + unplannedColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.PhaseAllocationID,
		u.UnplannedHours.String(),
		string(u.Status),
		formatTimestamp(u.DetectedAt),
		nullableTimeToString(u.HandledAt, timestampLayout),
		nullableString(u.HandledBy),
		nullableString(u.ReallocatedToPhaseID),
		nullableString(u.ReallocatedToAllocationID),
		u.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting unplanned hours: %w", err)
	}
	return nil
}

func (r *SQLiteUnplannedRepo) GetByID(ctx context.Context, id string) (*domain.UnplannedExpiredHours, error) {
	query := `SELECT ` + unplannedColumns + ` FROM unplanned_expired_hours WHERE id = ?`
	u, err := r.scanUnplanned(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unplanned hours %s: %w", id, ErrNotFound)
	}
	return u, err
}

func (r *SQLiteUnplannedRepo) GetByAllocation(ctx context.Context, allocationID string) (*domain.UnplannedExpiredHours, error) {
	query := `SELECT ` + unplannedColumns + ` FROM unplanned_expired_hours WHERE phase_allocation_id = ?`
	u, err := r.scanUnplanned(r.db.QueryRowContext(ctx, query, allocationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unplanned hours for allocation %s: %w", allocationID, ErrNotFound)
	}
	return u, err
}

func (r *SQLiteUnplannedRepo) List(ctx context.Context, status domain.UnplannedStatus) ([]*domain.UnplannedExpiredHours, error) {
	if status == "" {
		query := `SELECT ` + unplannedColumns + ` FROM unplanned_expired_hours ORDER BY detected_at, id`
		return r.list(ctx, query)
	}
	query := `SELECT ` + unplannedColumns + ` FROM unplanned_expired_hours WHERE status = ? ORDER BY detected_at, id`
	return r.list(ctx, query, string(status))
}

func (r *SQLiteUnplannedRepo) ListByDestination(ctx context.Context, allocationID string) ([]*domain.UnplannedExpiredHours, error) {
	query := `SELECT ` + unplannedColumns + ` FROM unplanned_expired_hours
		WHERE reallocated_to_allocation_id = ? ORDER BY detected_at, id`
	return r.list(ctx, query, allocationID)
}

func (r *SQLiteUnplannedRepo) Update(ctx context.Context, u *domain.UnplannedExpiredHours) error {
	query := `UPDATE unplanned_expired_hours SET
			unplanned_hours = ?, status = ?, handled_at = ?, handled_by = ?,
			reallocated_to_phase_id = ?, reallocated_to_allocation_id = ?, notes = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		u.UnplannedHours.String(),
		string(u.Status),
		nullableTimeToString(u.HandledAt, timestampLayout),
		nullableString(u.HandledBy),
		nullableString(u.ReallocatedToPhaseID),
		nullableString(u.ReallocatedToAllocationID),
		u.Notes,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating unplanned hours: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("unplanned hours %s: %w", u.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteUnplannedRepo) list(ctx context.Context, query string, args ...any) ([]*domain.UnplannedExpiredHours, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing unplanned hours: %w", err)
	}
	defer rows.Close()

	var out []*domain.UnplannedExpiredHours
	for rows.Next() {
		u, err := r.scanUnplanned(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unplanned hours: %w", err)
	}
	return out, nil
}

func (r *SQLiteUnplannedRepo) scanUnplanned(row db.RowScanner) (*domain.UnplannedExpiredHours, error) {
	var u domain.UnplannedExpiredHours
	var hours, status, detectedAt string
	var handledAt, handledBy, toPhase, toAlloc sql.NullString

	err := row.Scan(&u.ID, &u.PhaseAllocationID, &hours, &status, &detectedAt,
		&handledAt, &handledBy, &toPhase, &toAlloc, &u.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning unplanned hours: %w", err)
	}

	if u.UnplannedHours, err = parseHours("unplanned_hours", hours); err != nil {
		return nil, err
	}
	u.Status = domain.UnplannedStatus(status)
	if u.DetectedAt, err = parseTimestamp("detected_at", detectedAt); err != nil {
		return nil, err
	}
	u.HandledAt = parseNullableTime(handledAt, timestampParseLayout)
	u.HandledBy = handledBy.String
	u.ReallocatedToPhaseID = toPhase.String
	u.ReallocatedToAllocationID = toAlloc.String
	return &u, nil
}
