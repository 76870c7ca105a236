package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
)

// SQLiteWeeklyRepo implements WeeklyRepo using a SQLite database.
type SQLiteWeeklyRepo struct {
	db db.DBTX
}

func NewSQLiteWeeklyRepo(db db.DBTX) *SQLiteWeeklyRepo {
	return &SQLiteWeeklyRepo{db: db}
}

const weeklyColumns = `id, phase_allocation_id, consultant_id, week_start_date, week_end_date, week_number, year,
	proposed_hours, approved_hours, planning_status, planned_by, approved_by, approved_at, rejection_reason,
	created_at, updated_at`

func (r *SQLiteWeeklyRepo) Create(ctx context.Context, w *domain.WeeklyAllocation) error {
	query := `INSERT INTO weekly_allocations (` + weeklyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.PhaseAllocationID,
		w.ConsultantID,
		w.WeekStartDate.Format(dateLayout),
		w.WeekEndDate.Format(dateLayout),
		w.WeekNumber,
		w.Year,
		w.ProposedHours.String(),
		nullableHours(w.ApprovedHours),
		string(w.Status),
		w.PlannedBy,
		nullableString(w.ApprovedBy),
		nullableTimeToString(w.ApprovedAt, timestampLayout),
		nullableString(w.RejectionReason),
		formatTimestamp(w.CreatedAt),
		formatTimestamp(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting weekly allocation: %w", err)
	}
	return nil
}

func (r *SQLiteWeeklyRepo) GetByID(ctx context.Context, id string) (*domain.WeeklyAllocation, error) {
	query := `SELECT ` + weeklyColumns + ` FROM weekly_allocations WHERE id = ?`
	w, err := r.scanWeekly(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("weekly allocation %s: %w", id, ErrNotFound)
	}
	return w, err
}

func (r *SQLiteWeeklyRepo) GetByWeek(ctx context.Context, allocationID string, year, week int) (*domain.WeeklyAllocation, error) {
	query := `SELECT ` + weeklyColumns + ` FROM weekly_allocations
		WHERE phase_allocation_id = ? AND year = ? AND week_number = ?`
	w, err := r.scanWeekly(r.db.QueryRowContext(ctx, query, allocationID, year, week))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("week %d/%d of allocation %s: %w", year, week, allocationID, ErrNotFound)
	}
	return w, err
}

func (r *SQLiteWeeklyRepo) ListByAllocation(ctx context.Context, allocationID string) ([]*domain.WeeklyAllocation, error) {
	query := `SELECT ` + weeklyColumns + ` FROM weekly_allocations
		WHERE phase_allocation_id = ? ORDER BY year, week_number`
	rows, err := r.db.QueryContext(ctx, query, allocationID)
	if err != nil {
		return nil, fmt.Errorf("listing weekly allocations: %w", err)
	}
	defer rows.Close()

	var out []*domain.WeeklyAllocation
	for rows.Next() {
		w, err := r.scanWeekly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weekly allocations: %w", err)
	}
	return out, nil
}

func (r *SQLiteWeeklyRepo) Update(ctx context.Context, w *domain.WeeklyAllocation) error {
	query := `UPDATE weekly_allocations SET
			proposed_hours = ?, approved_hours = ?, planning_status = ?, planned_by = ?,
			approved_by = ?, approved_at = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		w.ProposedHours.String(),
		nullableHours(w.ApprovedHours),
		string(w.Status),
		w.PlannedBy,
		nullableString(w.ApprovedBy),
		nullableTimeToString(w.ApprovedAt, timestampLayout),
		nullableString(w.RejectionReason),
		formatTimestamp(w.UpdatedAt),
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating weekly allocation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("weekly allocation %s: %w", w.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteWeeklyRepo) scanWeekly(row db.RowScanner) (*domain.WeeklyAllocation, error) {
	var w domain.WeeklyAllocation
	var start, end, proposed, status, createdAt, updatedAt string
	var approved, approvedBy, approvedAt, reason sql.NullString

	err := row.Scan(
		&w.ID, &w.PhaseAllocationID, &w.ConsultantID, &start, &end, &w.WeekNumber, &w.Year,
		&proposed, &approved, &status, &w.PlannedBy, &approvedBy, &approvedAt, &reason,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning weekly allocation: %w", err)
	}

	if w.WeekStartDate, err = parseDate("week_start_date", start); err != nil {
		return nil, err
	}
	if w.WeekEndDate, err = parseDate("week_end_date", end); err != nil {
		return nil, err
	}
	if w.ProposedHours, err = parseHours("proposed_hours", proposed); err != nil {
		return nil, err
	}
	if w.ApprovedHours, err = parseNullableHours("approved_hours", approved); err != nil {
		return nil, err
	}
	w.Status = domain.PlanningStatus(status)
	w.ApprovedBy = approvedBy.String
	w.ApprovedAt = parseNullableTime(approvedAt, timestampParseLayout)
	w.RejectionReason = reason.String
	if w.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
