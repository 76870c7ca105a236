package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
)

// SQLiteAllocationRepo implements AllocationRepo using a SQLite database.
type SQLiteAllocationRepo struct {
	db db.DBTX
}

// NewSQLiteAllocationRepo creates a new SQLiteAllocationRepo.
func NewSQLiteAllocationRepo(db db.DBTX) *SQLiteAllocationRepo {
	return &SQLiteAllocationRepo{db: db}
}

const allocationColumns = `pa.id, pa.phase_id, pa.consultant_id, pa.total_hours, pa.approval_status,
	pa.approved_by, pa.approved_at, pa.rejection_reason,
	pa.is_reallocation, pa.reallocated_from_phase_id, pa.reallocated_from_unplanned_id,
	pa.is_composite, pa.composition_metadata, pa.version, pa.created_at, pa.updated_at`

func (r *SQLiteAllocationRepo) Create(ctx context.Context, a *domain.PhaseAllocation) error {
	composition, err := marshalComposition(a.Composition)
	if err != nil {
		return err
	}
	if a.Version == 0 {
		a.Version = 1
	}
	query := `INSERT INTO phase_allocations (id, phase_id, consultant_id, total_hours, approval_status,
			approved_by, approved_at, rejection_reason,
			is_reallocation, reallocated_from_phase_id, reallocated_from_unplanned_id,
			is_composite, composition_metadata, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.PhaseID,
		a.ConsultantID,
		a.TotalHours.String(),
		string(a.Status),
		nullableString(a.ApprovedBy),
		nullableTimeToString(a.ApprovedAt, timestampLayout),
		nullableString(a.RejectionReason),
		boolToInt(a.IsReallocation),
		nullableString(a.ReallocatedFromPhaseID),
		nullableString(a.ReallocatedFromUnplannedID),
		boolToInt(a.IsComposite),
		composition,
		a.Version,
		formatTimestamp(a.CreatedAt),
		formatTimestamp(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting phase allocation: %w", err)
	}
	return nil
}

func (r *SQLiteAllocationRepo) GetByID(ctx context.Context, id string) (*domain.PhaseAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM phase_allocations pa WHERE pa.id = ?`
	a, err := r.scanAllocation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("allocation %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (r *SQLiteAllocationRepo) GetByPhaseConsultant(ctx context.Context, phaseID, consultantID string) (*domain.PhaseAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM phase_allocations pa WHERE pa.phase_id = ? AND pa.consultant_id = ?`
	a, err := r.scanAllocation(r.db.QueryRowContext(ctx, query, phaseID, consultantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("allocation for %s in phase %s: %w", consultantID, phaseID, ErrNotFound)
	}
	return a, err
}

func (r *SQLiteAllocationRepo) ListByPhase(ctx context.Context, phaseID string) ([]*domain.PhaseAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM phase_allocations pa WHERE pa.phase_id = ? ORDER BY pa.consultant_id`
	return r.list(ctx, "listing allocations by phase", query, phaseID)
}

func (r *SQLiteAllocationRepo) ListByConsultant(ctx context.Context, consultantID string) ([]*domain.PhaseAllocation, error) {
	query := `SELECT ` + allocationColumns + `
		FROM phase_allocations pa
		JOIN phases p ON p.id = pa.phase_id
		WHERE pa.consultant_id = ?
		ORDER BY p.start_date, p.name`
	return r.list(ctx, "listing allocations by consultant", query, consultantID)
}

func (r *SQLiteAllocationRepo) ListEnded(ctx context.Context, before time.Time) ([]*domain.PhaseAllocation, error) {
	query := `SELECT ` + allocationColumns + `
		FROM phase_allocations pa
		JOIN phases p ON p.id = pa.phase_id
		WHERE pa.approval_status = 'APPROVED'
		  AND p.end_date < ?
		ORDER BY p.end_date, pa.id`
	return r.list(ctx, "listing ended allocations", query, domain.DateOf(before).Format(dateLayout))
}

func (r *SQLiteAllocationRepo) Update(ctx context.Context, a *domain.PhaseAllocation) error {
	composition, err := marshalComposition(a.Composition)
	if err != nil {
		return err
	}
	query := `UPDATE phase_allocations SET
			total_hours = ?, approval_status = ?,
			approved_by = ?, approved_at = ?, rejection_reason = ?,
			is_reallocation = ?, reallocated_from_phase_id = ?, reallocated_from_unplanned_id = ?,
			is_composite = ?, composition_metadata = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		a.TotalHours.String(),
		string(a.Status),
		nullableString(a.ApprovedBy),
		nullableTimeToString(a.ApprovedAt, timestampLayout),
		nullableString(a.RejectionReason),
		boolToInt(a.IsReallocation),
		nullableString(a.ReallocatedFromPhaseID),
		nullableString(a.ReallocatedFromUnplannedID),
		boolToInt(a.IsComposite),
		composition,
		formatTimestamp(a.UpdatedAt),
		a.ID,
		a.Version,
	)
	if err != nil {
		return fmt.Errorf("updating phase allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking phase allocation update: %w", err)
	}
	if n == 0 {
		return domain.Stalef("allocation %s changed since version %d was read", a.ID, a.Version)
	}
	a.Version++
	return nil
}

func (r *SQLiteAllocationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM phase_allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting phase allocation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("allocation %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteAllocationRepo) list(ctx context.Context, op, query string, args ...any) ([]*domain.PhaseAllocation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*domain.PhaseAllocation
	for rows.Next() {
		a, err := r.scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocations: %w", err)
	}
	return out, nil
}

func (r *SQLiteAllocationRepo) scanAllocation(row db.RowScanner) (*domain.PhaseAllocation, error) {
	var a domain.PhaseAllocation
	var total, status, createdAt, updatedAt string
	var approvedBy, approvedAt, reason, fromPhase, fromUnplanned, composition sql.NullString
	var isReallocation, isComposite int

	err := row.Scan(
		&a.ID, &a.PhaseID, &a.ConsultantID, &total, &status,
		&approvedBy, &approvedAt, &reason,
		&isReallocation, &fromPhase, &fromUnplanned,
		&isComposite, &composition, &a.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning phase allocation: %w", err)
	}

	if a.TotalHours, err = parseHours("total_hours", total); err != nil {
		return nil, err
	}
	a.Status = domain.AllocationStatus(status)
	if !a.Status.Valid() {
		return nil, domain.DataIntegrityf("allocation %s has unknown status %q", a.ID, status)
	}
	a.ApprovedBy = approvedBy.String
	a.ApprovedAt = parseNullableTime(approvedAt, timestampParseLayout)
	a.RejectionReason = reason.String
	a.IsReallocation = intToBool(isReallocation)
	a.ReallocatedFromPhaseID = fromPhase.String
	a.ReallocatedFromUnplannedID = fromUnplanned.String
	a.IsComposite = intToBool(isComposite)
	if a.Composition, err = unmarshalComposition(composition); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
