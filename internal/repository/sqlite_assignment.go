package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
)

// SQLiteAssignmentRepo stores the per (consultant, project) hour ceilings.
type SQLiteAssignmentRepo struct {
	db db.DBTX
}

func NewSQLiteAssignmentRepo(db db.DBTX) *SQLiteAssignmentRepo {
	return &SQLiteAssignmentRepo{db: db}
}

const assignmentColumns = `project_id, consultant_id, allocated_hours, created_at, updated_at`

func (r *SQLiteAssignmentRepo) Upsert(ctx context.Context, a *domain.ConsultantAssignment) error {
	query := `INSERT INTO consultant_assignments (` + assignmentColumns + `)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, consultant_id) DO UPDATE SET
			allocated_hours = excluded.allocated_hours,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		a.ProjectID,
		a.ConsultantID,
		a.AllocatedHours.String(),
		formatTimestamp(a.CreatedAt),
		formatTimestamp(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting consultant assignment: %w", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) Get(ctx context.Context, projectID, consultantID string) (*domain.ConsultantAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM consultant_assignments WHERE project_id = ? AND consultant_id = ?`
	a, err := r.scanAssignment(r.db.QueryRowContext(ctx, query, projectID, consultantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assignment of %s to project %s: %w", consultantID, projectID, ErrNotFound)
	}
	return a, err
}

func (r *SQLiteAssignmentRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.ConsultantAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM consultant_assignments WHERE project_id = ? ORDER BY consultant_id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments by project: %w", err)
	}
	defer rows.Close()

	var out []*domain.ConsultantAssignment
	for rows.Next() {
		a, err := r.scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	return out, nil
}

func (r *SQLiteAssignmentRepo) scanAssignment(row db.RowScanner) (*domain.ConsultantAssignment, error) {
	var a domain.ConsultantAssignment
	var hours, createdAt, updatedAt string
	if err := row.Scan(&a.ProjectID, &a.ConsultantID, &hours, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning assignment: %w", err)
	}

	var err error
	if a.AllocatedHours, err = parseHours("allocated_hours", hours); err != nil {
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
