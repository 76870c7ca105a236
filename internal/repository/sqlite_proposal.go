package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
)

// SQLiteProposalRepo implements ProposalRepo using a SQLite database.
type SQLiteProposalRepo struct {
	db db.DBTX
}

func NewSQLiteProposalRepo(db db.DBTX) *SQLiteProposalRepo {
	return &SQLiteProposalRepo{db: db}
}

const proposalColumns = `id, destination_allocation_id, unplanned_id, source_phase_id, consultant_id,
	hours, requested_by, requested_at`

func (r *SQLiteProposalRepo) Create(ctx context.Context, p *domain.ReallocationProposal) error {
	query := `INSERT INTO reallocation_proposals (` + proposalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.DestinationAllocationID,
		p.UnplannedID,
		p.SourcePhaseID,
		p.ConsultantID,
		p.Hours.String(),
		p.RequestedBy,
		formatTimestamp(p.RequestedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting reallocation proposal: %w", err)
	}
	return nil
}

func (r *SQLiteProposalRepo) GetByID(ctx context.Context, id string) (*domain.ReallocationProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM reallocation_proposals WHERE id = ?`
	p, err := r.scanProposal(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reallocation proposal %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (r *SQLiteProposalRepo) ListByDestination(ctx context.Context, allocationID string) ([]*domain.ReallocationProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM reallocation_proposals
		WHERE destination_allocation_id = ? ORDER BY requested_at, id`
	rows, err := r.db.QueryContext(ctx, query, allocationID)
	if err != nil {
		return nil, fmt.Errorf("listing reallocation proposals: %w", err)
	}
	defer rows.Close()

	var out []*domain.ReallocationProposal
	for rows.Next() {
		p, err := r.scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reallocation proposals: %w", err)
	}
	return out, nil
}

func (r *SQLiteProposalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reallocation_proposals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting reallocation proposal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("reallocation proposal %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteProposalRepo) scanProposal(row db.RowScanner) (*domain.ReallocationProposal, error) {
	var p domain.ReallocationProposal
	var hours, requestedAt string
	err := row.Scan(&p.ID, &p.DestinationAllocationID, &p.UnplannedID, &p.SourcePhaseID, &p.ConsultantID,
		&hours, &p.RequestedBy, &requestedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning reallocation proposal: %w", err)
	}
	if p.Hours, err = parseHours("hours", hours); err != nil {
		return nil, err
	}
	if p.RequestedAt, err = parseTimestamp("requested_at", requestedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
