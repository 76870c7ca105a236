package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

// SQLiteCommitmentRepo assembles budget lines from allocations, their
// recorded shortfalls and the proposals still in transit.
type SQLiteCommitmentRepo struct {
	db db.DBTX
}

func NewSQLiteCommitmentRepo(db db.DBTX) *SQLiteCommitmentRepo {
	return &SQLiteCommitmentRepo{db: db}
}

type commitmentFilter struct {
	where string
	args  []any
}

func projectFilter(projectID string) commitmentFilter {
	return commitmentFilter{where: `p.project_id = ?`, args: []any{projectID}}
}

func (r *SQLiteCommitmentRepo) ListForConsultant(ctx context.Context, projectID, consultantID string) ([]domain.Commitment, error) {
	f := commitmentFilter{
		where: `p.project_id = ? AND pa.consultant_id = ?`,
		args:  []any{projectID, consultantID},
	}
	return r.collect(ctx, f)
}

func (r *SQLiteCommitmentRepo) ListForProject(ctx context.Context, projectID string) ([]domain.Commitment, error) {
	return r.collect(ctx, projectFilter(projectID))
}

func (r *SQLiteCommitmentRepo) collect(ctx context.Context, f commitmentFilter) ([]domain.Commitment, error) {
	unplanned, err := r.unplannedByAllocation(ctx, f)
	if err != nil {
		return nil, err
	}

	allocQuery := `SELECT ` + allocationColumns + `
		FROM phase_allocations pa
		JOIN phases p ON p.id = pa.phase_id
		WHERE ` + f.where + `
		ORDER BY pa.id`
	allocs, err := NewSQLiteAllocationRepo(r.db).list(ctx, "listing allocation commitments", allocQuery, f.args...)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Commitment, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, domain.AllocationCommitment(a, unplanned[a.ID]))
	}

	proposals, err := r.proposals(ctx, f)
	if err != nil {
		return nil, err
	}
	return append(out, proposals...), nil
}

func (r *SQLiteCommitmentRepo) unplannedByAllocation(ctx context.Context, f commitmentFilter) (map[string]decimal.Decimal, error) {
	query := `SELECT u.phase_allocation_id, u.unplanned_hours
		FROM unplanned_expired_hours u
		JOIN phase_allocations pa ON pa.id = u.phase_allocation_id
		JOIN phases p ON p.id = pa.phase_id
		WHERE ` + f.where
	rows, err := r.db.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("listing recorded shortfalls: %w", err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var allocID, hours string
		if err := rows.Scan(&allocID, &hours); err != nil {
			return nil, fmt.Errorf("scanning recorded shortfall: %w", err)
		}
		d, err := parseHours("unplanned_hours", hours)
		if err != nil {
			return nil, err
		}
		out[allocID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recorded shortfalls: %w", err)
	}
	return out, nil
}

// proposals are charged to the destination allocation's phase. The filter
// matches on the destination row, whose consultant always equals the
// proposal's.
func (r *SQLiteCommitmentRepo) proposals(ctx context.Context, f commitmentFilter) ([]domain.Commitment, error) {
	query := `SELECT rp.id, rp.consultant_id, rp.hours, pa.phase_id
		FROM reallocation_proposals rp
		JOIN phase_allocations pa ON pa.id = rp.destination_allocation_id
		JOIN phases p ON p.id = pa.phase_id
		WHERE ` + f.where + `
		ORDER BY rp.id`
	rows, err := r.db.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("listing proposal commitments: %w", err)
	}
	defer rows.Close()

	var out []domain.Commitment
	for rows.Next() {
		var p domain.ReallocationProposal
		var hours, phaseID string
		if err := rows.Scan(&p.ID, &p.ConsultantID, &hours, &phaseID); err != nil {
			return nil, fmt.Errorf("scanning proposal commitment: %w", err)
		}
		if p.Hours, err = parseHours("hours", hours); err != nil {
			return nil, err
		}
		out = append(out, domain.ProposalCommitment(&p, phaseID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating proposal commitments: %w", err)
	}
	return out, nil
}
