package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
)

type ProjectRepo interface {
	Upsert(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
}

type PhaseRepo interface {
	Upsert(ctx context.Context, p *domain.Phase) error
	GetByID(ctx context.Context, id string) (*domain.Phase, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Phase, error)
}

type AssignmentRepo interface {
	Upsert(ctx context.Context, a *domain.ConsultantAssignment) error
	Get(ctx context.Context, projectID, consultantID string) (*domain.ConsultantAssignment, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.ConsultantAssignment, error)
}

type AllocationRepo interface {
	Create(ctx context.Context, a *domain.PhaseAllocation) error
	GetByID(ctx context.Context, id string) (*domain.PhaseAllocation, error)
	GetByPhaseConsultant(ctx context.Context, phaseID, consultantID string) (*domain.PhaseAllocation, error)
	ListByPhase(ctx context.Context, phaseID string) ([]*domain.PhaseAllocation, error)
	ListByConsultant(ctx context.Context, consultantID string) ([]*domain.PhaseAllocation, error)
	// ListEnded returns APPROVED allocations whose phase ended before the
	// given date.
	ListEnded(ctx context.Context, before time.Time) ([]*domain.PhaseAllocation, error)
	// Update writes a only if the stored version still equals a.Version and
	// bumps a.Version on success. A lost race yields domain.ErrStaleState.
	Update(ctx context.Context, a *domain.PhaseAllocation) error
	Delete(ctx context.Context, id string) error
}

type WeeklyRepo interface {
	Create(ctx context.Context, w *domain.WeeklyAllocation) error
	GetByID(ctx context.Context, id string) (*domain.WeeklyAllocation, error)
	GetByWeek(ctx context.Context, allocationID string, year, week int) (*domain.WeeklyAllocation, error)
	ListByAllocation(ctx context.Context, allocationID string) ([]*domain.WeeklyAllocation, error)
	Update(ctx context.Context, w *domain.WeeklyAllocation) error
}

type UnplannedRepo interface {
	Create(ctx context.Context, u *domain.UnplannedExpiredHours) error
	GetByID(ctx context.Context, id string) (*domain.UnplannedExpiredHours, error)
	GetByAllocation(ctx context.Context, allocationID string) (*domain.UnplannedExpiredHours, error)
	// List filters by status when status is non-empty.
	List(ctx context.Context, status domain.UnplannedStatus) ([]*domain.UnplannedExpiredHours, error)
	// ListByDestination returns records whose hours currently sit in (or are
	// proposed for) the given allocation.
	ListByDestination(ctx context.Context, allocationID string) ([]*domain.UnplannedExpiredHours, error)
	Update(ctx context.Context, u *domain.UnplannedExpiredHours) error
}

type ProposalRepo interface {
	Create(ctx context.Context, p *domain.ReallocationProposal) error
	GetByID(ctx context.Context, id string) (*domain.ReallocationProposal, error)
	ListByDestination(ctx context.Context, allocationID string) ([]*domain.ReallocationProposal, error)
	Delete(ctx context.Context, id string) error
}

// CommitmentRepo reads the current budget lines. Results are never cached;
// every check recomputes from committed rows.
type CommitmentRepo interface {
	ListForConsultant(ctx context.Context, projectID, consultantID string) ([]domain.Commitment, error)
	ListForProject(ctx context.Context, projectID string) ([]domain.Commitment, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}
