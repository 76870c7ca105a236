package app

import (
	"context"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/importer"
)

type AllocationUseCase interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	Decide(ctx context.Context, req DecideRequest) (*DecideResult, error)
	RequestDeletion(ctx context.Context, allocationID, actor string) (*domain.PhaseAllocation, error)
	DecideDeletion(ctx context.Context, req DeletionDecision) (*DecideResult, error)
	Get(ctx context.Context, id string) (*AllocationView, error)
	ListByPhase(ctx context.Context, phaseID string) ([]AllocationView, error)
	ListByConsultant(ctx context.Context, consultantID string) ([]AllocationView, error)
}

type WeeklyUseCase interface {
	Propose(ctx context.Context, req ProposeWeeklyRequest) (*WeeklyResult, error)
	Decide(ctx context.Context, req DecideWeeklyRequest) (*WeeklyResult, error)
	ListByAllocation(ctx context.Context, allocationID string) ([]*domain.WeeklyAllocation, error)
}

type ReallocationUseCase interface {
	Request(ctx context.Context, req ReallocateRequest) (*ReallocateResult, error)
	DecideProposal(ctx context.Context, req DecideProposalRequest) (*ProposalDecision, error)
	Retarget(ctx context.Context, req RetargetRequest) (*ReallocateResult, error)
	Forfeit(ctx context.Context, req ForfeitRequest) (*domain.UnplannedExpiredHours, error)
	ListUnplanned(ctx context.Context, status domain.UnplannedStatus) ([]*domain.UnplannedExpiredHours, error)
	GetUnplanned(ctx context.Context, id string) (*domain.UnplannedExpiredHours, error)
}

type ExpirationUseCase interface {
	Run(ctx context.Context, now time.Time) (*ExpirationReport, error)
}

// ImportResult holds the outcome of a staffing plan import.
type ImportResult struct {
	Projects    int
	Phases      int
	Assignments int
}

type ImportPlanUseCase interface {
	ImportPlan(ctx context.Context, filePath string) (*ImportResult, error)
	ImportPlanFromSchema(ctx context.Context, schema *importer.PlanSchema) (*ImportResult, error)
}

type NotificationUseCase interface {
	Inbox(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, actor string) error
}
