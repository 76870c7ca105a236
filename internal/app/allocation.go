package app

import (
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

// SubmitRequest creates or updates the allocation for (PhaseID, ConsultantID).
// With IsReallocation set the hours come from an unplanned record and the
// request is resolved as a reallocation into PhaseID.
type SubmitRequest struct {
	PhaseID      string
	ConsultantID string
	TotalHours   decimal.Decimal
	Actor        string

	IsReallocation             bool
	ReallocatedFromPhaseID     string
	ReallocatedFromUnplannedID string
}

type SubmitResult struct {
	Allocation *domain.PhaseAllocation
	Created    bool
	// Changed is false when the submit repeated the stored total.
	Changed bool
	// Reallocation is set when the submit was resolved as a reallocation.
	Reallocation *ReallocateResult
	Warnings     Warnings
}

// DecideRequest is a Growth Team decision. AllocationID may also name a
// pending reallocation proposal.
type DecideRequest struct {
	AllocationID    string
	Action          domain.DecisionAction
	Actor           string
	RejectionReason string
	ModifiedHours   *decimal.Decimal
}

type DecideResult struct {
	// Allocation is the last stored state when Deleted is set.
	Allocation *domain.PhaseAllocation
	Deleted    bool
	// Reverted lists unplanned records reopened by a composite rejection.
	Reverted []*domain.UnplannedExpiredHours
	Proposal *ProposalDecision
	Warnings Warnings
}

type DeletionDecision struct {
	AllocationID string
	Approve      bool
	Actor        string
	Reason       string
}

// AllocationView is an allocation with its weekly plan and the proposals
// waiting to merge into it.
type AllocationView struct {
	Allocation   *domain.PhaseAllocation
	Weeks        []*domain.WeeklyAllocation
	Proposals    []*domain.ReallocationProposal
	PlannedHours decimal.Decimal
}
