package app

import (
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

// ReallocateRequest moves an EXPIRED unplanned record into TargetPhaseID.
// Hours, when given, must equal the unplanned hours. ConsultantID, when
// given, must match the consultant of the source allocation.
type ReallocateRequest struct {
	UnplannedID   string
	TargetPhaseID string
	Hours         *decimal.Decimal
	ConsultantID  string
	SourcePhaseID string
	Actor         string
}

type ReallocateResult struct {
	Scenario domain.ReallocationScenario
	// Allocation is the destination: new, merged, or the APPROVED parent of
	// Proposal.
	Allocation *domain.PhaseAllocation
	Proposal   *domain.ReallocationProposal
	Unplanned  *domain.UnplannedExpiredHours
	Warnings   Warnings
}

type DecideProposalRequest struct {
	ProposalID string
	Approve    bool
	Actor      string
	Reason     string
}

type ProposalDecision struct {
	Proposal    *domain.ReallocationProposal
	Approved    bool
	Destination *domain.PhaseAllocation
	Unplanned   *domain.UnplannedExpiredHours
	Warnings    Warnings
}

type RetargetRequest struct {
	ProposalID    string
	TargetPhaseID string
	Actor         string
}

type ForfeitRequest struct {
	UnplannedID string
	Actor       string
	Notes       string
}
