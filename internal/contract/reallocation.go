package contract

import (
	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

type ReallocateRequest struct {
	TargetPhaseID string           `json:"targetPhaseId" validate:"required"`
	Hours         *decimal.Decimal `json:"hours"`
	ConsultantID  string           `json:"consultantId"`
	SourcePhaseID string           `json:"sourcePhaseId"`
}

func (r ReallocateRequest) ToApp(unplannedID, actor string) app.ReallocateRequest {
	return app.ReallocateRequest{
		UnplannedID:   unplannedID,
		TargetPhaseID: r.TargetPhaseID,
		Hours:         r.Hours,
		ConsultantID:  r.ConsultantID,
		SourcePhaseID: r.SourcePhaseID,
		Actor:         actor,
	}
}

type RetargetRequest struct {
	TargetPhaseID string `json:"targetPhaseId" validate:"required"`
}

type ForfeitRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type UnplannedDTO struct {
	ID                        string                 `json:"id"`
	PhaseAllocationID         string                 `json:"phaseAllocationId"`
	UnplannedHours            decimal.Decimal        `json:"unplannedHours"`
	Status                    domain.UnplannedStatus `json:"status"`
	DetectedAt                string                 `json:"detectedAt"`
	HandledAt                 *string                `json:"handledAt,omitempty"`
	HandledBy                 string                 `json:"handledBy,omitempty"`
	ReallocatedToPhaseID      string                 `json:"reallocatedToPhaseId,omitempty"`
	ReallocatedToAllocationID string                 `json:"reallocatedToAllocationId,omitempty"`
	Notes                     string                 `json:"notes,omitempty"`
}

func FromUnplanned(u *domain.UnplannedExpiredHours) UnplannedDTO {
	detected := u.DetectedAt
	return UnplannedDTO{
		ID:                        u.ID,
		PhaseAllocationID:         u.PhaseAllocationID,
		UnplannedHours:            u.UnplannedHours,
		Status:                    u.Status,
		DetectedAt:                *formatTime(&detected),
		HandledAt:                 formatTime(u.HandledAt),
		HandledBy:                 u.HandledBy,
		ReallocatedToPhaseID:      u.ReallocatedToPhaseID,
		ReallocatedToAllocationID: u.ReallocatedToAllocationID,
		Notes:                     u.Notes,
	}
}

func FromUnplannedList(list []*domain.UnplannedExpiredHours) []UnplannedDTO {
	out := make([]UnplannedDTO, 0, len(list))
	for _, u := range list {
		out = append(out, FromUnplanned(u))
	}
	return out
}

type ProposalDTO struct {
	ID                      string          `json:"id"`
	DestinationAllocationID string          `json:"destinationAllocationId"`
	UnplannedID             string          `json:"unplannedId"`
	SourcePhaseID           string          `json:"sourcePhaseId"`
	ConsultantID            string          `json:"consultantId"`
	Hours                   decimal.Decimal `json:"hours"`
	RequestedBy             string          `json:"requestedBy"`
	RequestedAt             string          `json:"requestedAt"`
}

func FromProposalRecord(p *domain.ReallocationProposal) *ProposalDTO {
	if p == nil {
		return nil
	}
	requested := p.RequestedAt
	return &ProposalDTO{
		ID:                      p.ID,
		DestinationAllocationID: p.DestinationAllocationID,
		UnplannedID:             p.UnplannedID,
		SourcePhaseID:           p.SourcePhaseID,
		ConsultantID:            p.ConsultantID,
		Hours:                   p.Hours,
		RequestedBy:             p.RequestedBy,
		RequestedAt:             *formatTime(&requested),
	}
}

type ReallocationResponse struct {
	Scenario    domain.ReallocationScenario `json:"scenario"`
	Destination AllocationDTO               `json:"destination"`
	Proposal    *ProposalDTO                `json:"proposal,omitempty"`
	Unplanned   *UnplannedDTO               `json:"unplanned,omitempty"`
	Warnings    []string                    `json:"warnings,omitempty"`
}

func FromReallocation(res *app.ReallocateResult) ReallocationResponse {
	out := ReallocationResponse{
		Scenario:    res.Scenario,
		Destination: FromAllocation(res.Allocation),
		Proposal:    FromProposalRecord(res.Proposal),
		Warnings:    res.Warnings.Messages(),
	}
	if res.Unplanned != nil {
		u := FromUnplanned(res.Unplanned)
		out.Unplanned = &u
	}
	return out
}

// ProposalResult is the outcome of deciding a reallocation proposal.
type ProposalResult struct {
	Proposal    *ProposalDTO   `json:"proposal"`
	Approved    bool           `json:"approved"`
	Destination *AllocationDTO `json:"destination,omitempty"`
	Unplanned   *UnplannedDTO  `json:"unplanned,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
}

func FromProposalDecision(d *app.ProposalDecision) ProposalResult {
	out := ProposalResult{
		Proposal: FromProposalRecord(d.Proposal),
		Approved: d.Approved,
		Warnings: d.Warnings.Messages(),
	}
	if d.Destination != nil {
		dest := FromAllocation(d.Destination)
		out.Destination = &dest
	}
	if d.Unplanned != nil {
		u := FromUnplanned(d.Unplanned)
		out.Unplanned = &u
	}
	return out
}
