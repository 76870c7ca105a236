package contract

import (
	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

type SubmitAllocationRequest struct {
	PhaseID      string           `json:"phaseId" validate:"required"`
	ConsultantID string           `json:"consultantId" validate:"required"`
	TotalHours   *decimal.Decimal `json:"totalHours" validate:"required"`

	IsReallocation             bool   `json:"isReallocation"`
	ReallocatedFromPhaseID     string `json:"reallocatedFromPhaseId"`
	ReallocatedFromUnplannedID string `json:"reallocatedFromUnplannedId" validate:"required_if=IsReallocation true"`
}

func (r SubmitAllocationRequest) ToApp(actor string) app.SubmitRequest {
	req := app.SubmitRequest{
		PhaseID:                    r.PhaseID,
		ConsultantID:               r.ConsultantID,
		Actor:                      actor,
		IsReallocation:             r.IsReallocation,
		ReallocatedFromPhaseID:     r.ReallocatedFromPhaseID,
		ReallocatedFromUnplannedID: r.ReallocatedFromUnplannedID,
	}
	if r.TotalHours != nil {
		req.TotalHours = *r.TotalHours
	}
	return req
}

type DecideAllocationRequest struct {
	AllocationID    string           `json:"allocationId" validate:"required"`
	Action          string           `json:"action" validate:"required,oneof=approve reject modify delete reject-deletion"`
	RejectionReason string           `json:"rejectionReason" validate:"required_if=Action reject"`
	ModifiedHours   *decimal.Decimal `json:"modifiedHours" validate:"required_if=Action modify"`
}

func (r DecideAllocationRequest) ToApp(actor string) app.DecideRequest {
	return app.DecideRequest{
		AllocationID:    r.AllocationID,
		Action:          domain.DecisionAction(r.Action),
		Actor:           actor,
		RejectionReason: r.RejectionReason,
		ModifiedHours:   r.ModifiedHours,
	}
}

type RequestDeletionRequest struct {
	AllocationID string `json:"allocationId" validate:"required"`
}

// AllocationDTO renders an allocation. Pending reallocation proposals appear
// as child rows flagged with ParentAllocationID.
type AllocationDTO struct {
	ID                         string                    `json:"id"`
	PhaseID                    string                    `json:"phaseId"`
	ConsultantID               string                    `json:"consultantId"`
	TotalHours                 decimal.Decimal           `json:"totalHours"`
	Status                     domain.AllocationStatus   `json:"status"`
	ApprovedBy                 string                    `json:"approvedBy,omitempty"`
	ApprovedAt                 *string                   `json:"approvedAt,omitempty"`
	RejectionReason            string                    `json:"rejectionReason,omitempty"`
	IsReallocation             bool                      `json:"isReallocation"`
	ReallocatedFromPhaseID     string                    `json:"reallocatedFromPhaseId,omitempty"`
	ReallocatedFromUnplannedID string                    `json:"reallocatedFromUnplannedId,omitempty"`
	ParentAllocationID         string                    `json:"parentAllocationId,omitempty"`
	IsComposite                bool                      `json:"isComposite"`
	Composition                []domain.CompositionEntry `json:"composition,omitempty"`
	PlannedHours               *decimal.Decimal          `json:"plannedHours,omitempty"`
	Weeks                      []WeeklyDTO               `json:"weeks,omitempty"`
	Proposals                  []AllocationDTO           `json:"proposals,omitempty"`
	Version                    int                       `json:"version"`
}

func FromAllocation(a *domain.PhaseAllocation) AllocationDTO {
	if a == nil {
		return AllocationDTO{}
	}
	return AllocationDTO{
		ID:                         a.ID,
		PhaseID:                    a.PhaseID,
		ConsultantID:               a.ConsultantID,
		TotalHours:                 a.TotalHours,
		Status:                     a.Status,
		ApprovedBy:                 a.ApprovedBy,
		ApprovedAt:                 formatTime(a.ApprovedAt),
		RejectionReason:            a.RejectionReason,
		IsReallocation:             a.IsReallocation,
		ReallocatedFromPhaseID:     a.ReallocatedFromPhaseID,
		ReallocatedFromUnplannedID: a.ReallocatedFromUnplannedID,
		IsComposite:                a.IsComposite,
		Composition:                a.Composition,
		Version:                    a.Version,
	}
}

// FromProposal renders a proposal as a PENDING child of its destination.
func FromProposal(p *domain.ReallocationProposal, destination *domain.PhaseAllocation) AllocationDTO {
	dto := AllocationDTO{
		ID:                         p.ID,
		ConsultantID:               p.ConsultantID,
		TotalHours:                 p.Hours,
		Status:                     domain.AllocationPending,
		IsReallocation:             true,
		ReallocatedFromPhaseID:     p.SourcePhaseID,
		ReallocatedFromUnplannedID: p.UnplannedID,
		ParentAllocationID:         p.DestinationAllocationID,
	}
	if destination != nil {
		dto.PhaseID = destination.PhaseID
	}
	return dto
}

func FromView(v app.AllocationView) AllocationDTO {
	dto := FromAllocation(v.Allocation)
	planned := v.PlannedHours
	dto.PlannedHours = &planned
	for _, w := range v.Weeks {
		dto.Weeks = append(dto.Weeks, FromWeekly(w))
	}
	for _, p := range v.Proposals {
		dto.Proposals = append(dto.Proposals, FromProposal(p, v.Allocation))
	}
	return dto
}

func FromViews(views []app.AllocationView) []AllocationDTO {
	out := make([]AllocationDTO, 0, len(views))
	for _, v := range views {
		out = append(out, FromView(v))
	}
	return out
}

type SubmitResponse struct {
	Allocation   AllocationDTO         `json:"allocation"`
	Created      bool                  `json:"created"`
	Changed      bool                  `json:"changed"`
	Reallocation *ReallocationResponse `json:"reallocation,omitempty"`
	Warnings     []string              `json:"warnings,omitempty"`
}

func FromSubmit(res *app.SubmitResult) SubmitResponse {
	out := SubmitResponse{
		Allocation: FromAllocation(res.Allocation),
		Created:    res.Created,
		Changed:    res.Changed,
		Warnings:   res.Warnings.Messages(),
	}
	if res.Reallocation != nil {
		r := FromReallocation(res.Reallocation)
		out.Reallocation = &r
	}
	return out
}

type DecideResponse struct {
	Allocation AllocationDTO   `json:"allocation"`
	Deleted    bool            `json:"deleted"`
	Reverted   []UnplannedDTO  `json:"reverted,omitempty"`
	Proposal   *ProposalResult `json:"proposal,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
}

func FromDecide(res *app.DecideResult) DecideResponse {
	out := DecideResponse{
		Allocation: FromAllocation(res.Allocation),
		Deleted:    res.Deleted,
		Warnings:   res.Warnings.Messages(),
	}
	for _, u := range res.Reverted {
		out.Reverted = append(out.Reverted, FromUnplanned(u))
	}
	if res.Proposal != nil {
		p := FromProposalDecision(res.Proposal)
		out.Proposal = &p
	}
	return out
}
