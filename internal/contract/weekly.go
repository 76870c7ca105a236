package contract

import (
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

type ProposeWeeklyRequest struct {
	PhaseAllocationID string           `json:"phaseAllocationId" validate:"required"`
	WeekStartDate     string           `json:"weekStartDate" validate:"required,datetime=2006-01-02"`
	ProposedHours     *decimal.Decimal `json:"proposedHours" validate:"required"`
}

func (r ProposeWeeklyRequest) ToApp(actor string) (app.ProposeWeeklyRequest, error) {
	start, err := time.Parse(dateLayout, r.WeekStartDate)
	if err != nil {
		return app.ProposeWeeklyRequest{}, domain.Validationf("weekStartDate %q must be YYYY-MM-DD", r.WeekStartDate)
	}
	req := app.ProposeWeeklyRequest{
		PhaseAllocationID: r.PhaseAllocationID,
		WeekStart:         start,
		Actor:             actor,
	}
	if r.ProposedHours != nil {
		req.ProposedHours = *r.ProposedHours
	}
	return req, nil
}

type DecideWeeklyRequest struct {
	WeeklyID        string           `json:"weeklyId" validate:"required"`
	Action          string           `json:"action" validate:"required,oneof=approve reject modify"`
	ApprovedHours   *decimal.Decimal `json:"approvedHours" validate:"required_if=Action modify"`
	RejectionReason string           `json:"rejectionReason" validate:"required_if=Action reject"`
}

func (r DecideWeeklyRequest) ToApp(actor string) app.DecideWeeklyRequest {
	return app.DecideWeeklyRequest{
		WeeklyID:        r.WeeklyID,
		Action:          domain.DecisionAction(r.Action),
		ApprovedHours:   r.ApprovedHours,
		RejectionReason: r.RejectionReason,
		Actor:           actor,
	}
}

type WeeklyDTO struct {
	ID                string                `json:"id"`
	PhaseAllocationID string                `json:"phaseAllocationId"`
	ConsultantID      string                `json:"consultantId"`
	WeekStartDate     string                `json:"weekStartDate"`
	WeekEndDate       string                `json:"weekEndDate"`
	WeekNumber        int                   `json:"weekNumber"`
	Year              int                   `json:"year"`
	ProposedHours     decimal.Decimal       `json:"proposedHours"`
	ApprovedHours     *decimal.Decimal      `json:"approvedHours,omitempty"`
	Status            domain.PlanningStatus `json:"planningStatus"`
	PlannedBy         string                `json:"plannedBy,omitempty"`
	ApprovedBy        string                `json:"approvedBy,omitempty"`
	ApprovedAt        *string               `json:"approvedAt,omitempty"`
	RejectionReason   string                `json:"rejectionReason,omitempty"`
}

func FromWeekly(w *domain.WeeklyAllocation) WeeklyDTO {
	dto := WeeklyDTO{
		ID:                w.ID,
		PhaseAllocationID: w.PhaseAllocationID,
		ConsultantID:      w.ConsultantID,
		WeekStartDate:     w.WeekStartDate.Format(dateLayout),
		WeekEndDate:       w.WeekEndDate.Format(dateLayout),
		WeekNumber:        w.WeekNumber,
		Year:              w.Year,
		ProposedHours:     w.ProposedHours,
		Status:            w.Status,
		PlannedBy:         w.PlannedBy,
		ApprovedBy:        w.ApprovedBy,
		ApprovedAt:        formatTime(w.ApprovedAt),
		RejectionReason:   w.RejectionReason,
	}
	if w.ApprovedHours.Valid {
		dto.ApprovedHours = ptr(w.ApprovedHours.Decimal)
	}
	return dto
}

func FromWeeks(weeks []*domain.WeeklyAllocation) []WeeklyDTO {
	out := make([]WeeklyDTO, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, FromWeekly(w))
	}
	return out
}

type WeeklyResponse struct {
	Weekly       WeeklyDTO       `json:"weekly"`
	Created      bool            `json:"created"`
	PlannedHours decimal.Decimal `json:"plannedHours"`
}

func FromWeeklyResult(res *app.WeeklyResult) WeeklyResponse {
	return WeeklyResponse{
		Weekly:       FromWeekly(res.Weekly),
		Created:      res.Created,
		PlannedHours: res.PlannedHours,
	}
}
