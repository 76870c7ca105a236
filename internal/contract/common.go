// Package contract defines the JSON shapes exchanged over HTTP and the
// conversions between them and the app layer. Requests are validated with
// struct tags before any state is read.
package contract

import (
	"errors"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Envelope wraps every successful response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// ErrorResponse is the body of every failed request. The numeric fields are
// only present for budget and planned-hours failures.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Code    domain.ErrorCode `json:"code"`
	Details []string         `json:"details,omitempty"`

	ConsultantID   string           `json:"consultantId,omitempty"`
	ProjectID      string           `json:"projectId,omitempty"`
	AllocationID   string           `json:"allocationId,omitempty"`
	CurrentTotal   *decimal.Decimal `json:"currentTotal,omitempty"`
	RequestedHours *decimal.Decimal `json:"requestedHours,omitempty"`
	NewTotal       *decimal.Decimal `json:"newTotal,omitempty"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	Overage        *decimal.Decimal `json:"overage,omitempty"`

	PlannedHours        *decimal.Decimal `json:"plannedHours,omitempty"`
	MinimumAllowedHours *decimal.Decimal `json:"minimumAllowedHours,omitempty"`
	CurrentAllocation   *decimal.Decimal `json:"currentAllocation,omitempty"`
	Available           *decimal.Decimal `json:"available,omitempty"`
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// ErrorFrom flattens err into a response body. Uncoded errors never leak
// their message.
func ErrorFrom(err error) ErrorResponse {
	code := domain.CodeOf(err)
	body := ErrorResponse{Error: err.Error(), Code: code}

	var budgetErr *domain.BudgetExceededError
	var belowErr *domain.BelowPlannedHoursError
	var capErr *domain.WeeklyCapacityError
	switch {
	case errors.As(err, &budgetErr):
		body.ConsultantID = budgetErr.ConsultantID
		body.ProjectID = budgetErr.ProjectID
		body.CurrentTotal = ptr(budgetErr.CurrentTotal)
		body.RequestedHours = ptr(budgetErr.RequestedHours)
		body.NewTotal = ptr(budgetErr.NewTotal)
		body.Budget = ptr(budgetErr.Budget)
		body.Overage = ptr(budgetErr.Overage)
	case errors.As(err, &belowErr):
		body.AllocationID = belowErr.AllocationID
		body.PlannedHours = ptr(belowErr.PlannedHours)
		body.MinimumAllowedHours = ptr(belowErr.MinimumAllowedHours)
		body.CurrentAllocation = ptr(belowErr.CurrentAllocation)
		body.RequestedHours = ptr(belowErr.RequestedHours)
	case errors.As(err, &capErr):
		body.AllocationID = capErr.AllocationID
		body.PlannedHours = ptr(capErr.PlannedOther)
		body.RequestedHours = ptr(capErr.RequestedHours)
		body.Available = ptr(capErr.Available)
	case code == domain.CodeInternal:
		body.Error = "internal error"
	}
	return body
}

// ValidationFailed builds the body for a request rejected by its tags.
func ValidationFailed(details []string) ErrorResponse {
	return ErrorResponse{Error: "request validation failed", Code: domain.CodeValidation, Details: details}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
