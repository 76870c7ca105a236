package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type ErrorCode string

const (
	CodeValidation              ErrorCode = "VALIDATION_ERROR"
	CodePreconditionFailed      ErrorCode = "PRECONDITION_FAILED"
	CodeBudgetExceeded          ErrorCode = "BUDGET_EXCEEDED"
	CodeBelowPlannedHours       ErrorCode = "BELOW_PLANNED_HOURS"
	CodeNotFound                ErrorCode = "NOT_FOUND"
	CodeStaleState              ErrorCode = "STALE_STATE"
	CodeInvalidDestinationState ErrorCode = "INVALID_DESTINATION_STATE"
	CodeForbidden               ErrorCode = "FORBIDDEN"
	CodeDataIntegrity           ErrorCode = "DATA_INTEGRITY"
	CodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// AllocationError is the coded error returned by every engine operation.
// A zero-Message value acts as a sentinel for errors.Is matching by code.
type AllocationError struct {
	Code    ErrorCode
	Message string
}

func (e *AllocationError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Is matches any sentinel carrying the same code.
func (e *AllocationError) Is(target error) bool {
	t, ok := target.(*AllocationError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrValidation              = &AllocationError{Code: CodeValidation}
	ErrPreconditionFailed      = &AllocationError{Code: CodePreconditionFailed}
	ErrBudgetExceeded          = &AllocationError{Code: CodeBudgetExceeded}
	ErrBelowPlannedHours       = &AllocationError{Code: CodeBelowPlannedHours}
	ErrNotFound                = &AllocationError{Code: CodeNotFound}
	ErrStaleState              = &AllocationError{Code: CodeStaleState}
	ErrInvalidDestinationState = &AllocationError{Code: CodeInvalidDestinationState}
	ErrForbidden               = &AllocationError{Code: CodeForbidden}
	ErrDataIntegrity           = &AllocationError{Code: CodeDataIntegrity}
)

func newError(code ErrorCode, format string, args ...any) error {
	return &AllocationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return newError(CodeValidation, format, args...)
}

func Preconditionf(format string, args ...any) error {
	return newError(CodePreconditionFailed, format, args...)
}

func Stalef(format string, args ...any) error {
	return newError(CodeStaleState, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newError(CodeNotFound, format, args...)
}

func InvalidDestinationf(format string, args ...any) error {
	return newError(CodeInvalidDestinationState, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return newError(CodeForbidden, format, args...)
}

func DataIntegrityf(format string, args ...any) error {
	return newError(CodeDataIntegrity, format, args...)
}

// BudgetExceededError reports a blocked consultant ceiling breach with the
// numbers a caller needs to correct the request.
type BudgetExceededError struct {
	ConsultantID   string
	ProjectID      string
	CurrentTotal   decimal.Decimal
	RequestedHours decimal.Decimal
	NewTotal       decimal.Decimal
	Budget         decimal.Decimal
	Overage        decimal.Decimal
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s: consultant %s would hold %s of %s budgeted hours in project %s (current %s, requested %s, overage %s)",
		CodeBudgetExceeded, e.ConsultantID, e.NewTotal, e.Budget, e.ProjectID, e.CurrentTotal, e.RequestedHours, e.Overage)
}

func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// BelowPlannedHoursError reports an illegal reduction of an allocation that
// already has weekly hours distributed against it.
type BelowPlannedHoursError struct {
	AllocationID        string
	PlannedHours        decimal.Decimal
	MinimumAllowedHours decimal.Decimal
	CurrentAllocation   decimal.Decimal
	RequestedHours      decimal.Decimal
}

func (e *BelowPlannedHoursError) Error() string {
	return fmt.Sprintf("%s: allocation %s cannot go from %s to %s hours; %s hours are planned, minimum allowed is %s",
		CodeBelowPlannedHours, e.AllocationID, e.CurrentAllocation, e.RequestedHours, e.PlannedHours, e.MinimumAllowedHours)
}

func (e *BelowPlannedHoursError) Is(target error) bool {
	return target == ErrBelowPlannedHours
}

// WeeklyCapacityError reports a weekly decision or proposal that would push
// distributed hours above the allocation's total.
type WeeklyCapacityError struct {
	AllocationID   string
	TotalHours     decimal.Decimal
	PlannedOther   decimal.Decimal
	RequestedHours decimal.Decimal
	Available      decimal.Decimal
}

func (e *WeeklyCapacityError) Error() string {
	return fmt.Sprintf("%s: allocation %s has %s of %s hours already planned; %s requested, %s available",
		CodePreconditionFailed, e.AllocationID, e.PlannedOther, e.TotalHours, e.RequestedHours, e.Available)
}

func (e *WeeklyCapacityError) Is(target error) bool {
	return target == ErrPreconditionFailed
}

// ProjectBudgetWarning is the advisory result of a project-wide budget check.
// It never blocks a write.
type ProjectBudgetWarning struct {
	ProjectID      string
	CurrentTotal   decimal.Decimal
	RequestedHours decimal.Decimal
	NewTotal       decimal.Decimal
	Budget         decimal.Decimal
	Overage        decimal.Decimal
}

func (w ProjectBudgetWarning) Message() string {
	return fmt.Sprintf("project %s would be at %s of %s budgeted hours (overage %s)",
		w.ProjectID, w.NewTotal, w.Budget, w.Overage)
}

// CodeOf maps any error onto the taxonomy. Unknown errors are INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var budgetErr *BudgetExceededError
	if errors.As(err, &budgetErr) {
		return CodeBudgetExceeded
	}
	var belowErr *BelowPlannedHoursError
	if errors.As(err, &belowErr) {
		return CodeBelowPlannedHours
	}
	var capErr *WeeklyCapacityError
	if errors.As(err, &capErr) {
		return CodePreconditionFailed
	}
	var allocErr *AllocationError
	if errors.As(err, &allocErr) {
		return allocErr.Code
	}
	return CodeInternal
}
