package app

import (
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

// ProposeWeeklyRequest plans hours into the ISO week containing WeekStart.
type ProposeWeeklyRequest struct {
	PhaseAllocationID string
	WeekStart         time.Time
	ProposedHours     decimal.Decimal
	Actor             string
}

type DecideWeeklyRequest struct {
	WeeklyID        string
	Action          domain.DecisionAction
	ApprovedHours   *decimal.Decimal
	RejectionReason string
	Actor           string
}

type WeeklyResult struct {
	Weekly       *domain.WeeklyAllocation
	Created      bool
	PlannedHours decimal.Decimal
}
