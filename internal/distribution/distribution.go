// Package distribution tracks how much of an allocation has been spread into
// weekly plans and which reductions that leaves legal.
package distribution

import (
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

// PlannedTotal sums approved hours, counting proposed hours for weeks still
// pending. Rejected weeks count nothing.
func PlannedTotal(weeks []*domain.WeeklyAllocation) decimal.Decimal {
	return plannedExcluding(weeks, "")
}

func plannedExcluding(weeks []*domain.WeeklyAllocation, weeklyID string) decimal.Decimal {
	sum := decimal.Zero
	for _, w := range weeks {
		if weeklyID != "" && w.ID == weeklyID {
			continue
		}
		sum = sum.Add(w.Hours())
	}
	return sum
}

// CanReduceTo returns a *domain.BelowPlannedHoursError when moving the
// allocation from its current total to newTotal would strand planned hours.
// Reallocated slices still awaiting a decision sit on top of the planned
// hours: a rejection takes them back out, and what remains must still cover
// the plan. Increases are always legal.
func CanReduceTo(alloc *domain.PhaseAllocation, planned, newTotal decimal.Decimal) error {
	current := alloc.TotalHours
	if !newTotal.LessThan(current) {
		return nil
	}
	minimum := planned.Add(alloc.PendingReallocatedHours())
	if minimum.GreaterThanOrEqual(current) {
		// Fully or over-subscribed: the total may only grow.
		minimum = current
	} else if !newTotal.LessThan(minimum) {
		return nil
	}
	return &domain.BelowPlannedHoursError{
		AllocationID:        alloc.ID,
		PlannedHours:        planned,
		MinimumAllowedHours: minimum,
		CurrentAllocation:   current,
		RequestedHours:      newTotal,
	}
}

// CheckCapacity verifies that giving weeklyID requested hours keeps the
// allocation's planned total within its total hours. weeklyID may be empty
// for a week that does not exist yet.
func CheckCapacity(alloc *domain.PhaseAllocation, weeks []*domain.WeeklyAllocation, weeklyID string, requested decimal.Decimal) error {
	other := plannedExcluding(weeks, weeklyID)
	available := alloc.TotalHours.Sub(other)
	if requested.LessThanOrEqual(available) {
		return nil
	}
	if available.IsNegative() {
		available = decimal.Zero
	}
	return &domain.WeeklyCapacityError{
		AllocationID:   alloc.ID,
		TotalHours:     alloc.TotalHours,
		PlannedOther:   other,
		RequestedHours: requested,
		Available:      available,
	}
}

// Shortfall is the part of the allocation never distributed. It is zero when
// planning met or exceeded the total.
func Shortfall(alloc *domain.PhaseAllocation, planned decimal.Decimal) decimal.Decimal {
	gap := alloc.TotalHours.Sub(planned)
	if gap.IsPositive() {
		return gap
	}
	return decimal.Zero
}
