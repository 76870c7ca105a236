// Package expiry decides which allocations have run out their phase with
// hours left undistributed.
package expiry

import (
	"time"

	"github.com/alexanderramin/phasehours/internal/distribution"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

type SkipReason string

const (
	SkipNotApproved      SkipReason = "not_approved"
	SkipPhaseOpen        SkipReason = "phase_open"
	SkipFullyPlanned     SkipReason = "fully_planned"
	SkipAlreadyRecorded  SkipReason = "already_recorded"
	SkipReallocationOpen SkipReason = "reallocation_in_flight"
)

// Candidate is everything needed to judge one allocation.
type Candidate struct {
	Allocation *domain.PhaseAllocation
	Phase      *domain.Phase
	Weeks      []*domain.WeeklyAllocation
	// HasUnplanned is set when an unplanned record already exists for the
	// allocation.
	HasUnplanned bool
	// PendingProposals counts reallocation proposals targeting the
	// allocation that still await a decision.
	PendingProposals int
}

// Finding is an allocation that must expire.
type Finding struct {
	AllocationID   string
	PhaseID        string
	ConsultantID   string
	TotalHours     decimal.Decimal
	PlannedHours   decimal.Decimal
	UnplannedHours decimal.Decimal
}

// Evaluate returns a finding, or the reason the allocation is left alone.
func Evaluate(c Candidate, now time.Time) (*Finding, SkipReason) {
	a := c.Allocation
	if a.Status != domain.AllocationApproved {
		return nil, SkipNotApproved
	}
	if !c.Phase.EndedBefore(now) {
		return nil, SkipPhaseOpen
	}
	if c.HasUnplanned {
		return nil, SkipAlreadyRecorded
	}
	if c.PendingProposals > 0 {
		return nil, SkipReallocationOpen
	}
	planned := distribution.PlannedTotal(c.Weeks)
	gap := distribution.Shortfall(a, planned)
	if gap.IsZero() {
		return nil, SkipFullyPlanned
	}
	return &Finding{
		AllocationID:   a.ID,
		PhaseID:        a.PhaseID,
		ConsultantID:   a.ConsultantID,
		TotalHours:     a.TotalHours,
		PlannedHours:   planned,
		UnplannedHours: gap,
	}, ""
}
