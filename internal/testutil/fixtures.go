package testutil

import (
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Hours parses a decimal literal and panics on malformed input.
func Hours(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Project options
type ProjectOption func(*domain.Project)

func WithBudget(hours string) ProjectOption {
	return func(p *domain.Project) {
		p.BudgetedHours = Hours(hours)
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Phase options
type PhaseOption func(*domain.Phase)

func WithPhaseWindow(start, end time.Time) PhaseOption {
	return func(p *domain.Phase) {
		p.StartDate = domain.DateOf(start)
		p.EndDate = domain.DateOf(end)
	}
}

func WithProductManager(id string) PhaseOption {
	return func(p *domain.Phase) {
		p.ProductManagerID = id
	}
}

// NewTestPhase returns a phase that started a month ago and ends in a month.
func NewTestPhase(projectID, name string, opts ...PhaseOption) *domain.Phase {
	now := time.Now().UTC()
	p := &domain.Phase{
		ID:               uuid.New().String(),
		ProjectID:        projectID,
		Name:             name,
		StartDate:        domain.DateOf(now.AddDate(0, -1, 0)),
		EndDate:          domain.DateOf(now.AddDate(0, 1, 0)),
		ProductManagerID: "pm-1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestAssignment(projectID, consultantID, hours string) *domain.ConsultantAssignment {
	now := time.Now().UTC()
	return &domain.ConsultantAssignment{
		ProjectID:      projectID,
		ConsultantID:   consultantID,
		AllocatedHours: Hours(hours),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Allocation options
type AllocationOption func(*domain.PhaseAllocation)

func WithAllocationStatus(s domain.AllocationStatus) AllocationOption {
	return func(a *domain.PhaseAllocation) {
		a.Status = s
		if s == domain.AllocationApproved {
			at := a.CreatedAt
			a.ApprovedAt = &at
			a.ApprovedBy = "growth-1"
		}
	}
}

func WithReallocationSource(phaseID, unplannedID string) AllocationOption {
	return func(a *domain.PhaseAllocation) {
		a.IsReallocation = true
		a.ReallocatedFromPhaseID = phaseID
		a.ReallocatedFromUnplannedID = unplannedID
	}
}

func NewTestAllocation(phaseID, consultantID, hours string, opts ...AllocationOption) *domain.PhaseAllocation {
	a := domain.NewPhaseAllocation(uuid.New().String(), phaseID, consultantID, Hours(hours), time.Now().UTC())
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weekly options
type WeeklyOption func(*domain.WeeklyAllocation)

// WithWeeklyApproved approves the week at its proposed hours.
func WithWeeklyApproved() WeeklyOption {
	return func(w *domain.WeeklyAllocation) {
		w.Status = domain.PlanningApproved
		w.ApprovedHours = decimal.NewNullDecimal(w.ProposedHours)
		w.ApprovedBy = "growth-1"
		at := w.CreatedAt
		w.ApprovedAt = &at
	}
}

func NewTestWeekly(alloc *domain.PhaseAllocation, weekStart time.Time, hours string, opts ...WeeklyOption) *domain.WeeklyAllocation {
	w := domain.NewWeeklyAllocation(uuid.New().String(), alloc, domain.WeekOf(weekStart), Hours(hours),
		alloc.ConsultantID, time.Now().UTC())
	for _, opt := range opts {
		opt(w)
	}
	return w
}
