package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project carries the project-wide hour budget. A zero BudgetedHours means the
// project has no advisory ceiling.
type Project struct {
	ID            string
	Name          string
	BudgetedHours decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Phase struct {
	ID               string
	ProjectID        string
	Name             string
	StartDate        time.Time
	EndDate          time.Time
	ProductManagerID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EndedBefore reports whether the phase's last day lies strictly before the
// calendar date of now (UTC).
func (p *Phase) EndedBefore(now time.Time) bool {
	return DateOf(p.EndDate).Before(DateOf(now))
}

// Overlaps reports whether the closed date range [start, end] intersects the
// phase window.
func (p *Phase) Overlaps(start, end time.Time) bool {
	return !DateOf(end).Before(DateOf(p.StartDate)) && !DateOf(start).After(DateOf(p.EndDate))
}

// ConsultantAssignment is the blocking per (consultant, project) ceiling.
type ConsultantAssignment struct {
	ProjectID      string
	ConsultantID   string
	AllocatedHours decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DateOf truncates t to midnight UTC.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
