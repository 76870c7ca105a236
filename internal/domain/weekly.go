package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyAllocation is the distribution of part of a PhaseAllocation into one
// ISO week.
type WeeklyAllocation struct {
	ID                string
	PhaseAllocationID string
	ConsultantID      string
	WeekStartDate     time.Time
	WeekEndDate       time.Time
	WeekNumber        int
	Year              int
	ProposedHours     decimal.Decimal
	ApprovedHours     decimal.NullDecimal
	Status            PlanningStatus
	PlannedBy         string
	ApprovedBy        string
	ApprovedAt        *time.Time
	RejectionReason   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ISOWeek describes the Monday-to-Sunday week containing a date.
type ISOWeek struct {
	Year   int
	Number int
	Start  time.Time
	End    time.Time
}

// WeekOf returns the ISO week containing t.
func WeekOf(t time.Time) ISOWeek {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	year, week := start.ISOWeek()
	return ISOWeek{Year: year, Number: week, Start: start, End: start.AddDate(0, 0, 6)}
}

func NewWeeklyAllocation(id string, alloc *PhaseAllocation, week ISOWeek, hours decimal.Decimal, plannedBy string, now time.Time) *WeeklyAllocation {
	return &WeeklyAllocation{
		ID:                id,
		PhaseAllocationID: alloc.ID,
		ConsultantID:      alloc.ConsultantID,
		WeekStartDate:     week.Start,
		WeekEndDate:       week.End,
		WeekNumber:        week.Number,
		Year:              week.Year,
		ProposedHours:     hours,
		Status:            PlanningPending,
		PlannedBy:         plannedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Hours is the amount this week counts toward the allocation's planned total:
// approved hours once approved, proposed hours while pending, nothing when
// rejected.
func (w *WeeklyAllocation) Hours() decimal.Decimal {
	switch w.Status {
	case PlanningApproved:
		if w.ApprovedHours.Valid {
			return w.ApprovedHours.Decimal
		}
		return w.ProposedHours
	case PlanningPending:
		return w.ProposedHours
	case PlanningRejected:
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// Repropose puts a pending or rejected week back up for decision.
func (w *WeeklyAllocation) Repropose(hours decimal.Decimal, by string, now time.Time) error {
	if w.Status == PlanningApproved {
		return Preconditionf("week %d/%d is already approved", w.Year, w.WeekNumber)
	}
	w.ProposedHours = hours
	w.ApprovedHours = decimal.NullDecimal{}
	w.Status = PlanningPending
	w.PlannedBy = by
	w.ApprovedBy = ""
	w.ApprovedAt = nil
	w.RejectionReason = ""
	w.UpdatedAt = now
	return nil
}

func (w *WeeklyAllocation) requirePending() error {
	switch w.Status {
	case PlanningPending:
		return nil
	case PlanningApproved, PlanningRejected:
		return Stalef("weekly allocation %s was already decided (%s)", w.ID, w.Status)
	default:
		return Preconditionf("weekly allocation %s has unknown status %q", w.ID, w.Status)
	}
}

// Approve approves the proposed hours, or hours when given (modify).
func (w *WeeklyAllocation) Approve(actor string, hours *decimal.Decimal, now time.Time) error {
	if err := w.requirePending(); err != nil {
		return err
	}
	approved := HoursOr(w.ProposedHours, hours)
	if approved.IsNegative() {
		return Validationf("approved hours must not be negative")
	}
	w.ApprovedHours = decimal.NewNullDecimal(approved)
	w.Status = PlanningApproved
	w.ApprovedBy = actor
	at := now
	w.ApprovedAt = &at
	w.RejectionReason = ""
	w.UpdatedAt = now
	return nil
}

func (w *WeeklyAllocation) Reject(actor, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return Validationf("rejection reason is required")
	}
	if err := w.requirePending(); err != nil {
		return err
	}
	w.Status = PlanningRejected
	w.ApprovedHours = decimal.NullDecimal{}
	w.ApprovedBy = actor
	at := now
	w.ApprovedAt = &at
	w.RejectionReason = reason
	w.UpdatedAt = now
	return nil
}
