package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PhaseAllocation is one consultant's committed hours for one phase. There is
// exactly one row per (phase, consultant); hours in transit toward an APPROVED
// allocation live in ReallocationProposal instead.
type PhaseAllocation struct {
	ID              string
	PhaseID         string
	ConsultantID    string
	TotalHours      decimal.Decimal
	Status          AllocationStatus
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectionReason string

	// Provenance, set when the allocation was created from unplanned hours.
	IsReallocation             bool
	ReallocatedFromPhaseID     string
	ReallocatedFromUnplannedID string

	IsComposite bool
	Composition Composition

	// Version guards concurrent writers; every persisted update bumps it.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPhaseAllocation returns a PENDING allocation.
func NewPhaseAllocation(id, phaseID, consultantID string, hours decimal.Decimal, now time.Time) *PhaseAllocation {
	return &PhaseAllocation{
		ID:           id,
		PhaseID:      phaseID,
		ConsultantID: consultantID,
		TotalHours:   hours,
		Status:       AllocationPending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewReallocatedAllocation returns a PENDING allocation whose hours come
// entirely from an unplanned record.
func NewReallocatedAllocation(id, phaseID, consultantID string, hours decimal.Decimal, sourcePhaseID, sourceUnplannedID string, now time.Time) *PhaseAllocation {
	a := NewPhaseAllocation(id, phaseID, consultantID, hours, now)
	a.IsReallocation = true
	a.ReallocatedFromPhaseID = sourcePhaseID
	a.ReallocatedFromUnplannedID = sourceUnplannedID
	a.Composition = Composition{{
		Kind:              CompositionReallocated,
		Hours:             hours,
		SourcePhaseID:     sourcePhaseID,
		SourceUnplannedID: sourceUnplannedID,
		Timestamp:         now,
	}}
	return a
}

// PendingReallocatedHours is the sum of reallocated slices still awaiting a
// decision on this allocation.
func (a *PhaseAllocation) PendingReallocatedHours() decimal.Decimal {
	return a.Composition.Pending().Hours()
}

// HasPendingReallocations reports whether a rejection must take the revert path.
func (a *PhaseAllocation) HasPendingReallocations() bool {
	return len(a.Composition.Pending()) > 0
}

func (a *PhaseAllocation) requirePending() error {
	switch a.Status {
	case AllocationPending:
		return nil
	case AllocationApproved, AllocationRejected:
		return Stalef("allocation %s was already decided (%s)", a.ID, a.Status)
	case AllocationDeletionPending, AllocationExpired, AllocationForfeited:
		return Preconditionf("allocation %s is %s, expected %s", a.ID, a.Status, AllocationPending)
	default:
		return Preconditionf("allocation %s has unknown status %q", a.ID, a.Status)
	}
}

func (a *PhaseAllocation) requireCoversPending(hours decimal.Decimal) error {
	pending := a.PendingReallocatedHours()
	if hours.LessThan(pending) {
		return Preconditionf("allocation %s carries %s reallocated hours awaiting decision; total cannot drop to %s",
			a.ID, pending, hours)
	}
	return nil
}

func (a *PhaseAllocation) touch(now time.Time) {
	a.UpdatedAt = now
}

// Approve records a Growth Team approval and settles any merged slices.
func (a *PhaseAllocation) Approve(actor string, now time.Time) error {
	if err := a.requirePending(); err != nil {
		return err
	}
	a.Status = AllocationApproved
	a.ApprovedBy = actor
	at := now
	a.ApprovedAt = &at
	a.RejectionReason = ""
	a.Composition = a.Composition.Settled()
	a.touch(now)
	return nil
}

// Modify overwrites the total and approves it in one step.
func (a *PhaseAllocation) Modify(actor string, hours decimal.Decimal, now time.Time) error {
	if err := a.requirePending(); err != nil {
		return err
	}
	if hours.IsNegative() {
		return Validationf("modified hours must not be negative")
	}
	if err := a.requireCoversPending(hours); err != nil {
		return err
	}
	a.TotalHours = hours
	return a.Approve(actor, now)
}

// Reject marks a plain (non-composite) pending allocation REJECTED.
func (a *PhaseAllocation) Reject(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return Validationf("rejection reason is required")
	}
	if err := a.requirePending(); err != nil {
		return err
	}
	a.Status = AllocationRejected
	a.ApprovedBy = ""
	a.ApprovedAt = nil
	a.RejectionReason = reason
	a.touch(now)
	return nil
}

// Resubmit applies a PM's new total. It returns false when nothing changed.
// Any hours change on an APPROVED allocation requires re-approval.
func (a *PhaseAllocation) Resubmit(hours decimal.Decimal, now time.Time) (bool, error) {
	switch a.Status {
	case AllocationPending, AllocationApproved:
		if hours.Equal(a.TotalHours) {
			return false, nil
		}
	case AllocationRejected:
	case AllocationDeletionPending, AllocationExpired, AllocationForfeited:
		return false, Preconditionf("allocation %s is %s and cannot be resubmitted", a.ID, a.Status)
	default:
		return false, Preconditionf("allocation %s has unknown status %q", a.ID, a.Status)
	}
	if err := a.requireCoversPending(hours); err != nil {
		return false, err
	}
	a.TotalHours = hours
	a.Status = AllocationPending
	a.ApprovedBy = ""
	a.ApprovedAt = nil
	a.RejectionReason = ""
	a.touch(now)
	return true, nil
}

func (a *PhaseAllocation) RequestDeletion(now time.Time) error {
	if a.Status != AllocationApproved {
		return Preconditionf("allocation %s is %s; only %s allocations can be scheduled for deletion",
			a.ID, a.Status, AllocationApproved)
	}
	a.Status = AllocationDeletionPending
	a.touch(now)
	return nil
}

// RequireDeletionPending guards the deletion decision.
func (a *PhaseAllocation) RequireDeletionPending() error {
	if a.Status != AllocationDeletionPending {
		return Preconditionf("allocation %s is %s, expected %s", a.ID, a.Status, AllocationDeletionPending)
	}
	return nil
}

// RejectDeletion restores APPROVED and keeps the reason for the PM.
func (a *PhaseAllocation) RejectDeletion(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return Validationf("rejection reason is required")
	}
	if err := a.RequireDeletionPending(); err != nil {
		return err
	}
	a.Status = AllocationApproved
	a.RejectionReason = reason
	a.touch(now)
	return nil
}

func (a *PhaseAllocation) Expire(now time.Time) error {
	if !a.Status.CanTransitionTo(AllocationExpired) {
		return Preconditionf("allocation %s is %s and cannot expire", a.ID, a.Status)
	}
	a.Status = AllocationExpired
	a.touch(now)
	return nil
}

func (a *PhaseAllocation) Forfeit(now time.Time) error {
	if !a.Status.CanTransitionTo(AllocationForfeited) {
		return Preconditionf("allocation %s is %s and cannot be forfeited", a.ID, a.Status)
	}
	a.Status = AllocationForfeited
	a.touch(now)
	return nil
}

// MergeReallocation folds unplanned hours into a PENDING allocation in place.
// The first merge records the pre-merge hours as the original contribution.
func (a *PhaseAllocation) MergeReallocation(hours decimal.Decimal, sourcePhaseID, sourceUnplannedID string, now time.Time) error {
	if a.Status != AllocationPending {
		return InvalidDestinationf("allocation %s is %s; in-place merge needs %s", a.ID, a.Status, AllocationPending)
	}
	if len(a.Composition) == 0 {
		a.Composition = Composition{{
			Kind:      CompositionOriginal,
			Hours:     a.TotalHours,
			Settled:   true,
			Timestamp: now,
		}}
	}
	a.Composition = append(a.Composition, CompositionEntry{
		Kind:              CompositionReallocated,
		Hours:             hours,
		SourcePhaseID:     sourcePhaseID,
		SourceUnplannedID: sourceUnplannedID,
		Timestamp:         now,
	})
	a.TotalHours = a.TotalHours.Add(hours)
	a.IsComposite = true
	a.touch(now)
	return nil
}

// AbsorbProposal adds the hours of an approved proposal to an APPROVED
// allocation. The slice is settled immediately.
func (a *PhaseAllocation) AbsorbProposal(p *ReallocationProposal, now time.Time) error {
	if a.ID != p.DestinationAllocationID {
		return DataIntegrityf("proposal %s targets %s, not %s", p.ID, p.DestinationAllocationID, a.ID)
	}
	if a.Status != AllocationApproved {
		return InvalidDestinationf("destination allocation %s is %s; retarget the reallocation", a.ID, a.Status)
	}
	if len(a.Composition) == 0 {
		a.Composition = Composition{{
			Kind:      CompositionOriginal,
			Hours:     a.TotalHours,
			Settled:   true,
			Timestamp: now,
		}}
	}
	a.Composition = append(a.Composition, CompositionEntry{
		Kind:              CompositionReallocated,
		Hours:             p.Hours,
		SourcePhaseID:     p.SourcePhaseID,
		SourceUnplannedID: p.UnplannedID,
		Settled:           true,
		Timestamp:         now,
	})
	a.TotalHours = a.TotalHours.Add(p.Hours)
	a.IsComposite = true
	a.touch(now)
	return nil
}

// RevertPendingReallocations is the rejection path for an allocation holding
// unsettled reallocated slices. It strips those slices, restores the hours
// that existed without them and marks the allocation REJECTED. The returned
// entries name the unplanned records to reopen. remove is true when nothing
// but reverted hours was ever committed, in which case the row must be deleted.
func (a *PhaseAllocation) RevertPendingReallocations(reason string, now time.Time) (reverted Composition, remove bool, err error) {
	if strings.TrimSpace(reason) == "" {
		return nil, false, Validationf("rejection reason is required")
	}
	if err := a.requirePending(); err != nil {
		return nil, false, err
	}
	reverted = a.Composition.Pending()
	restored := a.TotalHours.Sub(reverted.Hours())
	if restored.IsNegative() {
		return nil, false, DataIntegrityf("allocation %s holds %s hours but %s are marked as reallocated",
			a.ID, a.TotalHours, reverted.Hours())
	}
	a.Composition = a.Composition.WithoutPending()
	a.TotalHours = restored
	a.IsComposite = len(a.Composition) > 1
	if len(a.Composition) <= 1 && (len(a.Composition) == 0 || a.Composition[0].Kind == CompositionOriginal) {
		// A lone original entry is not an audit trail worth keeping.
		a.Composition = nil
	}
	if a.IsReallocation && restored.IsZero() {
		return reverted, true, nil
	}
	a.Status = AllocationRejected
	a.ApprovedBy = ""
	a.ApprovedAt = nil
	a.RejectionReason = reason
	a.touch(now)
	return reverted, false, nil
}

// CommittedHours is what this allocation holds against the consultant's
// budget. Expired and forfeited allocations hold only what was distributed,
// so the shortfall is not counted twice once it moves elsewhere.
func (a *PhaseAllocation) CommittedHours(unplanned decimal.Decimal) decimal.Decimal {
	switch a.Status {
	case AllocationPending, AllocationApproved, AllocationDeletionPending:
		return a.TotalHours
	case AllocationExpired, AllocationForfeited:
		held := a.TotalHours.Sub(unplanned)
		if held.IsNegative() {
			return decimal.Zero
		}
		return held
	case AllocationRejected:
		return decimal.Zero
	default:
		return decimal.Zero
	}
}
