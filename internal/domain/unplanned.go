package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnplannedExpiredHours is the ledger entry for hours an allocation never
// distributed before its phase ended.
type UnplannedExpiredHours struct {
	ID                        string
	PhaseAllocationID         string
	UnplannedHours            decimal.Decimal
	Status                    UnplannedStatus
	DetectedAt                time.Time
	HandledAt                 *time.Time
	HandledBy                 string
	ReallocatedToPhaseID      string
	ReallocatedToAllocationID string
	Notes                     string
}

func NewUnplannedExpiredHours(id, allocationID string, hours decimal.Decimal, now time.Time) *UnplannedExpiredHours {
	return &UnplannedExpiredHours{
		ID:                id,
		PhaseAllocationID: allocationID,
		UnplannedHours:    hours,
		Status:            UnplannedExpired,
		DetectedAt:        now,
	}
}

func (u *UnplannedExpiredHours) requireExpired() error {
	switch u.Status {
	case UnplannedExpired:
		return nil
	case UnplannedForfeited, UnplannedReallocated:
		return Preconditionf("unplanned hours %s are %s, expected %s", u.ID, u.Status, UnplannedExpired)
	default:
		return Preconditionf("unplanned hours %s have unknown status %q", u.ID, u.Status)
	}
}

// MarkReallocated records the destination the hours moved to.
func (u *UnplannedExpiredHours) MarkReallocated(toPhaseID, toAllocationID, actor string, now time.Time) error {
	if err := u.requireExpired(); err != nil {
		return err
	}
	u.Status = UnplannedReallocated
	u.ReallocatedToPhaseID = toPhaseID
	u.ReallocatedToAllocationID = toAllocationID
	u.HandledBy = actor
	at := now
	u.HandledAt = &at
	return nil
}

// RevertReallocation reopens a REALLOCATED record. Every field returns to its
// detected state; only the note is kept.
func (u *UnplannedExpiredHours) RevertReallocation(note string) error {
	if u.Status != UnplannedReallocated {
		return DataIntegrityf("unplanned hours %s are %s; only %s records can be reverted",
			u.ID, u.Status, UnplannedReallocated)
	}
	u.Status = UnplannedExpired
	u.ReallocatedToPhaseID = ""
	u.ReallocatedToAllocationID = ""
	u.HandledBy = ""
	u.HandledAt = nil
	u.AppendNote(note)
	return nil
}

// Forfeit drops the hours. The record is terminal afterwards.
func (u *UnplannedExpiredHours) Forfeit(actor, note string, now time.Time) error {
	if err := u.requireExpired(); err != nil {
		return err
	}
	u.Status = UnplannedForfeited
	u.HandledBy = actor
	at := now
	u.HandledAt = &at
	u.AppendNote(note)
	return nil
}

func (u *UnplannedExpiredHours) AppendNote(note string) {
	if note == "" {
		return
	}
	if u.Notes == "" {
		u.Notes = note
		return
	}
	u.Notes += "\n" + note
}

// ReallocationProposal holds hours in transit toward an APPROVED allocation
// until the Growth Team decides on them.
type ReallocationProposal struct {
	ID                      string
	DestinationAllocationID string
	UnplannedID             string
	SourcePhaseID           string
	ConsultantID            string
	Hours                   decimal.Decimal
	RequestedBy             string
	RequestedAt             time.Time
}
