package domain

import "github.com/shopspring/decimal"

type CommitmentSource string

const (
	CommitmentAllocation CommitmentSource = "allocation"
	CommitmentProposal   CommitmentSource = "proposal"
)

// Commitment is one line of hours held against a budget ceiling.
type Commitment struct {
	Source       CommitmentSource
	ID           string
	PhaseID      string
	ConsultantID string
	Hours        decimal.Decimal
}

// AllocationCommitment converts an allocation row into its budget line.
// unplanned is the shortfall recorded for it by the expiration detector, or
// zero when none exists.
func AllocationCommitment(a *PhaseAllocation, unplanned decimal.Decimal) Commitment {
	return Commitment{
		Source:       CommitmentAllocation,
		ID:           a.ID,
		PhaseID:      a.PhaseID,
		ConsultantID: a.ConsultantID,
		Hours:        a.CommittedHours(unplanned),
	}
}

func ProposalCommitment(p *ReallocationProposal, destinationPhaseID string) Commitment {
	return Commitment{
		Source:       CommitmentProposal,
		ID:           p.ID,
		PhaseID:      destinationPhaseID,
		ConsultantID: p.ConsultantID,
		Hours:        p.Hours,
	}
}
