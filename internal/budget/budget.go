// Package budget sums committed hours against consultant and project
// ceilings. It reads nothing and writes nothing; callers load the current
// commitments inside their transaction and pass them in.
package budget

import (
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

type ConsultantInput struct {
	ConsultantID string
	ProjectID    string
	// Ceiling is the consultant's allocated hours for the project.
	Ceiling     decimal.Decimal
	Commitments []domain.Commitment
	// ExcludingPhaseID drops the allocation being edited so its old total is
	// replaced by Candidate rather than added to it. Proposals are never
	// excluded.
	ExcludingPhaseID string
	Candidate        decimal.Decimal
}

type ProjectInput struct {
	ProjectID string
	// Budget is the project's budgeted hours. Zero means unbounded.
	Budget                decimal.Decimal
	Commitments           []domain.Commitment
	ExcludingAllocationID string
	Candidate             decimal.Decimal
}

// Result is the arithmetic behind a check.
type Result struct {
	CurrentTotal decimal.Decimal
	NewTotal     decimal.Decimal
	Overage      decimal.Decimal
}

func (r Result) Exceeded() bool {
	return r.Overage.IsPositive()
}

func evaluate(commitments []domain.Commitment, skip func(domain.Commitment) bool, candidate, ceiling decimal.Decimal) Result {
	current := decimal.Zero
	for _, c := range commitments {
		if skip(c) {
			continue
		}
		current = current.Add(c.Hours)
	}
	newTotal := current.Add(candidate)
	overage := newTotal.Sub(ceiling)
	if overage.IsNegative() {
		overage = decimal.Zero
	}
	return Result{CurrentTotal: current, NewTotal: newTotal, Overage: overage}
}

// CheckConsultant is the blocking ceiling check. It returns a
// *domain.BudgetExceededError when the candidate would breach the ceiling.
func CheckConsultant(in ConsultantInput) (Result, error) {
	res := evaluate(in.Commitments, func(c domain.Commitment) bool {
		if c.ConsultantID != "" && c.ConsultantID != in.ConsultantID {
			return true
		}
		return c.Source == domain.CommitmentAllocation && in.ExcludingPhaseID != "" && c.PhaseID == in.ExcludingPhaseID
	}, in.Candidate, in.Ceiling)

	if res.Exceeded() {
		return res, &domain.BudgetExceededError{
			ConsultantID:   in.ConsultantID,
			ProjectID:      in.ProjectID,
			CurrentTotal:   res.CurrentTotal,
			RequestedHours: in.Candidate,
			NewTotal:       res.NewTotal,
			Budget:         in.Ceiling,
			Overage:        res.Overage,
		}
	}
	return res, nil
}

// CheckProject is advisory. A non-nil warning never blocks the write.
func CheckProject(in ProjectInput) (Result, *domain.ProjectBudgetWarning) {
	res := evaluate(in.Commitments, func(c domain.Commitment) bool {
		return c.Source == domain.CommitmentAllocation && in.ExcludingAllocationID != "" && c.ID == in.ExcludingAllocationID
	}, in.Candidate, in.Budget)

	if !in.Budget.IsPositive() || !res.Exceeded() {
		return res, nil
	}
	return res, &domain.ProjectBudgetWarning{
		ProjectID:      in.ProjectID,
		CurrentTotal:   res.CurrentTotal,
		RequestedHours: in.Candidate,
		NewTotal:       res.NewTotal,
		Budget:         in.Budget,
		Overage:        res.Overage,
	}
}
