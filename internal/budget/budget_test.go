package budget

import (
	"math/rand"
	"testing"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func h(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func alloc(id, phase string, hours string) domain.Commitment {
	return domain.Commitment{Source: domain.CommitmentAllocation, ID: id, PhaseID: phase, ConsultantID: "c1", Hours: h(hours)}
}

func TestCheckConsultant_OverageReported(t *testing.T) {
	res, err := CheckConsultant(ConsultantInput{
		ConsultantID: "c1",
		ProjectID:    "p1",
		Ceiling:      h("100"),
		Commitments:  []domain.Commitment{alloc("a1", "ph1", "50"), alloc("a2", "ph2", "40")},
		Candidate:    h("20"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBudgetExceeded)

	var be *domain.BudgetExceededError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.CurrentTotal.Equal(h("90")))
	assert.True(t, be.RequestedHours.Equal(h("20")))
	assert.True(t, be.NewTotal.Equal(h("110")))
	assert.True(t, be.Budget.Equal(h("100")))
	assert.True(t, be.Overage.Equal(h("10")))
	assert.True(t, res.Exceeded())
}

func TestCheckConsultant_ExactCeilingPasses(t *testing.T) {
	_, err := CheckConsultant(ConsultantInput{
		ConsultantID: "c1",
		Ceiling:      h("100"),
		Commitments:  []domain.Commitment{alloc("a1", "ph1", "90")},
		Candidate:    h("10"),
	})
	assert.NoError(t, err)
}

func TestCheckConsultant_ExcludesEditedPhase(t *testing.T) {
	_, err := CheckConsultant(ConsultantInput{
		ConsultantID:     "c1",
		Ceiling:          h("100"),
		Commitments:      []domain.Commitment{alloc("a1", "ph1", "80"), alloc("a2", "ph2", "10")},
		ExcludingPhaseID: "ph1",
		Candidate:        h("90"),
	})
	assert.NoError(t, err, "the edited phase's old total is replaced, not added")
}

func TestCheckConsultant_ProposalsAlwaysCount(t *testing.T) {
	proposal := domain.Commitment{Source: domain.CommitmentProposal, ID: "p1", PhaseID: "ph1", ConsultantID: "c1", Hours: h("20")}
	_, err := CheckConsultant(ConsultantInput{
		ConsultantID:     "c1",
		Ceiling:          h("100"),
		Commitments:      []domain.Commitment{alloc("a1", "ph1", "60"), proposal},
		ExcludingPhaseID: "ph1",
		Candidate:        h("90"),
	})
	var be *domain.BudgetExceededError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.Overage.Equal(h("10")))
}

func TestCheckConsultant_IgnoresOtherConsultants(t *testing.T) {
	other := alloc("a9", "ph1", "500")
	other.ConsultantID = "c2"
	_, err := CheckConsultant(ConsultantInput{
		ConsultantID: "c1",
		Ceiling:      h("10"),
		Commitments:  []domain.Commitment{other},
		Candidate:    h("10"),
	})
	assert.NoError(t, err)
}

func TestCheckProject_WarnsButNeverErrors(t *testing.T) {
	res, warn := CheckProject(ProjectInput{
		ProjectID:   "p1",
		Budget:      h("100"),
		Commitments: []domain.Commitment{alloc("a1", "ph1", "95")},
		Candidate:   h("10"),
	})
	require.NotNil(t, warn)
	assert.True(t, warn.Overage.Equal(h("5")))
	assert.True(t, res.NewTotal.Equal(h("105")))
	assert.Contains(t, warn.Message(), "p1")
}

func TestCheckProject_ZeroBudgetIsUnbounded(t *testing.T) {
	_, warn := CheckProject(ProjectInput{
		ProjectID:   "p1",
		Commitments: []domain.Commitment{alloc("a1", "ph1", "95")},
		Candidate:   h("10"),
	})
	assert.Nil(t, warn)
}

func TestCheckProject_ExcludesAllocation(t *testing.T) {
	_, warn := CheckProject(ProjectInput{
		ProjectID:             "p1",
		Budget:                h("100"),
		Commitments:           []domain.Commitment{alloc("a1", "ph1", "95")},
		ExcludingAllocationID: "a1",
		Candidate:             h("100"),
	})
	assert.Nil(t, warn)
}

// TestCheckConsultant_Invariants_NewTotalNeverAboveCeilingOnSuccess
// property-tests the blocking check: a nil error always means the ceiling holds.
func TestCheckConsultant_Invariants_NewTotalNeverAboveCeilingOnSuccess(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 300; trial++ {
		ceiling := decimal.New(int64(rng.Intn(400)), 0)
		var commitments []domain.Commitment
		n := rng.Intn(6)
		for i := 0; i < n; i++ {
			c := alloc("a", "ph"+string(rune('0'+i)), "0")
			c.Hours = decimal.New(int64(rng.Intn(2000)), -1)
			if rng.Intn(3) == 0 {
				c.Source = domain.CommitmentProposal
			}
			commitments = append(commitments, c)
		}
		candidate := decimal.New(int64(rng.Intn(1500)), -1)

		res, err := CheckConsultant(ConsultantInput{
			ConsultantID:     "c1",
			Ceiling:          ceiling,
			Commitments:      commitments,
			ExcludingPhaseID: "ph0",
			Candidate:        candidate,
		})
		if err == nil {
			assert.True(t, res.NewTotal.LessThanOrEqual(ceiling), "trial %d", trial)
		} else {
			assert.True(t, res.NewTotal.Sub(ceiling).Equal(res.Overage), "trial %d", trial)
		}
	}
}
