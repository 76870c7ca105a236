package expiry

import (
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

func candidate(total string, status domain.AllocationStatus, endDate time.Time, planned ...string) Candidate {
	a := &domain.PhaseAllocation{ID: "a1", PhaseID: "ph1", ConsultantID: "c1", TotalHours: decimal.RequireFromString(total), Status: status}
	c := Candidate{
		Allocation: a,
		Phase:      &domain.Phase{ID: "ph1", StartDate: endDate.AddDate(0, -1, 0), EndDate: endDate},
	}
	for _, p := range planned {
		hrs := decimal.RequireFromString(p)
		c.Weeks = append(c.Weeks, &domain.WeeklyAllocation{
			Status:        domain.PlanningApproved,
			ProposedHours: hrs,
			ApprovedHours: decimal.NewNullDecimal(hrs),
		})
	}
	return c
}

func TestEvaluate_UnderPlannedEndedPhase(t *testing.T) {
	c := candidate("40", domain.AllocationApproved, testNow.AddDate(0, 0, -1), "10", "5.5")
	f, reason := Evaluate(c, testNow)
	require.NotNil(t, f)
	assert.Empty(t, reason)
	assert.Equal(t, "a1", f.AllocationID)
	assert.True(t, f.PlannedHours.Equal(decimal.RequireFromString("15.5")))
	assert.True(t, f.UnplannedHours.Equal(decimal.RequireFromString("24.5")))
}

func TestEvaluate_Skips(t *testing.T) {
	ended := testNow.AddDate(0, 0, -3)

	cases := []struct {
		name   string
		c      Candidate
		reason SkipReason
	}{
		{"pending allocation", candidate("40", domain.AllocationPending, ended), SkipNotApproved},
		{"already expired", candidate("40", domain.AllocationExpired, ended), SkipNotApproved},
		{"phase ends today", candidate("40", domain.AllocationApproved, testNow), SkipPhaseOpen},
		{"fully planned", candidate("40", domain.AllocationApproved, ended, "20", "20"), SkipFullyPlanned},
		{"over planned", candidate("40", domain.AllocationApproved, ended, "50"), SkipFullyPlanned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, reason := Evaluate(tc.c, testNow)
			assert.Nil(t, f)
			assert.Equal(t, tc.reason, reason)
		})
	}

	recorded := candidate("40", domain.AllocationApproved, ended)
	recorded.HasUnplanned = true
	_, reason := Evaluate(recorded, testNow)
	assert.Equal(t, SkipAlreadyRecorded, reason)

	inFlight := candidate("40", domain.AllocationApproved, ended)
	inFlight.PendingProposals = 1
	_, reason = Evaluate(inFlight, testNow)
	assert.Equal(t, SkipReallocationOpen, reason)
}
