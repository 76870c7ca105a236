package distribution

import (
	"math/rand"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func h(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func week(id string, status domain.PlanningStatus, proposed string, approved *string) *domain.WeeklyAllocation {
	w := &domain.WeeklyAllocation{ID: id, Status: status, ProposedHours: h(proposed)}
	if approved != nil {
		w.ApprovedHours = decimal.NewNullDecimal(h(*approved))
	}
	return w
}

func strp(s string) *string { return &s }

func TestPlannedTotal(t *testing.T) {
	weeks := []*domain.WeeklyAllocation{
		week("w1", domain.PlanningApproved, "10", strp("8")),
		week("w2", domain.PlanningPending, "12", nil),
		week("w3", domain.PlanningRejected, "40", nil),
	}
	assert.True(t, PlannedTotal(weeks).Equal(h("20")))
	assert.True(t, PlannedTotal(nil).IsZero())
}

func TestCanReduceTo_BelowPlannedFails(t *testing.T) {
	alloc := &domain.PhaseAllocation{ID: "a1", TotalHours: h("80")}
	err := CanReduceTo(alloc, h("60"), h("50"))
	require.Error(t, err)

	var below *domain.BelowPlannedHoursError
	require.ErrorAs(t, err, &below)
	assert.True(t, below.MinimumAllowedHours.Equal(h("60")))
	assert.True(t, below.PlannedHours.Equal(h("60")))
	assert.True(t, below.CurrentAllocation.Equal(h("80")))
	assert.ErrorIs(t, err, domain.ErrBelowPlannedHours)
}

func TestCanReduceTo_DownToPlannedIsLegal(t *testing.T) {
	alloc := &domain.PhaseAllocation{ID: "a1", TotalHours: h("80")}
	assert.NoError(t, CanReduceTo(alloc, h("60"), h("70")))
	assert.NoError(t, CanReduceTo(alloc, h("60"), h("60")))
	assert.NoError(t, CanReduceTo(alloc, h("60"), h("120")))
}

func TestCanReduceTo_FullyPlannedMayOnlyGrow(t *testing.T) {
	alloc := &domain.PhaseAllocation{ID: "a1", TotalHours: h("80")}
	err := CanReduceTo(alloc, h("80"), h("79.5"))
	var below *domain.BelowPlannedHoursError
	require.ErrorAs(t, err, &below)
	assert.True(t, below.MinimumAllowedHours.Equal(h("80")))
	assert.NoError(t, CanReduceTo(alloc, h("80"), h("81")))
}

func TestCanReduceTo_PendingSlicesRaiseTheFloor(t *testing.T) {
	alloc := &domain.PhaseAllocation{
		ID:         "a1",
		TotalHours: h("65"),
		Composition: domain.Composition{
			{Kind: domain.CompositionOriginal, Hours: h("50"), Settled: true},
			{Kind: domain.CompositionReallocated, Hours: h("15"), SourceUnplannedID: "u1"},
		},
	}

	err := CanReduceTo(alloc, h("30"), h("35"))
	var below *domain.BelowPlannedHoursError
	require.ErrorAs(t, err, &below)
	assert.True(t, below.MinimumAllowedHours.Equal(h("45")))
	assert.True(t, below.PlannedHours.Equal(h("30")))

	assert.NoError(t, CanReduceTo(alloc, h("30"), h("45")))

	alloc.Composition[1].Settled = true
	assert.NoError(t, CanReduceTo(alloc, h("30"), h("35")), "settled slices no longer count")
}

func TestCheckCapacity(t *testing.T) {
	alloc := &domain.PhaseAllocation{ID: "a1", TotalHours: h("40")}
	weeks := []*domain.WeeklyAllocation{
		week("w1", domain.PlanningApproved, "20", strp("20")),
		week("w2", domain.PlanningPending, "15", nil),
	}
	assert.NoError(t, CheckCapacity(alloc, weeks, "w2", h("20")), "w2 may grow into the remaining 20")

	err := CheckCapacity(alloc, weeks, "", h("6"))
	var capErr *domain.WeeklyCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.True(t, capErr.Available.Equal(h("5")))
	assert.True(t, capErr.PlannedOther.Equal(h("35")))
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestShortfall(t *testing.T) {
	alloc := &domain.PhaseAllocation{TotalHours: h("40")}
	assert.True(t, Shortfall(alloc, h("25")).Equal(h("15")))
	assert.True(t, Shortfall(alloc, h("45")).IsZero())
}

// TestCheckCapacity_Invariants_PlannedNeverExceedsTotal applies random weekly
// decisions and checks the distributed sum stays within the allocation.
func TestCheckCapacity_Invariants_PlannedNeverExceedsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 100; trial++ {
		alloc := &domain.PhaseAllocation{ID: "a1", TotalHours: decimal.New(int64(rng.Intn(80)+1), 0)}
		var weeks []*domain.WeeklyAllocation
		for i := 0; i < 12; i++ {
			requested := decimal.New(int64(rng.Intn(200)), -1)
			if CheckCapacity(alloc, weeks, "", requested) != nil {
				continue
			}
			w := domain.NewWeeklyAllocation("w", alloc, domain.WeekOf(testNow.AddDate(0, 0, 7*i)), requested, "c1", testNow)
			if rng.Intn(2) == 0 {
				require.NoError(t, w.Approve("pm", nil, testNow))
			}
			weeks = append(weeks, w)
			assert.True(t, PlannedTotal(weeks).LessThanOrEqual(alloc.TotalHours), "trial %d", trial)
		}
	}
}
