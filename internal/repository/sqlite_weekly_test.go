package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyRepo_RoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	alloc := testutil.NewTestAllocation(phase.ID, "c-1", "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	require.NoError(t, NewSQLiteAllocationRepo(db).Create(ctx, alloc))
	repo := NewSQLiteWeeklyRepo(db)

	pending := testutil.NewTestWeekly(alloc, phase.StartDate, "7.5")
	approved := testutil.NewTestWeekly(alloc, phase.StartDate.AddDate(0, 0, 7), "8", testutil.WithWeeklyApproved())
	require.NoError(t, repo.Create(ctx, pending))
	require.NoError(t, repo.Create(ctx, approved))

	for _, want := range []*domain.WeeklyAllocation{pending, approved} {
		got, err := repo.GetByID(ctx, want.ID)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("weekly round trip mismatch (-want +got):\n%s", diff)
		}
	}

	byWeek, err := repo.GetByWeek(ctx, alloc.ID, approved.Year, approved.WeekNumber)
	require.NoError(t, err)
	assert.Equal(t, approved.ID, byWeek.ID)

	list, err := repo.ListByAllocation(ctx, alloc.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, pending.ID, list[0].ID)
}

func TestWeeklyRepo_OneRowPerWeek(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	alloc := testutil.NewTestAllocation(phase.ID, "c-1", "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	require.NoError(t, NewSQLiteAllocationRepo(db).Create(ctx, alloc))
	repo := NewSQLiteWeeklyRepo(db)

	require.NoError(t, repo.Create(ctx, testutil.NewTestWeekly(alloc, phase.StartDate, "8")))
	assert.Error(t, repo.Create(ctx, testutil.NewTestWeekly(alloc, phase.StartDate, "4")))
}

func TestWeeklyRepo_UpdateDecision(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	alloc := testutil.NewTestAllocation(phase.ID, "c-1", "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	require.NoError(t, NewSQLiteAllocationRepo(db).Create(ctx, alloc))
	repo := NewSQLiteWeeklyRepo(db)

	w := testutil.NewTestWeekly(alloc, phase.StartDate, "8")
	require.NoError(t, repo.Create(ctx, w))

	six := testutil.Hours("6")
	require.NoError(t, w.Approve("pm-1", &six, time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, w))

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanningApproved, got.Status)
	require.True(t, got.ApprovedHours.Valid)
	assert.Equal(t, "6", got.ApprovedHours.Decimal.String())
	assert.Equal(t, "8", got.ProposedHours.String())
	assert.Equal(t, "6", got.Hours().String())

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
