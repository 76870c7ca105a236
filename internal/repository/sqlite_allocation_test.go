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

func TestAllocationRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	repo := NewSQLiteAllocationRepo(db)

	alloc := testutil.NewTestAllocation(phase.ID, "c-1", "40")
	require.NoError(t, alloc.MergeReallocation(testutil.Hours("15.25"), "phase-src", "unplanned-1", alloc.CreatedAt))
	require.NoError(t, repo.Create(ctx, alloc))

	fetched, err := repo.GetByID(ctx, alloc.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(alloc, fetched); diff != "" {
		t.Errorf("allocation round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "55.25", fetched.TotalHours.String())
	require.Len(t, fetched.Composition, 2)
	assert.False(t, fetched.Composition[1].Settled)
}

func TestAllocationRepo_OnePrimaryPerPhaseConsultant(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	repo := NewSQLiteAllocationRepo(db)

	require.NoError(t, repo.Create(ctx, testutil.NewTestAllocation(phase.ID, "c-1", "40")))
	assert.Error(t, repo.Create(ctx, testutil.NewTestAllocation(phase.ID, "c-1", "10")))

	got, err := repo.GetByPhaseConsultant(ctx, phase.ID, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "40", got.TotalHours.String())

	_, err = repo.GetByPhaseConsultant(ctx, phase.ID, "c-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllocationRepo_UpdateBumpsVersion(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	repo := NewSQLiteAllocationRepo(db)

	alloc := testutil.NewTestAllocation(phase.ID, "c-1", "40")
	require.NoError(t, repo.Create(ctx, alloc))
	require.Equal(t, 1, alloc.Version)

	require.NoError(t, alloc.Approve("growth-1", time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, alloc))
	assert.Equal(t, 2, alloc.Version)

	fetched, err := repo.GetByID(ctx, alloc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.Version)
	assert.Equal(t, domain.AllocationApproved, fetched.Status)
	assert.Equal(t, "growth-1", fetched.ApprovedBy)
	require.NotNil(t, fetched.ApprovedAt)
}

func TestAllocationRepo_UpdateWithStaleVersion(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	repo := NewSQLiteAllocationRepo(db)

	alloc := testutil.NewTestAllocation(phase.ID, "c-1", "40")
	require.NoError(t, repo.Create(ctx, alloc))

	first, err := repo.GetByID(ctx, alloc.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, alloc.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, first.Approve("growth-1", now))
	require.NoError(t, repo.Update(ctx, first))

	require.NoError(t, second.Reject("too many hours", now))
	err = repo.Update(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStaleState)

	fetched, err := repo.GetByID(ctx, alloc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AllocationApproved, fetched.Status)
}

func TestAllocationRepo_ListEnded(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC)

	proj, ended := seedPhase(t, db, testutil.WithPhaseWindow(now.AddDate(0, -2, 0), now.AddDate(0, 0, -1)))
	endsToday := testutil.NewTestPhase(proj.ID, "Today", testutil.WithPhaseWindow(now.AddDate(0, -1, 0), now))
	require.NoError(t, NewSQLitePhaseRepo(db).Upsert(ctx, endsToday))

	repo := NewSQLiteAllocationRepo(db)
	approvedEnded := testutil.NewTestAllocation(ended.ID, "c-1", "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	pendingEnded := testutil.NewTestAllocation(ended.ID, "c-2", "40")
	approvedOpen := testutil.NewTestAllocation(endsToday.ID, "c-1", "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	for _, a := range []*domain.PhaseAllocation{approvedEnded, pendingEnded, approvedOpen} {
		require.NoError(t, repo.Create(ctx, a))
	}

	list, err := repo.ListEnded(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, approvedEnded.ID, list[0].ID)
}

func TestAllocationRepo_DeleteCascadesWeekly(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	allocs := NewSQLiteAllocationRepo(db)
	weeks := NewSQLiteWeeklyRepo(db)

	alloc := testutil.NewTestAllocation(phase.ID, "c-1", "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	require.NoError(t, allocs.Create(ctx, alloc))
	require.NoError(t, weeks.Create(ctx, testutil.NewTestWeekly(alloc, phase.StartDate, "8")))

	require.NoError(t, allocs.Delete(ctx, alloc.ID))

	list, err := weeks.ListByAllocation(ctx, alloc.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, allocs.Delete(ctx, alloc.ID), ErrNotFound)
}

func TestAllocationRepo_ListByConsultantOrdersByPhaseStart(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	proj, late := seedPhase(t, db, testutil.WithPhaseWindow(now.AddDate(0, 2, 0), now.AddDate(0, 3, 0)))
	early := testutil.NewTestPhase(proj.ID, "Early", testutil.WithPhaseWindow(now, now.AddDate(0, 1, 0)))
	require.NoError(t, NewSQLitePhaseRepo(db).Upsert(ctx, early))

	repo := NewSQLiteAllocationRepo(db)
	require.NoError(t, repo.Create(ctx, testutil.NewTestAllocation(late.ID, "c-1", "10")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestAllocation(early.ID, "c-1", "20")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestAllocation(early.ID, "c-2", "30")))

	list, err := repo.ListByConsultant(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].PhaseID)
	assert.Equal(t, late.ID, list[1].PhaseID)

	byPhase, err := repo.ListByPhase(ctx, early.ID)
	require.NoError(t, err)
	assert.Len(t, byPhase, 2)
}
