package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPhase stores a project with one phase and returns both.
func seedPhase(t *testing.T, database *sql.DB, opts ...testutil.PhaseOption) (*domain.Project, *domain.Phase) {
	t.Helper()
	ctx := context.Background()
	proj := testutil.NewTestProject("Atlas", testutil.WithBudget("500"))
	require.NoError(t, NewSQLiteProjectRepo(database).Upsert(ctx, proj))
	phase := testutil.NewTestPhase(proj.ID, "Discovery", opts...)
	require.NoError(t, NewSQLitePhaseRepo(database).Upsert(ctx, phase))
	return proj, phase
}

func TestProjectRepo_UpsertAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Atlas", testutil.WithBudget("320.5"))
	require.NoError(t, repo.Upsert(ctx, proj))

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(proj, fetched); diff != "" {
		t.Errorf("project round trip mismatch (-want +got):\n%s", diff)
	}

	proj.Name = "Atlas II"
	proj.BudgetedHours = testutil.Hours("400")
	require.NoError(t, repo.Upsert(ctx, proj))

	fetched, err = repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "Atlas II", fetched.Name)
	assert.True(t, fetched.BudgetedHours.Equal(testutil.Hours("400")))
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestProjectRepo_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testutil.NewTestProject("Zephyr")))
	require.NoError(t, repo.Upsert(ctx, testutil.NewTestProject("Apollo")))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Apollo", list[0].Name)
	assert.Equal(t, "Zephyr", list[1].Name)
}

func TestPhaseRepo_RoundTripAndListByProject(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	proj, phase := seedPhase(t, db,
		testutil.WithPhaseWindow(start, start.AddDate(0, 0, 27)),
		testutil.WithProductManager("pm-7"))

	repo := NewSQLitePhaseRepo(db)
	fetched, err := repo.GetByID(ctx, phase.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(phase, fetched); diff != "" {
		t.Errorf("phase round trip mismatch (-want +got):\n%s", diff)
	}

	later := testutil.NewTestPhase(proj.ID, "Build",
		testutil.WithPhaseWindow(start.AddDate(0, 1, 0), start.AddDate(0, 2, 0)))
	require.NoError(t, repo.Upsert(ctx, later))

	phases, err := repo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, phases, 2)
	assert.Equal(t, phase.ID, phases[0].ID)
	assert.Equal(t, later.ID, phases[1].ID)
}

func TestPhaseRepo_RejectsInvertedWindow(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("Atlas")
	require.NoError(t, NewSQLiteProjectRepo(db).Upsert(ctx, proj))

	now := time.Now().UTC()
	phase := testutil.NewTestPhase(proj.ID, "Backwards", testutil.WithPhaseWindow(now, now.AddDate(0, 0, -1)))
	assert.Error(t, NewSQLitePhaseRepo(db).Upsert(ctx, phase))
}

func TestAssignmentRepo_UpsertGetList(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _ := seedPhase(t, db)
	repo := NewSQLiteAssignmentRepo(db)

	a := testutil.NewTestAssignment(proj.ID, "c-1", "100")
	require.NoError(t, repo.Upsert(ctx, a))
	require.NoError(t, repo.Upsert(ctx, testutil.NewTestAssignment(proj.ID, "c-2", "40")))

	a.AllocatedHours = testutil.Hours("120")
	require.NoError(t, repo.Upsert(ctx, a))

	fetched, err := repo.Get(ctx, proj.ID, "c-1")
	require.NoError(t, err)
	assert.True(t, fetched.AllocatedHours.Equal(testutil.Hours("120")))

	list, err := repo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.Get(ctx, proj.ID, "c-9")
	assert.ErrorIs(t, err, ErrNotFound)
}
