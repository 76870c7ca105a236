package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/alexanderramin/phasehours/internal/service"
	"github.com/alexanderramin/phasehours/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const growthID = "growth-1"

type cliFixture struct {
	t       *testing.T
	ctx     context.Context
	app     *App
	st      *repository.Store
	project *domain.Project
}

// testApp wires an App backed by an in-memory DB. Services are preset so the
// root command skips config loading.
func testApp(t *testing.T) *cliFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	st := repository.NewStore(database)
	ctx := context.Background()

	project := testutil.NewTestProject("Atlas", testutil.WithBudget("1000"))
	require.NoError(t, st.Projects.Upsert(ctx, project))
	require.NoError(t, st.Assignments.Upsert(ctx, testutil.NewTestAssignment(project.ID, "c-1", "100")))

	app := &App{Services: service.New(service.Deps{
		DB:   database,
		UoW:  testutil.NewTestUoW(database),
		Caps: service.NewStaticCapabilities([]string{growthID}),
	})}
	return &cliFixture{t: t, ctx: ctx, app: app, st: st, project: project}
}

func (f *cliFixture) phase(name string, opts ...testutil.PhaseOption) *domain.Phase {
	f.t.Helper()
	p := testutil.NewTestPhase(f.project.ID, name, opts...)
	require.NoError(f.t, f.st.Phases.Upsert(f.ctx, p))
	return p
}

func (f *cliFixture) approvedAllocation(phase *domain.Phase, hours string) *domain.PhaseAllocation {
	f.t.Helper()
	a := testutil.NewTestAllocation(phase.ID, "c-1", hours, testutil.WithAllocationStatus(domain.AllocationApproved))
	require.NoError(f.t, f.st.Allocations.Create(f.ctx, a))
	return a
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestAllocationSubmit_RequiresActor(t *testing.T) {
	f := testApp(t)
	phase := f.phase("Build")

	_, err := executeCmd(t, f.app, "allocation", "submit",
		"--phase", phase.ID, "--consultant", "c-1", "--hours", "40")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as USER_ID")
}

func TestAllocationSubmit_ThenList(t *testing.T) {
	f := testApp(t)
	phase := f.phase("Build")

	out, err := executeCmd(t, f.app, "allocation", "submit", "--as", "c-1",
		"--phase", phase.ID, "--consultant", "c-1", "--hours", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Created allocation")
	assert.Contains(t, out, "40h for c-1 (PENDING)")

	out, err = executeCmd(t, f.app, "allocation", "list", "--phase", phase.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "c-1")
	assert.Contains(t, out, "PENDING")
}

func TestAllocationSubmit_BadHours(t *testing.T) {
	f := testApp(t)
	phase := f.phase("Build")

	_, err := executeCmd(t, f.app, "allocation", "submit", "--as", "c-1",
		"--phase", phase.ID, "--consultant", "c-1", "--hours", "forty")
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestAllocationDecide_GrowthTeamOnly(t *testing.T) {
	f := testApp(t)
	phase := f.phase("Build")
	a := testutil.NewTestAllocation(phase.ID, "c-1", "40")
	require.NoError(t, f.st.Allocations.Create(f.ctx, a))

	_, err := executeCmd(t, f.app, "allocation", "decide", a.ID, "--as", "c-1", "--action", "approve")
	require.Error(t, err)
	assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))

	out, err := executeCmd(t, f.app, "allocation", "decide", a.ID, "--as", growthID, "--action", "approve")
	require.NoError(t, err)
	assert.Contains(t, out, "is now ● APPROVED")

	out, err = executeCmd(t, f.app, "allocation", "show", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "APPROVED")
}

func TestWeeklyPropose_ReportsPlannedHours(t *testing.T) {
	f := testApp(t)
	a := f.approvedAllocation(f.phase("Build"), "40")

	week := time.Now().UTC().Format("2006-01-02")
	out, err := executeCmd(t, f.app, "weekly", "propose", "--as", "c-1",
		"--allocation", a.ID, "--week", week, "--hours", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "Proposed ")
	assert.Contains(t, out, "8h (planned 8h)")

	out, err = executeCmd(t, f.app, "weekly", "list", "--allocation", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "8h")
}

func TestWeeklyPropose_BadDate(t *testing.T) {
	f := testApp(t)
	a := f.approvedAllocation(f.phase("Build"), "40")

	_, err := executeCmd(t, f.app, "weekly", "propose", "--as", "c-1",
		"--allocation", a.ID, "--week", "03/02/2026", "--hours", "8")
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestExpire_CreatesUnplannedHours(t *testing.T) {
	f := testApp(t)
	ended := f.phase("Discovery", testutil.WithPhaseWindow(
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC),
	))
	a := f.approvedAllocation(ended, "40")

	out, err := executeCmd(t, f.app, "expire", "--at", "2026-02-02")
	require.NoError(t, err)
	assert.Contains(t, out, "Scanned 1 ended allocations: 1 expired, 0 skipped, 0 failed")

	out, err = executeCmd(t, f.app, "unplanned", "list", "--status", string(domain.UnplannedExpired))
	require.NoError(t, err)
	assert.Contains(t, out, "40h")

	list, err := f.st.Unplanned.List(f.ctx, domain.UnplannedExpired)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].PhaseAllocationID)
}

func TestExpire_BadDate(t *testing.T) {
	f := testApp(t)
	_, err := executeCmd(t, f.app, "expire", "--at", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestUnplannedForfeit_GrowthTeam(t *testing.T) {
	f := testApp(t)
	ended := f.phase("Discovery", testutil.WithPhaseWindow(
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC),
	))
	f.approvedAllocation(ended, "24")
	_, err := executeCmd(t, f.app, "expire", "--at", "2026-02-02")
	require.NoError(t, err)

	list, err := f.st.Unplanned.List(f.ctx, domain.UnplannedExpired)
	require.NoError(t, err)
	require.Len(t, list, 1)

	out, err := executeCmd(t, f.app, "unplanned", "forfeit", list[0].ID, "--as", growthID, "--notes", "client paused")
	require.NoError(t, err)
	assert.Contains(t, out, "Forfeited 24h")
}

func TestNotifications_EmptyInbox(t *testing.T) {
	f := testApp(t)
	out, err := executeCmd(t, f.app, "notifications", "list", "--as", "c-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Inbox is empty.")
}
