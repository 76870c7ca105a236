package service

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/importer"
	"github.com/alexanderramin/phasehours/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planYAML = `projects:
  - id: apollo
    name: Apollo
    budgeted_hours: "500"
    phases:
      - id: apollo-discovery
        name: Discovery
        start_date: "2026-01-05"
        end_date: "2026-02-27"
        product_manager: pm-ana
      - id: apollo-build
        name: Build
        start_date: "2026-03-02"
        end_date: "2026-06-26"
        product_manager: pm-ana
    assignments:
      - consultant: c-1
        allocated_hours: "200"
      - consultant: c-2
        allocated_hours: "120.5"
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportPlan_UpsertsProjectsPhasesAndAssignments(t *testing.T) {
	f := newFixture(t)
	path := writePlan(t, planYAML)

	res, err := f.svc.Import.ImportPlan(f.ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Projects)
	assert.Equal(t, 2, res.Phases)
	assert.Equal(t, 2, res.Assignments)

	project, err := f.st.Projects.GetByID(f.ctx, "apollo")
	require.NoError(t, err)
	assert.True(t, project.BudgetedHours.Equal(testutil.Hours("500")))

	phase, err := f.st.Phases.GetByID(f.ctx, "apollo-build")
	require.NoError(t, err)
	assert.Equal(t, "pm-ana", phase.ProductManagerID)
	assert.Equal(t, "2026-06-26", phase.EndDate.Format("2006-01-02"))

	assignment, err := f.st.Assignments.Get(f.ctx, "apollo", "c-2")
	require.NoError(t, err)
	assert.True(t, assignment.AllocatedHours.Equal(testutil.Hours("120.5")))

	// Importing again updates in place.
	_, err = f.svc.Import.ImportPlan(f.ctx, path)
	require.NoError(t, err)
	phases, err := f.st.Phases.ListByProject(f.ctx, "apollo")
	require.NoError(t, err)
	assert.Len(t, phases, 2)
}

func TestImportPlan_ValidationListsEveryProblem(t *testing.T) {
	f := newFixture(t)
	schema := &importer.PlanSchema{Projects: []importer.ProjectImport{{
		ID:   "apollo",
		Name: "",
		Phases: []importer.PhaseImport{
			{ID: "p1", Name: "Discovery", StartDate: "2026-02-01", EndDate: "2026-01-01", ProductManager: "pm-ana"},
		},
	}}}

	_, err := f.svc.Import.ImportPlanFromSchema(f.ctx, schema)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "plan validation failed (2 errors)")

	_, err = f.st.Projects.GetByID(f.ctx, "apollo")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImportPlan_MissingFile(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Import.ImportPlan(f.ctx, filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestImportPlan_RollbackOnPhaseFailure(t *testing.T) {
	f := newFixture(t)
	deps := f.deps
	deps.UoW = &testutil.FailingUoW{DB: f.db, Match: "INTO phases", FailOn: 1, Err: fmt.Errorf("injected phase failure")}
	svc := NewImportService(deps)

	_, err := svc.ImportPlan(f.ctx, writePlan(t, planYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected phase failure")

	_, err = f.st.Projects.GetByID(f.ctx, "apollo")
	assert.ErrorIs(t, err, domain.ErrNotFound, "the project upsert must roll back with the phase")
}
