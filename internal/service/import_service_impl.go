package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/importer"
	"github.com/alexanderramin/phasehours/internal/repository"
)

type importService struct {
	engine
}

func NewImportService(deps Deps) ImportService {
	return &importService{engine: newEngine(deps)}
}

func (s *importService) ImportPlan(ctx context.Context, filePath string) (*app.ImportResult, error) {
	schema, err := importer.LoadPlanSchema(filePath)
	if err != nil {
		return nil, domain.Validationf("loading plan file: %v", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportPlanFromSchema(ctx context.Context, schema *importer.PlanSchema) (*app.ImportResult, error) {
	return s.importSchema(ctx, schema)
}

// importSchema upserts the whole plan in one unit of work; a failure on any
// row leaves the store untouched.
func (s *importService) importSchema(ctx context.Context, schema *importer.PlanSchema) (res *app.ImportResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { s.observe(ctx, "plan.import", startedAt, fields, err) }()

	if schema == nil {
		return nil, domain.Validationf("plan is empty")
	}
	if errs := importer.ValidatePlanSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	plan, err := importer.Convert(schema, s.now())
	if err != nil {
		return nil, fmt.Errorf("converting plan: %w", err)
	}

	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		for _, p := range plan.Projects {
			if err := st.Projects.Upsert(ctx, p); err != nil {
				return fmt.Errorf("saving project %q: %w", p.ID, err)
			}
		}
		for _, ph := range plan.Phases {
			if err := st.Phases.Upsert(ctx, ph); err != nil {
				return fmt.Errorf("saving phase %q: %w", ph.ID, err)
			}
		}
		for _, a := range plan.Assignments {
			if err := st.Assignments.Upsert(ctx, a); err != nil {
				return fmt.Errorf("saving assignment %s/%s: %w", a.ProjectID, a.ConsultantID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &app.ImportResult{
		Projects:    len(plan.Projects),
		Phases:      len(plan.Phases),
		Assignments: len(plan.Assignments),
	}
	fields["projects"] = res.Projects
	fields["phases"] = res.Phases
	fields["assignments"] = res.Assignments
	return res, nil
}

func formatValidationErrors(errs []error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "plan validation failed (%d errors):", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - ")
		b.WriteString(e.Error())
	}
	return domain.Validationf("%s", b.String())
}
