package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
)

// Plan is a validated staffing plan ready for persistence.
type Plan struct {
	Projects    []*domain.Project
	Phases      []*domain.Phase
	Assignments []*domain.ConsultantAssignment
}

// Convert transforms a validated PlanSchema into domain objects.
// Call ValidatePlanSchema first; Convert assumes the schema is valid.
func Convert(schema *PlanSchema, now time.Time) (*Plan, error) {
	plan := &Plan{}
	for _, p := range schema.Projects {
		budget := decimal.Zero
		if p.BudgetedHours != "" {
			var err error
			if budget, err = decimal.NewFromString(p.BudgetedHours); err != nil {
				return nil, fmt.Errorf("project %s: parsing budgeted_hours: %w", p.ID, err)
			}
		}
		plan.Projects = append(plan.Projects, &domain.Project{
			ID:            p.ID,
			Name:          p.Name,
			BudgetedHours: budget,
			CreatedAt:     now,
			UpdatedAt:     now,
		})

		for _, ph := range p.Phases {
			start, err := time.Parse(dateLayout, ph.StartDate)
			if err != nil {
				return nil, fmt.Errorf("phase %s: parsing start_date: %w", ph.ID, err)
			}
			end, err := time.Parse(dateLayout, ph.EndDate)
			if err != nil {
				return nil, fmt.Errorf("phase %s: parsing end_date: %w", ph.ID, err)
			}
			plan.Phases = append(plan.Phases, &domain.Phase{
				ID:               ph.ID,
				ProjectID:        p.ID,
				Name:             ph.Name,
				StartDate:        start,
				EndDate:          end,
				ProductManagerID: ph.ProductManager,
				CreatedAt:        now,
				UpdatedAt:        now,
			})
		}

		for _, a := range p.Assignments {
			hours, err := decimal.NewFromString(a.AllocatedHours)
			if err != nil {
				return nil, fmt.Errorf("assignment %s/%s: parsing allocated_hours: %w", p.ID, a.Consultant, err)
			}
			plan.Assignments = append(plan.Assignments, &domain.ConsultantAssignment{
				ProjectID:      p.ID,
				ConsultantID:   a.Consultant,
				AllocatedHours: hours,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}
	}
	return plan, nil
}
