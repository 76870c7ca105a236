package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ValidatePlanSchema checks the plan for errors before conversion.
// Returns a slice of all validation errors found.
func ValidatePlanSchema(schema *PlanSchema) []error {
	var errs []error
	if len(schema.Projects) == 0 {
		return []error{fmt.Errorf("projects: at least one project is required")}
	}

	projectIDs := make(map[string]bool)
	phaseIDs := make(map[string]bool)
	for i := range schema.Projects {
		p := &schema.Projects[i]
		prefix := fmt.Sprintf("projects[%d]", i)
		if p.ID != "" {
			prefix = fmt.Sprintf("project %q", p.ID)
		}
		errs = append(errs, validateProject(prefix, p, projectIDs)...)
		for j := range p.Phases {
			errs = append(errs, validatePhase(fmt.Sprintf("%s.phases[%d]", prefix, j), &p.Phases[j], phaseIDs)...)
		}
		consultants := make(map[string]bool)
		for j := range p.Assignments {
			errs = append(errs, validateAssignment(fmt.Sprintf("%s.assignments[%d]", prefix, j), &p.Assignments[j], consultants)...)
		}
	}
	return errs
}

func validateProject(prefix string, p *ProjectImport, seen map[string]bool) []error {
	var errs []error
	switch {
	case strings.TrimSpace(p.ID) == "":
		errs = append(errs, fmt.Errorf("%s.id is required", prefix))
	case seen[p.ID]:
		errs = append(errs, fmt.Errorf("%s: duplicate project id", prefix))
	default:
		seen[p.ID] = true
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", prefix))
	}
	if p.BudgetedHours != "" {
		if err := checkHours(p.BudgetedHours); err != nil {
			errs = append(errs, fmt.Errorf("%s.budgeted_hours: %w", prefix, err))
		}
	}
	if len(p.Phases) == 0 {
		errs = append(errs, fmt.Errorf("%s: at least one phase is required", prefix))
	}
	return errs
}

func validatePhase(prefix string, ph *PhaseImport, seen map[string]bool) []error {
	var errs []error
	switch {
	case strings.TrimSpace(ph.ID) == "":
		errs = append(errs, fmt.Errorf("%s.id is required", prefix))
	case seen[ph.ID]:
		errs = append(errs, fmt.Errorf("%s: duplicate phase id %q", prefix, ph.ID))
	default:
		seen[ph.ID] = true
	}
	if strings.TrimSpace(ph.Name) == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", prefix))
	}
	if strings.TrimSpace(ph.ProductManager) == "" {
		errs = append(errs, fmt.Errorf("%s.product_manager is required", prefix))
	}

	start, startErr := time.Parse(dateLayout, ph.StartDate)
	if startErr != nil {
		errs = append(errs, fmt.Errorf("%s.start_date: invalid date format %q (expected YYYY-MM-DD)", prefix, ph.StartDate))
	}
	end, endErr := time.Parse(dateLayout, ph.EndDate)
	if endErr != nil {
		errs = append(errs, fmt.Errorf("%s.end_date: invalid date format %q (expected YYYY-MM-DD)", prefix, ph.EndDate))
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		errs = append(errs, fmt.Errorf("%s.end_date %q must not be before start_date %q", prefix, ph.EndDate, ph.StartDate))
	}
	return errs
}

func validateAssignment(prefix string, a *AssignmentImport, seen map[string]bool) []error {
	var errs []error
	switch {
	case strings.TrimSpace(a.Consultant) == "":
		errs = append(errs, fmt.Errorf("%s.consultant is required", prefix))
	case seen[a.Consultant]:
		errs = append(errs, fmt.Errorf("%s: duplicate assignment for consultant %q", prefix, a.Consultant))
	default:
		seen[a.Consultant] = true
	}
	if err := checkHours(a.AllocatedHours); err != nil {
		errs = append(errs, fmt.Errorf("%s.allocated_hours: %w", prefix, err))
	}
	return errs
}

func checkHours(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid hours %q", s)
	}
	if d.IsNegative() {
		return fmt.Errorf("hours must not be negative, got %s", d)
	}
	return nil
}
