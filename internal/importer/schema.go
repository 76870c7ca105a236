package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlanSchema is the top-level structure of a staffing plan file. YAML and
// JSON files share the same field names.
type PlanSchema struct {
	Projects []ProjectImport `yaml:"projects" json:"projects"`
}

// ProjectImport defines a project with its phases and consultant ceilings.
type ProjectImport struct {
	ID            string             `yaml:"id" json:"id"`
	Name          string             `yaml:"name" json:"name"`
	BudgetedHours string             `yaml:"budgeted_hours,omitempty" json:"budgeted_hours,omitempty"`
	Phases        []PhaseImport      `yaml:"phases" json:"phases"`
	Assignments   []AssignmentImport `yaml:"assignments,omitempty" json:"assignments,omitempty"`
}

// PhaseImport defines one phase window.
type PhaseImport struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	StartDate      string `yaml:"start_date" json:"start_date"`
	EndDate        string `yaml:"end_date" json:"end_date"`
	ProductManager string `yaml:"product_manager" json:"product_manager"`
}

// AssignmentImport is a consultant's hour ceiling for the enclosing project.
type AssignmentImport struct {
	Consultant     string `yaml:"consultant" json:"consultant"`
	AllocatedHours string `yaml:"allocated_hours" json:"allocated_hours"`
}

// LoadPlanSchema reads and parses a staffing plan. JSON is valid YAML, so one
// decoder serves both formats.
func LoadPlanSchema(path string) (*PlanSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlanSchema(data)
}

func ParsePlanSchema(data []byte) (*PlanSchema, error) {
	var schema PlanSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	return &schema, nil
}
