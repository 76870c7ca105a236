// Package app holds the request and result types exchanged with the
// allocation engine, and the use-case ports that transports depend on.
package app

import "github.com/alexanderramin/phasehours/internal/domain"

// Warnings collects advisory findings that accompany a successful write.
type Warnings []domain.ProjectBudgetWarning

// WarningsOf wraps an optional project budget warning.
func WarningsOf(w *domain.ProjectBudgetWarning) Warnings {
	if w == nil {
		return nil
	}
	return Warnings{*w}
}

// Messages renders every warning for display.
func (w Warnings) Messages() []string {
	out := make([]string, 0, len(w))
	for _, warning := range w {
		out = append(out, warning.Message())
	}
	return out
}
