package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/budget"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/distribution"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/notify"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// engine carries the helpers shared by every service.
type engine struct {
	Deps
}

func newEngine(deps Deps) engine {
	return engine{Deps: deps.withDefaults()}
}

func (e *engine) now() time.Time {
	return e.Now().UTC()
}

// reads is a store over the plain connection for queries outside a unit of
// work. Inside a unit of work always build the store from the tx.
func (e *engine) reads() *repository.Store {
	return repository.NewStore(e.DB)
}

func (e *engine) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	e.Observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}

// emit publishes ev once the surrounding unit of work commits. A failed
// publish is logged and never reaches the caller.
func (e *engine) emit(ctx context.Context, ev notify.Event) {
	publishCtx := context.WithoutCancel(ctx)
	db.AfterCommit(ctx, func() {
		if err := e.Publisher.Publish(publishCtx, ev); err != nil {
			e.Logger.Warn("publishing notification failed",
				zap.String("type", string(ev.Type)),
				zap.String("allocation_id", ev.AllocationID),
				zap.Error(err))
		}
	})
}

func (e *engine) requireGrowth(actor string) error {
	if !e.Caps.IsGrowthTeam(actor) {
		return domain.Forbiddenf("%s is not a Growth Team member", actor)
	}
	return nil
}

// requireManager admits the phase's product manager and the Growth Team.
func (e *engine) requireManager(phase *domain.Phase, actor string) error {
	if e.Caps.IsPhaseManager(phase, actor) || e.Caps.IsGrowthTeam(actor) {
		return nil
	}
	return domain.Forbiddenf("%s does not manage phase %s", actor, phase.ID)
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Validationf("%s is required", name)
	}
	return nil
}

func requireHours(name string, hours decimal.Decimal) error {
	if hours.IsNegative() {
		return domain.Validationf("%s must not be negative, got %s", name, hours)
	}
	return nil
}

// findAllocation returns nil without error when no allocation exists for the
// pair.
func findAllocation(ctx context.Context, st *repository.Store, phaseID, consultantID string) (*domain.PhaseAllocation, error) {
	a, err := st.Allocations.GetByPhaseConsultant(ctx, phaseID, consultantID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// gateBudget runs both budget checks for giving consultantID candidate hours
// in phase. replacing is the allocation whose stored total the candidate
// replaces; nil means the candidate adds to what is committed. The
// consultant ceiling blocks; the project budget only warns.
func gateBudget(ctx context.Context, st *repository.Store, phase *domain.Phase, consultantID string, candidate decimal.Decimal, replacing *domain.PhaseAllocation) (app.Warnings, error) {
	assignment, err := st.Assignments.Get(ctx, phase.ProjectID, consultantID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Preconditionf("consultant %s has no hour assignment in project %s", consultantID, phase.ProjectID)
	}
	if err != nil {
		return nil, err
	}
	project, err := st.Projects.GetByID(ctx, phase.ProjectID)
	if err != nil {
		return nil, err
	}

	consultantLines, err := st.Commitments.ListForConsultant(ctx, phase.ProjectID, consultantID)
	if err != nil {
		return nil, fmt.Errorf("loading consultant commitments: %w", err)
	}
	in := budget.ConsultantInput{
		ConsultantID: consultantID,
		ProjectID:    phase.ProjectID,
		Ceiling:      assignment.AllocatedHours,
		Commitments:  consultantLines,
		Candidate:    candidate,
	}
	if replacing != nil {
		in.ExcludingPhaseID = replacing.PhaseID
	}
	if _, err := budget.CheckConsultant(in); err != nil {
		return nil, err
	}

	projectLines, err := st.Commitments.ListForProject(ctx, phase.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("loading project commitments: %w", err)
	}
	pin := budget.ProjectInput{
		ProjectID:   phase.ProjectID,
		Budget:      project.BudgetedHours,
		Commitments: projectLines,
		Candidate:   candidate,
	}
	if replacing != nil {
		pin.ExcludingAllocationID = replacing.ID
	}
	_, warning := budget.CheckProject(pin)
	return app.WarningsOf(warning), nil
}

// plannedHours loads the weekly plan of an allocation and its planned total.
func plannedHours(ctx context.Context, st *repository.Store, allocationID string) ([]*domain.WeeklyAllocation, decimal.Decimal, error) {
	weeks, err := st.Weekly.ListByAllocation(ctx, allocationID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return weeks, distribution.PlannedTotal(weeks), nil
}
