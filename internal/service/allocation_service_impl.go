package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/distribution"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type allocationService struct {
	engine
	realloc *reallocationService
}

func NewAllocationService(deps Deps) AllocationService {
	return newAllocationService(deps, newReallocationService(deps))
}

func newAllocationService(deps Deps, realloc *reallocationService) *allocationService {
	return &allocationService{engine: newEngine(deps), realloc: realloc}
}

func (s *allocationService) Submit(ctx context.Context, req app.SubmitRequest) (res *app.SubmitResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{
		"phase_id":        req.PhaseID,
		"consultant_id":   req.ConsultantID,
		"total_hours":     req.TotalHours.String(),
		"is_reallocation": req.IsReallocation,
	}
	defer func() { s.observe(ctx, "allocation.submit", startedAt, fields, err) }()

	if err = validateSubmit(req); err != nil {
		return nil, err
	}
	if req.IsReallocation {
		return s.submitReallocation(ctx, req)
	}

	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		phase, err := st.Phases.GetByID(ctx, req.PhaseID)
		if err != nil {
			return err
		}
		if err := s.requireManager(phase, req.Actor); err != nil {
			return err
		}
		existing, err := findAllocation(ctx, st, phase.ID, req.ConsultantID)
		if err != nil {
			return err
		}

		if existing == nil {
			warnings, err := gateBudget(ctx, st, phase, req.ConsultantID, req.TotalHours, nil)
			if err != nil {
				return err
			}
			alloc := domain.NewPhaseAllocation(uuid.New().String(), phase.ID, req.ConsultantID, req.TotalHours, now)
			if err := st.Allocations.Create(ctx, alloc); err != nil {
				return err
			}
			res = &app.SubmitResult{Allocation: alloc, Created: true, Changed: true, Warnings: warnings}
			s.emitSubmitted(ctx, alloc, phase, req.Actor, now)
			return nil
		}

		next := *existing
		changed, err := next.Resubmit(req.TotalHours, now)
		if err != nil {
			return err
		}
		if !changed {
			res = &app.SubmitResult{Allocation: existing}
			return nil
		}
		_, planned, err := plannedHours(ctx, st, existing.ID)
		if err != nil {
			return err
		}
		if err := distribution.CanReduceTo(existing, planned, req.TotalHours); err != nil {
			return err
		}
		warnings, err := gateBudget(ctx, st, phase, req.ConsultantID, req.TotalHours, existing)
		if err != nil {
			return err
		}
		if err := st.Allocations.Update(ctx, &next); err != nil {
			return err
		}
		res = &app.SubmitResult{Allocation: &next, Changed: true, Warnings: warnings}
		s.emitSubmitted(ctx, &next, phase, req.Actor, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func validateSubmit(req app.SubmitRequest) error {
	if err := requireField("phaseId", req.PhaseID); err != nil {
		return err
	}
	if err := requireField("consultantId", req.ConsultantID); err != nil {
		return err
	}
	if err := requireField("actor", req.Actor); err != nil {
		return err
	}
	if req.IsReallocation && req.ReallocatedFromUnplannedID == "" {
		return domain.Validationf("reallocatedFromUnplannedId is required for a reallocation")
	}
	return requireHours("totalHours", req.TotalHours)
}

func (s *allocationService) submitReallocation(ctx context.Context, req app.SubmitRequest) (*app.SubmitResult, error) {
	hours := req.TotalHours
	r, err := s.realloc.Request(ctx, app.ReallocateRequest{
		UnplannedID:   req.ReallocatedFromUnplannedID,
		TargetPhaseID: req.PhaseID,
		Hours:         &hours,
		ConsultantID:  req.ConsultantID,
		SourcePhaseID: req.ReallocatedFromPhaseID,
		Actor:         req.Actor,
	})
	if err != nil {
		return nil, err
	}
	return &app.SubmitResult{
		Allocation:   r.Allocation,
		Created:      r.Scenario == domain.ScenarioNewAllocation,
		Changed:      true,
		Reallocation: r,
		Warnings:     r.Warnings,
	}, nil
}

func (s *allocationService) emitSubmitted(ctx context.Context, a *domain.PhaseAllocation, phase *domain.Phase, actor string, now time.Time) {
	s.emit(ctx, allocationEvent(eventSpec{
		typ:        domain.EventAllocationSubmitted,
		recipients: s.growthAnd(a.ConsultantID),
		title:      "Allocation awaiting approval",
		message:    fmt.Sprintf("%s hours in phase %s await a Growth Team decision", a.TotalHours, phase.Name),
	}, a, phase, actor, now))
}

func (s *allocationService) Decide(ctx context.Context, req app.DecideRequest) (res *app.DecideResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"allocation_id": req.AllocationID, "action": string(req.Action)}
	defer func() { s.observe(ctx, "allocation.decide", startedAt, fields, err) }()

	if err = validateDecide(req); err != nil {
		return nil, err
	}
	if err = s.requireGrowth(req.Actor); err != nil {
		return nil, err
	}

	switch req.Action {
	case domain.ActionDelete:
		return s.DecideDeletion(ctx, app.DeletionDecision{AllocationID: req.AllocationID, Approve: true, Actor: req.Actor})
	case domain.ActionRejectDeletion:
		return s.DecideDeletion(ctx, app.DeletionDecision{
			AllocationID: req.AllocationID, Approve: false, Actor: req.Actor, Reason: req.RejectionReason,
		})
	case domain.ActionApprove, domain.ActionReject, domain.ActionModify:
	}

	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		alloc, err := st.Allocations.GetByID(ctx, req.AllocationID)
		if errors.Is(err, domain.ErrNotFound) {
			res, err = s.decideAsProposal(ctx, st, req, now, err)
			return err
		}
		if err != nil {
			return err
		}
		phase, err := st.Phases.GetByID(ctx, alloc.PhaseID)
		if err != nil {
			return err
		}

		switch req.Action {
		case domain.ActionApprove:
			res, err = s.approve(ctx, st, alloc, phase, req.Actor, now)
		case domain.ActionModify:
			res, err = s.modify(ctx, st, alloc, phase, req.Actor, *req.ModifiedHours, now)
		case domain.ActionReject:
			res, err = s.reject(ctx, st, alloc, phase, req.Actor, req.RejectionReason, now)
		case domain.ActionDelete, domain.ActionRejectDeletion:
			err = domain.Validationf("unsupported action %q", req.Action)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func validateDecide(req app.DecideRequest) error {
	if err := requireField("allocationId", req.AllocationID); err != nil {
		return err
	}
	if err := requireField("actor", req.Actor); err != nil {
		return err
	}
	if !domain.ValidAllocationActions[req.Action] {
		return domain.Validationf("unknown action %q", req.Action)
	}
	switch req.Action {
	case domain.ActionReject, domain.ActionRejectDeletion:
		return requireField("rejectionReason", req.RejectionReason)
	case domain.ActionModify:
		if req.ModifiedHours == nil {
			return domain.Validationf("modifiedHours is required for modify")
		}
		return requireHours("modifiedHours", *req.ModifiedHours)
	case domain.ActionApprove, domain.ActionDelete:
	}
	return nil
}

// decideAsProposal handles a decision addressed to a reallocation proposal
// id. notFound is returned when the id names neither.
func (s *allocationService) decideAsProposal(ctx context.Context, st *repository.Store, req app.DecideRequest, now time.Time, notFound error) (*app.DecideResult, error) {
	p, err := st.Proposals.GetByID(ctx, req.AllocationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	if req.Action != domain.ActionApprove && req.Action != domain.ActionReject {
		return nil, domain.Validationf("reallocation proposals can only be approved or rejected, not %q", req.Action)
	}
	d, err := s.realloc.decideProposalTx(ctx, st, p, req.Action == domain.ActionApprove, req.Actor, req.RejectionReason, now)
	if err != nil {
		return nil, err
	}
	return &app.DecideResult{Allocation: d.Destination, Proposal: d, Warnings: d.Warnings}, nil
}

func (s *allocationService) approve(ctx context.Context, st *repository.Store, alloc *domain.PhaseAllocation, phase *domain.Phase, actor string, now time.Time) (*app.DecideResult, error) {
	if _, err := verifyPendingSlices(ctx, st, alloc); err != nil {
		return nil, err
	}
	// The ceiling may have moved since the submit.
	warnings, err := gateBudget(ctx, st, phase, alloc.ConsultantID, alloc.TotalHours, alloc)
	if err != nil {
		return nil, err
	}
	if err := alloc.Approve(actor, now); err != nil {
		return nil, err
	}
	if err := st.Allocations.Update(ctx, alloc); err != nil {
		return nil, err
	}
	s.emit(ctx, allocationEvent(eventSpec{
		typ:        domain.EventAllocationApproved,
		recipients: []string{alloc.ConsultantID, phase.ProductManagerID},
		title:      "Allocation approved",
		message:    fmt.Sprintf("%s hours in phase %s were approved", alloc.TotalHours, phase.Name),
	}, alloc, phase, actor, now))
	return &app.DecideResult{Allocation: alloc, Warnings: warnings}, nil
}

// modify approves at a new total. The new total faces the same budget and
// reduction gates as a submit.
func (s *allocationService) modify(ctx context.Context, st *repository.Store, alloc *domain.PhaseAllocation, phase *domain.Phase, actor string, hours decimal.Decimal, now time.Time) (*app.DecideResult, error) {
	next := *alloc
	if err := next.Modify(actor, hours, now); err != nil {
		return nil, err
	}
	_, planned, err := plannedHours(ctx, st, alloc.ID)
	if err != nil {
		return nil, err
	}
	if err := distribution.CanReduceTo(alloc, planned, hours); err != nil {
		return nil, err
	}
	warnings, err := gateBudget(ctx, st, phase, alloc.ConsultantID, hours, alloc)
	if err != nil {
		return nil, err
	}
	if _, err := verifyPendingSlices(ctx, st, alloc); err != nil {
		return nil, err
	}
	if err := st.Allocations.Update(ctx, &next); err != nil {
		return nil, err
	}
	s.emit(ctx, allocationEvent(eventSpec{
		typ:        domain.EventAllocationModified,
		recipients: []string{next.ConsultantID, phase.ProductManagerID},
		title:      "Allocation approved with changes",
		message:    fmt.Sprintf("phase %s was approved at %s hours instead of %s", phase.Name, hours, alloc.TotalHours),
		metadata:   map[string]string{"previousHours": alloc.TotalHours.String()},
	}, &next, phase, actor, now))
	return &app.DecideResult{Allocation: &next, Warnings: warnings}, nil
}

func (s *allocationService) reject(ctx context.Context, st *repository.Store, alloc *domain.PhaseAllocation, phase *domain.Phase, actor, reason string, now time.Time) (*app.DecideResult, error) {
	if !alloc.HasPendingReallocations() {
		if err := alloc.Reject(reason, now); err != nil {
			return nil, err
		}
		if err := st.Allocations.Update(ctx, alloc); err != nil {
			return nil, err
		}
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventAllocationRejected,
			recipients: []string{alloc.ConsultantID, phase.ProductManagerID},
			title:      "Allocation rejected",
			message:    fmt.Sprintf("%s hours in phase %s were rejected: %s", alloc.TotalHours, phase.Name, reason),
			metadata:   map[string]string{"reason": reason},
		}, alloc, phase, actor, now))
		return &app.DecideResult{Allocation: alloc}, nil
	}

	reverted, removed, err := rejectComposite(ctx, st, alloc, actor, reason, now)
	if err != nil {
		return nil, err
	}
	recipients := []string{alloc.ConsultantID, phase.ProductManagerID}
	returned := decimal.Zero
	for _, u := range reverted {
		returned = returned.Add(u.UnplannedHours)
		if src, err := st.Allocations.GetByID(ctx, u.PhaseAllocationID); err == nil {
			if srcPhase, err := st.Phases.GetByID(ctx, src.PhaseID); err == nil {
				recipients = append(recipients, srcPhase.ProductManagerID)
			}
		}
	}
	spec := eventSpec{
		typ:        domain.EventAllocationRejected,
		recipients: recipients,
		title:      "Allocation rejected",
		message: fmt.Sprintf("phase %s was rejected: %s; %s reallocated hours are back in their original phases awaiting handling",
			phase.Name, reason, returned),
		metadata: map[string]string{"reason": reason, "revertedHours": returned.String()},
	}
	if removed {
		spec.typ = domain.EventAllocationDeleted
		spec.title = "Reallocation rejected"
	}
	s.emit(ctx, allocationEvent(spec, alloc, phase, actor, now))
	return &app.DecideResult{Allocation: alloc, Deleted: removed, Reverted: reverted}, nil
}

func (s *allocationService) RequestDeletion(ctx context.Context, allocationID, actor string) (res *domain.PhaseAllocation, err error) {
	startedAt := time.Now()
	fields := map[string]any{"allocation_id": allocationID}
	defer func() { s.observe(ctx, "allocation.request-deletion", startedAt, fields, err) }()

	if err = requireField("allocationId", allocationID); err != nil {
		return nil, err
	}
	if err = requireField("actor", actor); err != nil {
		return nil, err
	}
	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		alloc, err := st.Allocations.GetByID(ctx, allocationID)
		if err != nil {
			return err
		}
		phase, err := st.Phases.GetByID(ctx, alloc.PhaseID)
		if err != nil {
			return err
		}
		if err := s.requireManager(phase, actor); err != nil {
			return err
		}
		if err := requireNoUnplannedLinks(ctx, st, alloc); err != nil {
			return err
		}
		if err := alloc.RequestDeletion(now); err != nil {
			return err
		}
		if err := st.Allocations.Update(ctx, alloc); err != nil {
			return err
		}
		res = alloc
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventDeletionRequested,
			recipients: s.growthAnd(alloc.ConsultantID),
			title:      "Allocation deletion requested",
			message:    fmt.Sprintf("removal of %s hours in phase %s awaits a Growth Team decision", alloc.TotalHours, phase.Name),
		}, alloc, phase, actor, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *allocationService) DecideDeletion(ctx context.Context, req app.DeletionDecision) (res *app.DecideResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"allocation_id": req.AllocationID, "approve": req.Approve}
	defer func() { s.observe(ctx, "allocation.decide-deletion", startedAt, fields, err) }()

	if err = requireField("allocationId", req.AllocationID); err != nil {
		return nil, err
	}
	if !req.Approve {
		if err = requireField("reason", req.Reason); err != nil {
			return nil, err
		}
	}
	if err = s.requireGrowth(req.Actor); err != nil {
		return nil, err
	}
	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		alloc, err := st.Allocations.GetByID(ctx, req.AllocationID)
		if err != nil {
			return err
		}
		phase, err := st.Phases.GetByID(ctx, alloc.PhaseID)
		if err != nil {
			return err
		}

		if !req.Approve {
			if err := alloc.RejectDeletion(req.Reason, now); err != nil {
				return err
			}
			if err := st.Allocations.Update(ctx, alloc); err != nil {
				return err
			}
			res = &app.DecideResult{Allocation: alloc}
			s.emit(ctx, allocationEvent(eventSpec{
				typ:        domain.EventDeletionRejected,
				recipients: []string{alloc.ConsultantID, phase.ProductManagerID},
				title:      "Deletion request rejected",
				message:    fmt.Sprintf("the allocation in phase %s stays approved: %s", phase.Name, req.Reason),
				metadata:   map[string]string{"reason": req.Reason},
			}, alloc, phase, req.Actor, now))
			return nil
		}

		if err := alloc.RequireDeletionPending(); err != nil {
			return err
		}
		if err := requireUnreferenced(ctx, st, alloc); err != nil {
			return err
		}
		if err := st.Allocations.Delete(ctx, alloc.ID); err != nil {
			return err
		}
		res = &app.DecideResult{Allocation: alloc, Deleted: true}
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventAllocationDeleted,
			recipients: []string{alloc.ConsultantID, phase.ProductManagerID},
			title:      "Allocation deleted",
			message:    fmt.Sprintf("%s hours in phase %s were removed", alloc.TotalHours, phase.Name),
		}, alloc, phase, req.Actor, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// requireUnreferenced blocks deleting an allocation that reallocated hours
// point at.
func requireUnreferenced(ctx context.Context, st *repository.Store, alloc *domain.PhaseAllocation) error {
	proposals, err := st.Proposals.ListByDestination(ctx, alloc.ID)
	if err != nil {
		return err
	}
	if len(proposals) > 0 {
		return domain.Preconditionf("allocation %s has %d reallocation proposals awaiting decision", alloc.ID, len(proposals))
	}
	return requireNoUnplannedLinks(ctx, st, alloc)
}

// requireNoUnplannedLinks fails for an allocation tied to unplanned records
// for good: hours merged in from elsewhere, or a shortfall of its own. A
// pending proposal is not such a link; it can still be retargeted.
func requireNoUnplannedLinks(ctx context.Context, st *repository.Store, alloc *domain.PhaseAllocation) error {
	proposals, err := st.Proposals.ListByDestination(ctx, alloc.ID)
	if err != nil {
		return err
	}
	inTransit := make(map[string]bool, len(proposals))
	for _, p := range proposals {
		inTransit[p.UnplannedID] = true
	}
	merged, err := st.Unplanned.ListByDestination(ctx, alloc.ID)
	if err != nil {
		return err
	}
	absorbed := 0
	for _, u := range merged {
		if !inTransit[u.ID] {
			absorbed++
		}
	}
	if absorbed > 0 {
		return domain.Preconditionf("allocation %s holds hours reallocated from %d unplanned records", alloc.ID, absorbed)
	}
	_, err = st.Unplanned.GetByAllocation(ctx, alloc.ID)
	switch {
	case err == nil:
		return domain.Preconditionf("allocation %s has an unplanned hours record", alloc.ID)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *allocationService) Get(ctx context.Context, id string) (*app.AllocationView, error) {
	st := s.reads()
	alloc, err := st.Allocations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := buildView(ctx, st, alloc)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *allocationService) ListByPhase(ctx context.Context, phaseID string) ([]app.AllocationView, error) {
	st := s.reads()
	allocs, err := st.Allocations.ListByPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	return buildViews(ctx, st, allocs)
}

func (s *allocationService) ListByConsultant(ctx context.Context, consultantID string) ([]app.AllocationView, error) {
	st := s.reads()
	allocs, err := st.Allocations.ListByConsultant(ctx, consultantID)
	if err != nil {
		return nil, err
	}
	return buildViews(ctx, st, allocs)
}

func buildViews(ctx context.Context, st *repository.Store, allocs []*domain.PhaseAllocation) ([]app.AllocationView, error) {
	views := make([]app.AllocationView, 0, len(allocs))
	for _, a := range allocs {
		v, err := buildView(ctx, st, a)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func buildView(ctx context.Context, st *repository.Store, alloc *domain.PhaseAllocation) (app.AllocationView, error) {
	weeks, planned, err := plannedHours(ctx, st, alloc.ID)
	if err != nil {
		return app.AllocationView{}, fmt.Errorf("loading weeks of %s: %w", alloc.ID, err)
	}
	proposals, err := st.Proposals.ListByDestination(ctx, alloc.ID)
	if err != nil {
		return app.AllocationView{}, fmt.Errorf("loading proposals of %s: %w", alloc.ID, err)
	}
	return app.AllocationView{Allocation: alloc, Weeks: weeks, Proposals: proposals, PlannedHours: planned}, nil
}
