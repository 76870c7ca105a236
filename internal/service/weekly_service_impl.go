package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/distribution"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type weeklyService struct {
	engine
}

func NewWeeklyService(deps Deps) WeeklyService {
	return &weeklyService{engine: newEngine(deps)}
}

func (s *weeklyService) Propose(ctx context.Context, req app.ProposeWeeklyRequest) (res *app.WeeklyResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"allocation_id": req.PhaseAllocationID, "hours": req.ProposedHours.String()}
	defer func() { s.observe(ctx, "weekly.propose", startedAt, fields, err) }()

	if err = requireField("phaseAllocationId", req.PhaseAllocationID); err != nil {
		return nil, err
	}
	if err = requireField("actor", req.Actor); err != nil {
		return nil, err
	}
	if req.WeekStart.IsZero() {
		return nil, domain.Validationf("weekStart is required")
	}
	if err = requireHours("proposedHours", req.ProposedHours); err != nil {
		return nil, err
	}

	now := s.now()
	week := domain.WeekOf(req.WeekStart)
	fields["week"] = fmt.Sprintf("%d-W%02d", week.Year, week.Number)

	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		alloc, err := st.Allocations.GetByID(ctx, req.PhaseAllocationID)
		if err != nil {
			return err
		}
		phase, err := st.Phases.GetByID(ctx, alloc.PhaseID)
		if err != nil {
			return err
		}
		if !s.Caps.IsConsultant(alloc, req.Actor) {
			if err := s.requireManager(phase, req.Actor); err != nil {
				return err
			}
		}
		if alloc.Status != domain.AllocationApproved {
			return domain.Preconditionf("allocation %s is %s; weeks can only be planned against %s allocations",
				alloc.ID, alloc.Status, domain.AllocationApproved)
		}
		if !phase.Overlaps(week.Start, week.End) {
			return domain.Validationf("week %d-W%02d lies outside phase %s (%s to %s)", week.Year, week.Number,
				phase.ID, phase.StartDate.Format("2006-01-02"), phase.EndDate.Format("2006-01-02"))
		}

		weeks, err := st.Weekly.ListByAllocation(ctx, alloc.ID)
		if err != nil {
			return err
		}
		existing, err := st.Weekly.GetByWeek(ctx, alloc.ID, week.Year, week.Number)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		var w *domain.WeeklyAllocation
		created := existing == nil
		if created {
			if err := distribution.CheckCapacity(alloc, weeks, "", req.ProposedHours); err != nil {
				return err
			}
			w = domain.NewWeeklyAllocation(uuid.New().String(), alloc, week, req.ProposedHours, req.Actor, now)
			if err := st.Weekly.Create(ctx, w); err != nil {
				return err
			}
		} else {
			w = existing
			if err := w.Repropose(req.ProposedHours, req.Actor, now); err != nil {
				return err
			}
			if err := distribution.CheckCapacity(alloc, weeks, w.ID, req.ProposedHours); err != nil {
				return err
			}
			if err := st.Weekly.Update(ctx, w); err != nil {
				return err
			}
		}

		res = &app.WeeklyResult{Weekly: w, Created: created, PlannedHours: plannedWith(weeks, w)}
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventWeeklyProposed,
			recipients: s.growthAnd(phase.ProductManagerID),
			title:      "Weekly hours proposed",
			message: fmt.Sprintf("%s hours proposed for week %d of %d in phase %s",
				w.ProposedHours, w.WeekNumber, w.Year, phase.Name),
			metadata: weeklyMetadata(w),
		}, alloc, phase, req.Actor, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *weeklyService) Decide(ctx context.Context, req app.DecideWeeklyRequest) (res *app.WeeklyResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"weekly_id": req.WeeklyID, "action": string(req.Action)}
	defer func() { s.observe(ctx, "weekly.decide", startedAt, fields, err) }()

	if err = validateDecideWeekly(req); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		w, err := st.Weekly.GetByID(ctx, req.WeeklyID)
		if err != nil {
			return err
		}
		alloc, err := st.Allocations.GetByID(ctx, w.PhaseAllocationID)
		if err != nil {
			return err
		}
		phase, err := st.Phases.GetByID(ctx, alloc.PhaseID)
		if err != nil {
			return err
		}
		if err := s.requireManager(phase, req.Actor); err != nil {
			return err
		}
		weeks, err := st.Weekly.ListByAllocation(ctx, alloc.ID)
		if err != nil {
			return err
		}

		next := *w
		switch req.Action {
		case domain.ActionApprove, domain.ActionModify:
			hours := req.ApprovedHours
			if req.Action == domain.ActionApprove {
				hours = nil
			}
			if err := next.Approve(req.Actor, hours, now); err != nil {
				return err
			}
			if alloc.Status != domain.AllocationApproved {
				return domain.Preconditionf("allocation %s is %s; weekly plans need an %s allocation",
					alloc.ID, alloc.Status, domain.AllocationApproved)
			}
			if err := distribution.CheckCapacity(alloc, weeks, w.ID, next.Hours()); err != nil {
				return err
			}
		case domain.ActionReject:
			if err := next.Reject(req.Actor, req.RejectionReason, now); err != nil {
				return err
			}
		case domain.ActionDelete, domain.ActionRejectDeletion:
			return domain.Validationf("unsupported weekly action %q", req.Action)
		}
		if err := st.Weekly.Update(ctx, &next); err != nil {
			return err
		}

		res = &app.WeeklyResult{Weekly: &next, PlannedHours: plannedWith(weeks, &next)}
		meta := weeklyMetadata(&next)
		meta["planningStatus"] = string(next.Status)
		if next.RejectionReason != "" {
			meta["reason"] = next.RejectionReason
		}
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventWeeklyDecided,
			recipients: []string{alloc.ConsultantID, next.PlannedBy, phase.ProductManagerID},
			title:      "Weekly plan " + string(next.Status),
			message: fmt.Sprintf("week %d of %d in phase %s is %s at %s hours",
				next.WeekNumber, next.Year, phase.Name, next.Status, next.Hours()),
			metadata: meta,
		}, alloc, phase, req.Actor, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func validateDecideWeekly(req app.DecideWeeklyRequest) error {
	if err := requireField("weeklyId", req.WeeklyID); err != nil {
		return err
	}
	if err := requireField("actor", req.Actor); err != nil {
		return err
	}
	if !domain.ValidWeeklyActions[req.Action] {
		return domain.Validationf("unknown weekly action %q", req.Action)
	}
	switch req.Action {
	case domain.ActionReject:
		return requireField("rejectionReason", req.RejectionReason)
	case domain.ActionModify:
		if req.ApprovedHours == nil {
			return domain.Validationf("approvedHours is required for modify")
		}
		return requireHours("approvedHours", *req.ApprovedHours)
	case domain.ActionApprove, domain.ActionDelete, domain.ActionRejectDeletion:
	}
	return nil
}

func (s *weeklyService) ListByAllocation(ctx context.Context, allocationID string) ([]*domain.WeeklyAllocation, error) {
	return s.reads().Weekly.ListByAllocation(ctx, allocationID)
}

// plannedWith is the planned total once w replaces its stored version.
func plannedWith(weeks []*domain.WeeklyAllocation, w *domain.WeeklyAllocation) decimal.Decimal {
	merged := make([]*domain.WeeklyAllocation, 0, len(weeks)+1)
	for _, other := range weeks {
		if other.ID != w.ID {
			merged = append(merged, other)
		}
	}
	return distribution.PlannedTotal(append(merged, w))
}

func weeklyMetadata(w *domain.WeeklyAllocation) map[string]string {
	return map[string]string{
		"weeklyId":      w.ID,
		"year":          strconv.Itoa(w.Year),
		"weekNumber":    strconv.Itoa(w.WeekNumber),
		"proposedHours": w.ProposedHours.String(),
	}
}
