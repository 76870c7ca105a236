package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/expiry"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type expirationService struct {
	engine
}

func NewExpirationService(deps Deps) ExpirationService {
	return &expirationService{engine: newEngine(deps)}
}

// Run expires every approved allocation whose phase ended before now with
// hours left undistributed. Each allocation is handled in its own unit of
// work, so one failure never undoes the others, and a second run over the
// same data creates nothing.
func (s *expirationService) Run(ctx context.Context, now time.Time) (report *app.ExpirationReport, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { s.observe(ctx, "expiration.run", startedAt, fields, err) }()

	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()
	report = &app.ExpirationReport{
		RanAt:   now,
		Skipped: make(map[string]expiry.SkipReason),
		Failed:  make(map[string]string),
	}

	ended, err := s.reads().Allocations.ListEnded(ctx, domain.DateOf(now))
	if err != nil {
		return nil, fmt.Errorf("listing ended allocations: %w", err)
	}
	report.Scanned = len(ended)

	for _, a := range ended {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		found, skip, err := s.expireOne(ctx, a.ID, now)
		switch {
		case err != nil:
			report.Failed[a.ID] = err.Error()
			s.Logger.Warn("expiring allocation failed",
				zap.String("allocation_id", a.ID),
				zap.String("error_code", string(domain.CodeOf(err))),
				zap.Error(err))
		case found != nil:
			report.Created = append(report.Created, *found)
		default:
			report.Skipped[a.ID] = skip
		}
	}

	fields["scanned"] = report.Scanned
	fields["created"] = len(report.Created)
	fields["failed"] = len(report.Failed)
	s.Logger.Info("expiration run finished",
		zap.Time("ran_at", now),
		zap.Int("scanned", report.Scanned),
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// expireOne re-reads the allocation inside the unit of work so a decision or
// a concurrent run that landed since the listing is seen.
func (s *expirationService) expireOne(ctx context.Context, allocationID string, now time.Time) (found *app.ExpiredAllocation, skip expiry.SkipReason, err error) {
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
		weeks, err := st.Weekly.ListByAllocation(ctx, alloc.ID)
		if err != nil {
			return err
		}
		_, err = st.Unplanned.GetByAllocation(ctx, alloc.ID)
		hasUnplanned := err == nil
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		proposals, err := st.Proposals.ListByDestination(ctx, alloc.ID)
		if err != nil {
			return err
		}

		finding, reason := expiry.Evaluate(expiry.Candidate{
			Allocation:       alloc,
			Phase:            phase,
			Weeks:            weeks,
			HasUnplanned:     hasUnplanned,
			PendingProposals: len(proposals),
		}, now)
		if finding == nil {
			skip = reason
			return nil
		}

		u := domain.NewUnplannedExpiredHours(uuid.New().String(), alloc.ID, finding.UnplannedHours, now)
		if err := st.Unplanned.Create(ctx, u); err != nil {
			return err
		}
		if err := alloc.Expire(now); err != nil {
			return err
		}
		if err := st.Allocations.Update(ctx, alloc); err != nil {
			return err
		}

		found = &app.ExpiredAllocation{Finding: *finding, UnplannedID: u.ID}
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventHoursExpired,
			recipients: s.growthAnd(alloc.ConsultantID, phase.ProductManagerID),
			title:      "Hours expired",
			message: fmt.Sprintf("%s of %s hours in phase %s were never planned and have expired",
				finding.UnplannedHours, finding.TotalHours, phase.Name),
			metadata: map[string]string{
				"unplannedId":    u.ID,
				"unplannedHours": finding.UnplannedHours.String(),
				"plannedHours":   finding.PlannedHours.String(),
			},
		}, alloc, phase, "system", now))
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return found, skip, nil
}
