package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/google/uuid"
)

type reallocationService struct {
	engine
}

func NewReallocationService(deps Deps) ReallocationService {
	return newReallocationService(deps)
}

func newReallocationService(deps Deps) *reallocationService {
	return &reallocationService{engine: newEngine(deps)}
}

func (s *reallocationService) Request(ctx context.Context, req app.ReallocateRequest) (res *app.ReallocateResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"unplanned_id": req.UnplannedID, "target_phase_id": req.TargetPhaseID}
	defer func() {
		if res != nil {
			fields["scenario"] = string(res.Scenario)
		}
		s.observe(ctx, "reallocation.request", startedAt, fields, err)
	}()

	if err = validateReallocate(req); err != nil {
		return nil, err
	}
	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		r, err := s.requestTx(ctx, st, req, now)
		if err != nil {
			return err
		}
		res = r.result
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventReallocationRequested,
			recipients: s.growthAnd(r.source.ConsultantID, r.target.ProductManagerID),
			title:      "Reallocation requested",
			message: fmt.Sprintf("%s unplanned hours from phase %s were moved toward phase %s (%s)",
				r.unplanned.UnplannedHours, r.sourcePhase.Name, r.target.Name, res.Scenario),
			metadata: reallocationMetadata(res),
		}, res.Allocation, r.target, req.Actor, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func validateReallocate(req app.ReallocateRequest) error {
	if err := requireField("unplannedId", req.UnplannedID); err != nil {
		return err
	}
	if err := requireField("targetPhaseId", req.TargetPhaseID); err != nil {
		return err
	}
	if err := requireField("actor", req.Actor); err != nil {
		return err
	}
	if req.Hours != nil {
		return requireHours("hours", *req.Hours)
	}
	return nil
}

// requested is everything a successful requestTx loaded, for the caller's
// notification.
type requested struct {
	result      *app.ReallocateResult
	unplanned   *domain.UnplannedExpiredHours
	source      *domain.PhaseAllocation
	sourcePhase *domain.Phase
	target      *domain.Phase
}

// requestTx resolves the destination in the target phase and moves the
// unplanned hours there. The scenario follows from the destination's status.
func (s *reallocationService) requestTx(ctx context.Context, st *repository.Store, req app.ReallocateRequest, now time.Time) (*requested, error) {
	u, err := st.Unplanned.GetByID(ctx, req.UnplannedID)
	if err != nil {
		return nil, err
	}
	if u.Status != domain.UnplannedExpired {
		return nil, domain.Preconditionf("unplanned hours %s are %s; only %s hours can be reallocated",
			u.ID, u.Status, domain.UnplannedExpired)
	}
	source, err := st.Allocations.GetByID(ctx, u.PhaseAllocationID)
	if err != nil {
		return nil, err
	}
	sourcePhase, err := st.Phases.GetByID(ctx, source.PhaseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(sourcePhase, req.Actor); err != nil {
		return nil, err
	}

	if req.SourcePhaseID != "" && req.SourcePhaseID != source.PhaseID {
		return nil, domain.Validationf("unplanned hours %s come from phase %s, not %s", u.ID, source.PhaseID, req.SourcePhaseID)
	}
	if req.ConsultantID != "" && req.ConsultantID != source.ConsultantID {
		return nil, domain.Validationf("unplanned hours %s belong to consultant %s, not %s", u.ID, source.ConsultantID, req.ConsultantID)
	}
	if moved := domain.HoursOr(u.UnplannedHours, req.Hours); !moved.Equal(u.UnplannedHours) {
		return nil, domain.Validationf("reallocation moves all %s unplanned hours; %s requested", u.UnplannedHours, moved)
	}
	if req.TargetPhaseID == source.PhaseID {
		return nil, domain.Validationf("target phase must differ from the source phase %s", source.PhaseID)
	}

	target, err := st.Phases.GetByID(ctx, req.TargetPhaseID)
	if err != nil {
		return nil, err
	}
	if target.EndedBefore(now) {
		return nil, domain.Preconditionf("target phase %s ended on %s", target.ID, target.EndDate.Format("2006-01-02"))
	}

	dest, err := findAllocation(ctx, st, target.ID, source.ConsultantID)
	if err != nil {
		return nil, err
	}
	hours := u.UnplannedHours
	res := &app.ReallocateResult{Unplanned: u}

	switch {
	case dest == nil:
		if res.Warnings, err = gateBudget(ctx, st, target, source.ConsultantID, hours, nil); err != nil {
			return nil, err
		}
		dest = domain.NewReallocatedAllocation(uuid.New().String(), target.ID, source.ConsultantID, hours, source.PhaseID, u.ID, now)
		if err := st.Allocations.Create(ctx, dest); err != nil {
			return nil, err
		}
		res.Scenario = domain.ScenarioNewAllocation

	case dest.Status == domain.AllocationPending:
		if res.Warnings, err = gateBudget(ctx, st, target, source.ConsultantID, dest.TotalHours.Add(hours), dest); err != nil {
			return nil, err
		}
		if err := dest.MergeReallocation(hours, source.PhaseID, u.ID, now); err != nil {
			return nil, err
		}
		if err := st.Allocations.Update(ctx, dest); err != nil {
			return nil, err
		}
		res.Scenario = domain.ScenarioMergePending

	case dest.Status == domain.AllocationApproved:
		if res.Warnings, err = gateBudget(ctx, st, target, source.ConsultantID, hours, nil); err != nil {
			return nil, err
		}
		p := &domain.ReallocationProposal{
			ID:                      uuid.New().String(),
			DestinationAllocationID: dest.ID,
			UnplannedID:             u.ID,
			SourcePhaseID:           source.PhaseID,
			ConsultantID:            source.ConsultantID,
			Hours:                   hours,
			RequestedBy:             req.Actor,
			RequestedAt:             now,
		}
		if err := st.Proposals.Create(ctx, p); err != nil {
			return nil, err
		}
		res.Proposal = p
		res.Scenario = domain.ScenarioProposal

	default:
		return nil, domain.InvalidDestinationf("allocation %s in phase %s is %s; choose another target phase",
			dest.ID, target.ID, dest.Status)
	}

	if err := u.MarkReallocated(target.ID, dest.ID, req.Actor, now); err != nil {
		return nil, err
	}
	if err := st.Unplanned.Update(ctx, u); err != nil {
		return nil, err
	}
	res.Allocation = dest
	return &requested{result: res, unplanned: u, source: source, sourcePhase: sourcePhase, target: target}, nil
}

func reallocationMetadata(res *app.ReallocateResult) map[string]string {
	meta := map[string]string{
		"scenario":    string(res.Scenario),
		"unplannedId": res.Unplanned.ID,
		"hours":       res.Unplanned.UnplannedHours.String(),
	}
	if res.Proposal != nil {
		meta["proposalId"] = res.Proposal.ID
	}
	return meta
}

func (s *reallocationService) DecideProposal(ctx context.Context, req app.DecideProposalRequest) (res *app.ProposalDecision, err error) {
	startedAt := time.Now()
	fields := map[string]any{"proposal_id": req.ProposalID, "approve": req.Approve}
	defer func() { s.observe(ctx, "reallocation.decide", startedAt, fields, err) }()

	if err = requireField("proposalId", req.ProposalID); err != nil {
		return nil, err
	}
	if err = s.requireGrowth(req.Actor); err != nil {
		return nil, err
	}
	if !req.Approve {
		if err = requireField("rejectionReason", req.Reason); err != nil {
			return nil, err
		}
	}

	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		p, err := st.Proposals.GetByID(ctx, req.ProposalID)
		if err != nil {
			return err
		}
		res, err = s.decideProposalTx(ctx, st, p, req.Approve, req.Actor, req.Reason, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// decideProposalTx settles a proposal. Approval folds its hours into the
// APPROVED destination; rejection sends them back to the source phase.
func (s *reallocationService) decideProposalTx(ctx context.Context, st *repository.Store, p *domain.ReallocationProposal, approve bool, actor, reason string, now time.Time) (*app.ProposalDecision, error) {
	dest, err := st.Allocations.GetByID(ctx, p.DestinationAllocationID)
	if err != nil {
		return nil, err
	}
	destPhase, err := st.Phases.GetByID(ctx, dest.PhaseID)
	if err != nil {
		return nil, err
	}
	u, err := st.Unplanned.GetByID(ctx, p.UnplannedID)
	if err != nil {
		return nil, err
	}
	if u.Status != domain.UnplannedReallocated || u.ReallocatedToAllocationID != dest.ID {
		return nil, domain.DataIntegrityf("proposal %s moves unplanned hours %s, which are %s toward %q",
			p.ID, u.ID, u.Status, u.ReallocatedToAllocationID)
	}

	decision := &app.ProposalDecision{Proposal: p, Approved: approve, Destination: dest, Unplanned: u}
	meta := map[string]string{"proposalId": p.ID, "unplannedId": u.ID, "hours": p.Hours.String()}

	if approve {
		// The proposal row is itself a budget line; drop it before charging
		// its hours to the destination.
		if err := st.Proposals.Delete(ctx, p.ID); err != nil {
			return nil, err
		}
		if err := dest.AbsorbProposal(p, now); err != nil {
			return nil, err
		}
		if decision.Warnings, err = gateBudget(ctx, st, destPhase, dest.ConsultantID, dest.TotalHours, dest); err != nil {
			return nil, err
		}
		if err := st.Allocations.Update(ctx, dest); err != nil {
			return nil, err
		}
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventReallocationApproved,
			recipients: []string{dest.ConsultantID, destPhase.ProductManagerID},
			title:      "Reallocation approved",
			message:    fmt.Sprintf("%s reallocated hours were added to phase %s (now %s)", p.Hours, destPhase.Name, dest.TotalHours),
			metadata:   meta,
		}, dest, destPhase, actor, now))
		return decision, nil
	}

	sourcePhase, err := st.Phases.GetByID(ctx, p.SourcePhaseID)
	if err != nil {
		return nil, err
	}
	if err := st.Proposals.Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	note := fmt.Sprintf("%s: reallocation to phase %s rejected by %s: %s", now.Format(time.RFC3339), destPhase.ID, actor, reason)
	if err := u.RevertReallocation(note); err != nil {
		return nil, err
	}
	if err := st.Unplanned.Update(ctx, u); err != nil {
		return nil, err
	}
	meta["reason"] = reason
	s.emit(ctx, allocationEvent(eventSpec{
		typ:        domain.EventReallocationRejected,
		recipients: []string{dest.ConsultantID, sourcePhase.ProductManagerID, destPhase.ProductManagerID},
		title:      "Reallocation rejected",
		message: fmt.Sprintf("%s hours are back in phase %s awaiting handling: %s",
			p.Hours, sourcePhase.Name, reason),
		metadata: meta,
	}, dest, destPhase, actor, now))
	return decision, nil
}

// Retarget withdraws a pending proposal and requests the same hours into
// another phase in one transaction.
func (s *reallocationService) Retarget(ctx context.Context, req app.RetargetRequest) (res *app.ReallocateResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"proposal_id": req.ProposalID, "target_phase_id": req.TargetPhaseID}
	defer func() { s.observe(ctx, "reallocation.retarget", startedAt, fields, err) }()

	if err = requireField("proposalId", req.ProposalID); err != nil {
		return nil, err
	}
	if err = requireField("targetPhaseId", req.TargetPhaseID); err != nil {
		return nil, err
	}
	if err = requireField("actor", req.Actor); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		p, err := st.Proposals.GetByID(ctx, req.ProposalID)
		if err != nil {
			return err
		}
		sourcePhase, err := st.Phases.GetByID(ctx, p.SourcePhaseID)
		if err != nil {
			return err
		}
		if err := s.requireManager(sourcePhase, req.Actor); err != nil {
			return err
		}
		u, err := st.Unplanned.GetByID(ctx, p.UnplannedID)
		if err != nil {
			return err
		}
		if err := st.Proposals.Delete(ctx, p.ID); err != nil {
			return err
		}
		if err := u.RevertReallocation(fmt.Sprintf("%s: retargeted by %s from allocation %s to phase %s",
			now.Format(time.RFC3339), req.Actor, p.DestinationAllocationID, req.TargetPhaseID)); err != nil {
			return err
		}
		if err := st.Unplanned.Update(ctx, u); err != nil {
			return err
		}

		r, err := s.requestTx(ctx, st, app.ReallocateRequest{
			UnplannedID:   u.ID,
			TargetPhaseID: req.TargetPhaseID,
			Actor:         req.Actor,
		}, now)
		if err != nil {
			return err
		}
		res = r.result
		meta := reallocationMetadata(res)
		meta["previousAllocationId"] = p.DestinationAllocationID
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventReallocationRetargeted,
			recipients: s.growthAnd(r.source.ConsultantID, r.target.ProductManagerID),
			title:      "Reallocation retargeted",
			message:    fmt.Sprintf("%s unplanned hours from phase %s now target phase %s", u.UnplannedHours, sourcePhase.Name, r.target.Name),
			metadata:   meta,
		}, res.Allocation, r.target, req.Actor, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Forfeit drops unplanned hours for good and closes the source allocation.
func (s *reallocationService) Forfeit(ctx context.Context, req app.ForfeitRequest) (res *domain.UnplannedExpiredHours, err error) {
	startedAt := time.Now()
	fields := map[string]any{"unplanned_id": req.UnplannedID}
	defer func() { s.observe(ctx, "unplanned.forfeit", startedAt, fields, err) }()

	if err = requireField("unplannedId", req.UnplannedID); err != nil {
		return nil, err
	}
	if err = requireField("actor", req.Actor); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := repository.NewStore(tx)
		u, err := st.Unplanned.GetByID(ctx, req.UnplannedID)
		if err != nil {
			return err
		}
		source, err := st.Allocations.GetByID(ctx, u.PhaseAllocationID)
		if err != nil {
			return err
		}
		phase, err := st.Phases.GetByID(ctx, source.PhaseID)
		if err != nil {
			return err
		}
		if err := s.requireManager(phase, req.Actor); err != nil {
			return err
		}
		if err := u.Forfeit(req.Actor, strings.TrimSpace(req.Notes), now); err != nil {
			return err
		}
		if err := st.Unplanned.Update(ctx, u); err != nil {
			return err
		}
		if err := source.Forfeit(now); err != nil {
			return domain.DataIntegrityf("unplanned hours %s: source %v", u.ID, err)
		}
		if err := st.Allocations.Update(ctx, source); err != nil {
			return err
		}
		res = u
		s.emit(ctx, allocationEvent(eventSpec{
			typ:        domain.EventHoursForfeited,
			recipients: []string{source.ConsultantID, phase.ProductManagerID},
			title:      "Unplanned hours forfeited",
			message:    fmt.Sprintf("%s unplanned hours in phase %s were forfeited", u.UnplannedHours, phase.Name),
			metadata:   map[string]string{"unplannedId": u.ID, "hours": u.UnplannedHours.String()},
		}, source, phase, req.Actor, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reallocationService) ListUnplanned(ctx context.Context, status domain.UnplannedStatus) ([]*domain.UnplannedExpiredHours, error) {
	if status != "" && !domain.ValidUnplannedStatuses[string(status)] {
		return nil, domain.Validationf("unknown unplanned status %q", status)
	}
	return s.reads().Unplanned.List(ctx, status)
}

func (s *reallocationService) GetUnplanned(ctx context.Context, id string) (*domain.UnplannedExpiredHours, error) {
	return s.reads().Unplanned.GetByID(ctx, id)
}

// verifyPendingSlices checks that every unsettled slice of alloc is backed by
// an unplanned record that points at it.
func verifyPendingSlices(ctx context.Context, st *repository.Store, alloc *domain.PhaseAllocation) ([]*domain.UnplannedExpiredHours, error) {
	var records []*domain.UnplannedExpiredHours
	for _, e := range alloc.Composition.Pending() {
		u, err := st.Unplanned.GetByID(ctx, e.SourceUnplannedID)
		if err != nil {
			return nil, domain.DataIntegrityf("allocation %s carries a slice from unplanned hours %s: %v",
				alloc.ID, e.SourceUnplannedID, err)
		}
		if u.Status != domain.UnplannedReallocated || u.ReallocatedToAllocationID != alloc.ID {
			return nil, domain.DataIntegrityf("unplanned hours %s are %s toward %q, not merged into allocation %s",
				u.ID, u.Status, u.ReallocatedToAllocationID, alloc.ID)
		}
		if !u.UnplannedHours.Equal(e.Hours) {
			return nil, domain.DataIntegrityf("allocation %s holds %s hours from unplanned %s, which records %s",
				alloc.ID, e.Hours, u.ID, u.UnplannedHours)
		}
		records = append(records, u)
	}
	return records, nil
}

// rejectComposite is the rejection path for an allocation carrying merged
// reallocations: every merged record goes back to EXPIRED and the allocation
// returns to what it held before the merges, or disappears when it held
// nothing else.
func rejectComposite(ctx context.Context, st *repository.Store, alloc *domain.PhaseAllocation, actor, reason string, now time.Time) (reverted []*domain.UnplannedExpiredHours, removed bool, err error) {
	records, err := verifyPendingSlices(ctx, st, alloc)
	if err != nil {
		return nil, false, err
	}
	_, planned, err := plannedHours(ctx, st, alloc.ID)
	if err != nil {
		return nil, false, err
	}
	if restored := alloc.TotalHours.Sub(alloc.PendingReallocatedHours()); restored.LessThan(planned) {
		return nil, false, domain.DataIntegrityf("allocation %s would fall to %s hours once its reallocations are reverted, below the %s hours planned",
			alloc.ID, restored, planned)
	}
	if _, removed, err = alloc.RevertPendingReallocations(reason, now); err != nil {
		return nil, false, err
	}
	note := fmt.Sprintf("%s: merge into allocation %s rejected by %s: %s", now.Format(time.RFC3339), alloc.ID, actor, reason)
	for _, u := range records {
		if err := u.RevertReallocation(note); err != nil {
			return nil, false, err
		}
		if err := st.Unplanned.Update(ctx, u); err != nil {
			return nil, false, err
		}
	}

	if !removed {
		if err := st.Allocations.Update(ctx, alloc); err != nil {
			return nil, false, err
		}
		return records, false, nil
	}
	proposals, err := st.Proposals.ListByDestination(ctx, alloc.ID)
	if err != nil {
		return nil, false, err
	}
	if len(proposals) > 0 {
		return nil, false, domain.Preconditionf("allocation %s still has %d reallocation proposals awaiting decision",
			alloc.ID, len(proposals))
	}
	if err := st.Allocations.Delete(ctx, alloc.ID); err != nil {
		return nil, false, err
	}
	return records, true, nil
}
