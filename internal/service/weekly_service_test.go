package service

import (
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proposeWeek(f *fixture, allocID string, weekStart time.Time, hours, actor string) (*app.WeeklyResult, error) {
	return f.svc.Weekly.Propose(f.ctx, app.ProposeWeeklyRequest{
		PhaseAllocationID: allocID,
		WeekStart:         weekStart,
		ProposedHours:     testutil.Hours(hours),
		Actor:             actor,
	})
}

func TestWeekly_ProposeCreatesAndReproposes(t *testing.T) {
	f := newFixture(t)
	phase := f.openPhase("Build")
	a := f.allocation(phase, "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	thisWeek := time.Now().UTC()

	res, err := proposeWeek(f, a.ID, thisWeek, "10", consultantID)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, domain.PlanningPending, res.Weekly.Status)
	assert.Equal(t, domain.WeekOf(thisWeek).Number, res.Weekly.WeekNumber)
	assert.True(t, res.PlannedHours.Equal(testutil.Hours("10")))

	// Any day of the same ISO week addresses the same row.
	again, err := proposeWeek(f, a.ID, domain.WeekOf(thisWeek).End, "12", pmID)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.Weekly.ID, again.Weekly.ID)
	assert.True(t, again.PlannedHours.Equal(testutil.Hours("12")))
	assert.Equal(t, pmID, again.Weekly.PlannedBy)

	weeks, err := f.svc.Weekly.ListByAllocation(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, weeks, 1)
	assert.Equal(t, []domain.EventType{domain.EventWeeklyProposed, domain.EventWeeklyProposed}, f.events.types())
}

func TestWeekly_ProposeGuards(t *testing.T) {
	f := newFixture(t)
	phase := f.openPhase("Build")
	approved := f.allocation(phase, "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	pending := f.allocation(f.openPhase("Run"), "40")
	thisWeek := time.Now().UTC()

	_, err := proposeWeek(f, pending.ID, thisWeek, "10", consultantID)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed, "weeks are planned against approved allocations only")

	_, err = proposeWeek(f, approved.ID, phase.EndDate.AddDate(0, 0, 30), "10", consultantID)
	assert.ErrorIs(t, err, domain.ErrValidation, "week outside the phase window")

	_, err = proposeWeek(f, approved.ID, thisWeek, "10", "stranger")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = proposeWeek(f, approved.ID, thisWeek, "-1", consultantID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = proposeWeek(f, "missing", thisWeek, "1", consultantID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.events.types())
}

func TestWeekly_CapacityIsTheAllocationTotal(t *testing.T) {
	f := newFixture(t)
	phase := f.openPhase("Build")
	a := f.allocation(phase, "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	thisWeek := time.Now().UTC()

	_, err := proposeWeek(f, a.ID, thisWeek, "30", consultantID)
	require.NoError(t, err)

	_, err = proposeWeek(f, a.ID, thisWeek.AddDate(0, 0, 7), "20", consultantID)
	var capErr *domain.WeeklyCapacityError
	require.True(t, errors.As(err, &capErr), "expected WeeklyCapacityError, got %v", err)
	assert.True(t, capErr.Available.Equal(testutil.Hours("10")))
	assert.True(t, capErr.PlannedOther.Equal(testutil.Hours("30")))
	assert.Equal(t, domain.CodePreconditionFailed, domain.CodeOf(err))

	// Replacing the same week only counts the new value.
	_, err = proposeWeek(f, a.ID, thisWeek, "40", consultantID)
	require.NoError(t, err)
}

func TestWeekly_DecideApproveModifyReject(t *testing.T) {
	f := newFixture(t)
	phase := f.openPhase("Build")
	a := f.allocation(phase, "40", testutil.WithAllocationStatus(domain.AllocationApproved))
	thisWeek := time.Now().UTC()

	first, err := proposeWeek(f, a.ID, thisWeek, "10", consultantID)
	require.NoError(t, err)
	second, err := proposeWeek(f, a.ID, thisWeek.AddDate(0, 0, 7), "10", consultantID)
	require.NoError(t, err)
	third, err := proposeWeek(f, a.ID, thisWeek.AddDate(0, 0, 14), "10", consultantID)
	require.NoError(t, err)
	f.events.reset()

	_, err = f.svc.Weekly.Decide(f.ctx, app.DecideWeeklyRequest{WeeklyID: first.Weekly.ID, Action: domain.ActionApprove, Actor: consultantID})
	require.ErrorIs(t, err, domain.ErrForbidden, "consultants do not approve their own weeks")

	approved, err := f.svc.Weekly.Decide(f.ctx, app.DecideWeeklyRequest{WeeklyID: first.Weekly.ID, Action: domain.ActionApprove, Actor: pmID})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanningApproved, approved.Weekly.Status)
	assert.True(t, approved.Weekly.Hours().Equal(testutil.Hours("10")))

	_, err = f.svc.Weekly.Decide(f.ctx, app.DecideWeeklyRequest{WeeklyID: first.Weekly.ID, Action: domain.ActionApprove, Actor: growthID})
	assert.ErrorIs(t, err, domain.ErrStaleState)

	modified, err := f.svc.Weekly.Decide(f.ctx, app.DecideWeeklyRequest{
		WeeklyID: second.Weekly.ID, Action: domain.ActionModify, ApprovedHours: hoursPtr("6"), Actor: growthID,
	})
	require.NoError(t, err)
	assert.True(t, modified.Weekly.Hours().Equal(testutil.Hours("6")))
	assert.True(t, modified.PlannedHours.Equal(testutil.Hours("26")))

	_, err = f.svc.Weekly.Decide(f.ctx, app.DecideWeeklyRequest{WeeklyID: third.Weekly.ID, Action: domain.ActionReject, Actor: pmID})
	require.ErrorIs(t, err, domain.ErrValidation)
	rejected, err := f.svc.Weekly.Decide(f.ctx, app.DecideWeeklyRequest{
		WeeklyID: third.Weekly.ID, Action: domain.ActionReject, RejectionReason: "holiday", Actor: pmID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanningRejected, rejected.Weekly.Status)
	assert.True(t, rejected.PlannedHours.Equal(testutil.Hours("16")))

	stored, err := f.st.Weekly.GetByID(f.ctx, third.Weekly.ID)
	require.NoError(t, err)
	assert.Equal(t, "holiday", stored.RejectionReason)

	assert.Equal(t, []domain.EventType{domain.EventWeeklyDecided, domain.EventWeeklyDecided, domain.EventWeeklyDecided}, f.events.types())
	assert.Equal(t, "holiday", f.events.last().Metadata["reason"])
}

func TestWeekly_ModifyCannotExceedCapacity(t *testing.T) {
	f := newFixture(t)
	phase := f.openPhase("Build")
	a := f.allocation(phase, "20", testutil.WithAllocationStatus(domain.AllocationApproved))
	thisWeek := time.Now().UTC()

	w, err := proposeWeek(f, a.ID, thisWeek, "5", consultantID)
	require.NoError(t, err)
	f.approvedWeek(a, thisWeek.AddDate(0, 0, 7), "15")

	_, err = f.svc.Weekly.Decide(f.ctx, app.DecideWeeklyRequest{
		WeeklyID: w.Weekly.ID, Action: domain.ActionModify, ApprovedHours: hoursPtr("8"), Actor: growthID,
	})
	require.ErrorIs(t, err, domain.ErrPreconditionFailed)

	stored, err := f.st.Weekly.GetByID(f.ctx, w.Weekly.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanningPending, stored.Status)
}
