package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/alexanderramin/phasehours/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentDecisions_OneWins races approve and reject against the same
// PENDING allocation over a file-backed database. Exactly one decision lands
// and exactly one event is published.
func TestConcurrentDecisions_OneWins(t *testing.T) {
	database := testutil.NewFileTestDB(t, "decide.db")

	ctx := context.Background()
	st := repository.NewStore(database)
	project := testutil.NewTestProject("Atlas")
	require.NoError(t, st.Projects.Upsert(ctx, project))
	phase := testutil.NewTestPhase(project.ID, "Build")
	require.NoError(t, st.Phases.Upsert(ctx, phase))
	require.NoError(t, st.Assignments.Upsert(ctx, testutil.NewTestAssignment(project.ID, consultantID, "100")))
	alloc := testutil.NewTestAllocation(phase.ID, consultantID, "40")
	require.NoError(t, st.Allocations.Create(ctx, alloc))

	events := &eventLog{}
	svc := New(Deps{
		DB:        database,
		UoW:       db.NewSQLiteUnitOfWork(database),
		Caps:      NewStaticCapabilities([]string{growthID, "growth-2"}),
		Publisher: events,
	})

	requests := []app.DecideRequest{
		{AllocationID: alloc.ID, Action: domain.ActionApprove, Actor: growthID},
		{AllocationID: alloc.ID, Action: domain.ActionReject, Actor: "growth-2", RejectionReason: "duplicate"},
		{AllocationID: alloc.ID, Action: domain.ActionApprove, Actor: "growth-2"},
		{AllocationID: alloc.ID, Action: domain.ActionReject, Actor: growthID, RejectionReason: "duplicate"},
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	errCh := make(chan error, len(requests))
	for _, req := range requests {
		wg.Add(1)
		go func(req app.DecideRequest) {
			defer wg.Done()
			<-start
			_, err := svc.Allocations.Decide(ctx, req)
			errCh <- err
		}(req)
	}
	close(start)
	wg.Wait()
	close(errCh)

	var won, stale int
	for err := range errCh {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrStaleState):
			stale++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, len(requests)-1, stale)
	assert.Len(t, events.types(), 1)

	final, err := st.Allocations.GetByID(ctx, alloc.ID)
	require.NoError(t, err)
	assert.NotEqual(t, domain.AllocationPending, final.Status)
	assert.Equal(t, 2, final.Version)
}
