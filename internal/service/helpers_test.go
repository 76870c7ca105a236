package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/notify"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/alexanderramin/phasehours/internal/testutil"
	"github.com/stretchr/testify/require"
)

const (
	growthID     = "growth-1"
	pmID         = "pm-1"
	consultantID = "c-1"
)

// eventLog records published events in order.
type eventLog struct {
	mu     sync.Mutex
	events []notify.Event
}

func (l *eventLog) Publish(_ context.Context, ev notify.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) types() []domain.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func (l *eventLog) last() notify.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return notify.Event{}
	}
	return l.events[len(l.events)-1]
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// fixture is a wired service set over an in-memory database with one
// project, a Growth Team of one and pm-1 managing every phase.
type fixture struct {
	t       *testing.T
	ctx     context.Context
	db      *sql.DB
	st      *repository.Store
	events  *eventLog
	deps    Deps
	svc     *Services
	project *domain.Project
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	events := &eventLog{}
	deps := Deps{
		DB:        database,
		UoW:       testutil.NewTestUoW(database),
		Caps:      NewStaticCapabilities([]string{growthID}),
		Publisher: events,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     database,
		st:     repository.NewStore(database),
		events: events,
		deps:   deps,
		svc:    New(deps),
	}
	f.project = f.newProject("1000")
	return f
}

func (f *fixture) newProject(budget string) *domain.Project {
	f.t.Helper()
	p := testutil.NewTestProject("Atlas", testutil.WithBudget(budget))
	require.NoError(f.t, f.st.Projects.Upsert(f.ctx, p))
	return p
}

// openPhase runs from a month ago to a month ahead.
func (f *fixture) openPhase(name string) *domain.Phase {
	f.t.Helper()
	return f.phaseIn(f.project, name)
}

func (f *fixture) phaseIn(project *domain.Project, name string, opts ...testutil.PhaseOption) *domain.Phase {
	f.t.Helper()
	ph := testutil.NewTestPhase(project.ID, name, opts...)
	require.NoError(f.t, f.st.Phases.Upsert(f.ctx, ph))
	return ph
}

// endedPhase closed ten days ago.
func (f *fixture) endedPhase(name string) *domain.Phase {
	f.t.Helper()
	now := time.Now().UTC()
	return f.phaseIn(f.project, name, testutil.WithPhaseWindow(now.AddDate(0, 0, -60), now.AddDate(0, 0, -10)))
}

func (f *fixture) assign(project *domain.Project, consultant, hours string) {
	f.t.Helper()
	require.NoError(f.t, f.st.Assignments.Upsert(f.ctx, testutil.NewTestAssignment(project.ID, consultant, hours)))
}

func (f *fixture) allocation(phase *domain.Phase, hours string, opts ...testutil.AllocationOption) *domain.PhaseAllocation {
	f.t.Helper()
	a := testutil.NewTestAllocation(phase.ID, consultantID, hours, opts...)
	require.NoError(f.t, f.st.Allocations.Create(f.ctx, a))
	return a
}

func (f *fixture) approvedWeek(a *domain.PhaseAllocation, weekStart time.Time, hours string) *domain.WeeklyAllocation {
	f.t.Helper()
	w := testutil.NewTestWeekly(a, weekStart, hours, testutil.WithWeeklyApproved())
	require.NoError(f.t, f.st.Weekly.Create(f.ctx, w))
	return w
}

func (f *fixture) reload(id string) *domain.PhaseAllocation {
	f.t.Helper()
	a, err := f.st.Allocations.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return a
}

func (f *fixture) unplanned(id string) *domain.UnplannedExpiredHours {
	f.t.Helper()
	u, err := f.st.Unplanned.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return u
}

// expiredHours builds an APPROVED allocation of total hours in an ended
// phase with planned hours distributed, runs the detector and returns the
// recorded shortfall.
func (f *fixture) expiredHours(total, planned string) (*domain.PhaseAllocation, *domain.UnplannedExpiredHours) {
	f.t.Helper()
	source := f.endedPhase("Discovery")
	a := f.allocation(source, total, testutil.WithAllocationStatus(domain.AllocationApproved))
	f.approvedWeek(a, source.StartDate, planned)

	report, err := f.svc.Expiration.Run(f.ctx, time.Now().UTC())
	require.NoError(f.t, err)
	require.Len(f.t, report.Created, 1)
	f.events.reset()
	return f.reload(a.ID), f.unplanned(report.Created[0].UnplannedID)
}
