package service

import (
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/notify"
)

// deletedStatus is reported for allocations that no longer exist.
const deletedStatus = "DELETED"

type eventSpec struct {
	typ        domain.EventType
	recipients []string
	title      string
	message    string
	metadata   map[string]string
}

// allocationEvent describes a transition of a, which belongs to phase.
func allocationEvent(spec eventSpec, a *domain.PhaseAllocation, phase *domain.Phase, actor string, now time.Time) notify.Event {
	meta := map[string]string{"totalHours": a.TotalHours.String()}
	for k, v := range spec.metadata {
		meta[k] = v
	}
	status := string(a.Status)
	if spec.typ == domain.EventAllocationDeleted {
		status = deletedStatus
	}
	return notify.Event{
		Type:         spec.typ,
		AllocationID: a.ID,
		PhaseID:      a.PhaseID,
		ProjectID:    phase.ProjectID,
		ConsultantID: a.ConsultantID,
		NewStatus:    status,
		ActorID:      actor,
		Recipients:   spec.recipients,
		Title:        spec.title,
		Message:      spec.message,
		ActionURL:    "/allocations/" + a.ID,
		Metadata:     meta,
		OccurredAt:   now,
	}
}

// growthAnd addresses the Growth Team plus ids.
func (e *engine) growthAnd(ids ...string) []string {
	return append(e.Caps.GrowthTeam(), ids...)
}
