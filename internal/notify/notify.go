// Package notify delivers lifecycle events to consultants, phase managers and
// the Growth Team. Delivery is best effort: a failed notification is logged
// and never reaches the operation that raised it.
package notify

import (
	"context"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
)

// Event is one allocation lifecycle transition.
type Event struct {
	Type         domain.EventType
	AllocationID string
	PhaseID      string
	ProjectID    string
	ConsultantID string
	NewStatus    string
	ActorID      string
	Recipients   []string
	Title        string
	Message      string
	ActionURL    string
	Metadata     map[string]string
	OccurredAt   time.Time
}

// Fields returns the identifying attributes of the event merged over its
// metadata.
func (e Event) Fields() map[string]string {
	out := make(map[string]string, len(e.Metadata)+6)
	for k, v := range e.Metadata {
		out[k] = v
	}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("allocationId", e.AllocationID)
	set("phaseId", e.PhaseID)
	set("projectId", e.ProjectID)
	set("consultantId", e.ConsultantID)
	set("newStatus", e.NewStatus)
	set("actorId", e.ActorID)
	return out
}

// Publisher receives events. Implementations must tolerate being called from
// any goroutine.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

// uniqueRecipients drops blanks and duplicates, keeping first-seen order.
func uniqueRecipients(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
