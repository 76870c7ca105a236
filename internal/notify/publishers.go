package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LogPublisher writes every event to a zap logger.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.logger.Info("notification",
		zap.String("type", string(ev.Type)),
		zap.String("allocation_id", ev.AllocationID),
		zap.String("phase_id", ev.PhaseID),
		zap.String("project_id", ev.ProjectID),
		zap.String("consultant_id", ev.ConsultantID),
		zap.String("new_status", ev.NewStatus),
		zap.String("actor_id", ev.ActorID),
		zap.Strings("recipients", uniqueRecipients(ev.Recipients)),
		zap.String("title", ev.Title),
	)
	return nil
}

// InboxStore is the slice of the notification repository the inbox needs.
type InboxStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// InboxPublisher stores one in-app notification per recipient. A failure for
// one recipient does not stop delivery to the others.
type InboxPublisher struct {
	store InboxStore
}

func NewInboxPublisher(store InboxStore) *InboxPublisher {
	return &InboxPublisher{store: store}
}

func (p *InboxPublisher) Publish(ctx context.Context, ev Event) error {
	var errs []error
	fields := ev.Fields()
	for _, recipient := range uniqueRecipients(ev.Recipients) {
		n := &domain.Notification{
			ID:          uuid.New().String(),
			RecipientID: recipient,
			Type:        ev.Type,
			Title:       ev.Title,
			Message:     ev.Message,
			ActionURL:   ev.ActionURL,
			Metadata:    fields,
			CreatedAt:   ev.OccurredAt,
		}
		if err := p.store.Create(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("inbox for %s: %w", recipient, err))
		}
	}
	return errors.Join(errs...)
}

// Fanout publishes to every publisher concurrently and reports the first
// failure after all of them finish.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var g errgroup.Group
	for _, p := range f {
		g.Go(func() error {
			return p.Publish(ctx, ev)
		})
	}
	return g.Wait()
}
