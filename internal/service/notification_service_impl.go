package service

import (
	"context"

	"github.com/alexanderramin/phasehours/internal/domain"
)

type notificationService struct {
	engine
}

func NewNotificationService(deps Deps) NotificationService {
	return &notificationService{engine: newEngine(deps)}
}

func (s *notificationService) Inbox(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	if err := requireField("recipient", recipientID); err != nil {
		return nil, err
	}
	return s.reads().Notifications.ListByRecipient(ctx, recipientID, unreadOnly)
}

// MarkRead only touches notifications addressed to actor; anything else looks
// missing.
func (s *notificationService) MarkRead(ctx context.Context, id, actor string) error {
	if err := requireField("actor", actor); err != nil {
		return err
	}
	st := s.reads()
	inbox, err := st.Notifications.ListByRecipient(ctx, actor, false)
	if err != nil {
		return err
	}
	for _, n := range inbox {
		if n.ID != id {
			continue
		}
		if n.ReadAt != nil {
			return nil
		}
		return st.Notifications.MarkRead(ctx, id, s.now())
	}
	return domain.NotFoundf("notification %s", id)
}
