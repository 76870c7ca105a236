package contract

import (
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
)

type NotificationDTO struct {
	ID          string            `json:"id"`
	Type        domain.EventType  `json:"type"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	ActionURL   string            `json:"actionUrl,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   string            `json:"createdAt"`
	ReadAt      *string           `json:"readAt,omitempty"`
	RecipientID string            `json:"recipientId"`
}

func FromNotifications(list []*domain.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationDTO{
			ID:          n.ID,
			Type:        n.Type,
			Title:       n.Title,
			Message:     n.Message,
			ActionURL:   n.ActionURL,
			Metadata:    n.Metadata,
			CreatedAt:   n.CreatedAt.UTC().Format(time.RFC3339),
			ReadAt:      formatTime(n.ReadAt),
			RecipientID: n.RecipientID,
		})
	}
	return out
}
