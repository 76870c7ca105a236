package domain

import "time"

// Notification is an in-app inbox entry for one recipient.
type Notification struct {
	ID          string
	RecipientID string
	Type        EventType
	Title       string
	Message     string
	ActionURL   string
	Metadata    map[string]string
	CreatedAt   time.Time
	ReadAt      *time.Time
}
