package domain

import "time"

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// NotificationLog records an outbound customer notification.
type NotificationLog struct {
	ID          int64
	OrderNumber string
	Recipient   string
	Template    string
	Status      NotificationStatus
	Error       *string
	CreatedAt   time.Time
}
