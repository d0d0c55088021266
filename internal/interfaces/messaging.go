package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

// RabbitMQ messages
type OrderEventMessage struct {
	Event       string      `json:"event"`
	OrderNumber string      `json:"order_number"`
	Plan        domain.Plan `json:"plan"`
	Total       int64       `json:"total"`
	Currency    string      `json:"currency"`
	Timestamp   time.Time   `json:"timestamp"`
}

type StatusUpdateMessage struct {
	OrderNumber    string        `json:"order_number"`
	CustomerName   string        `json:"customer_name"`
	CustomerEmail  string        `json:"customer_email"`
	OldStatus      domain.Status `json:"old_status"`
	NewStatus      domain.Status `json:"new_status"`
	ChangedBy      string        `json:"changed_by"`
	TrackingNumber *string       `json:"tracking_number,omitempty"`
	QRSlug         *string       `json:"qr_slug,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

type MessagePublisher interface {
	PublishOrderEvent(ctx context.Context, msg OrderEventMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error

// EmailSender delivers a rendered email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
