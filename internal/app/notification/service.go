package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type Service struct {
	store   interfaces.Store
	sender  interfaces.EmailSender
	baseURL string
	logger  logger.Logger
}

func NewService(store interfaces.Store, sender interfaces.EmailSender, baseURL string, logger logger.Logger) *Service {
	return &Service{
		store:   store,
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type Email struct {
	Template string
	Subject  string
	Body     string
}

// Render builds the plain-text email for a status change.
func (s *Service) Render(msg interfaces.StatusUpdateMessage) Email {
	name := msg.CustomerName
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)

	e := Email{Template: "order_" + string(msg.NewStatus)}
	switch msg.NewStatus {
	case domain.StatusPaid:
		e.Subject = fmt.Sprintf("We received your order %s", msg.OrderNumber)
		b.WriteString("Thanks for your purchase! We'll let you know when your tag is on its way.\n")
	case domain.StatusProcessing:
		e.Subject = fmt.Sprintf("Your order %s is being prepared", msg.OrderNumber)
		b.WriteString("Your tag is being prepared.\n")
	case domain.StatusPacked:
		e.Subject = fmt.Sprintf("Your order %s is packed", msg.OrderNumber)
		b.WriteString("Your tag is packed and waiting for the courier.\n")
		if msg.QRSlug != nil {
			fmt.Fprintf(&b, "Once it arrives you can claim it at %s/m/%s\n", s.baseURL, *msg.QRSlug)
		}
	case domain.StatusShipped:
		e.Subject = fmt.Sprintf("Your order %s has shipped", msg.OrderNumber)
		b.WriteString("Your tag is on its way.\n")
		if msg.TrackingNumber != nil {
			fmt.Fprintf(&b, "Tracking number: %s\n", *msg.TrackingNumber)
		}
	case domain.StatusDelivered:
		e.Subject = fmt.Sprintf("Your order %s was delivered", msg.OrderNumber)
		b.WriteString("Your tag has arrived. Scan it to start adding memories.\n")
	case domain.StatusCancelled:
		e.Subject = fmt.Sprintf("Your order %s was cancelled", msg.OrderNumber)
		b.WriteString("Your order has been cancelled. Reply to this email if this is unexpected.\n")
	case domain.StatusRefunded:
		e.Subject = fmt.Sprintf("Your order %s was refunded", msg.OrderNumber)
		b.WriteString("Your refund has been issued to the original payment method.\n")
	default:
		e.Subject = fmt.Sprintf("Update on your order %s", msg.OrderNumber)
		fmt.Fprintf(&b, "Your order status is now %s.\n", msg.NewStatus)
	}
	b.WriteString("\nTag My Trophy\n")

	e.Body = b.String()
	return e
}

// HandleStatusUpdate sends the email for msg and records the outcome. A
// failed send is recorded and not retried; only a failure to record it is
// returned.
func (s *Service) HandleStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	if msg.CustomerEmail == "" {
		s.logger.Debug("notification_skipped", "No recipient for status update", "",
			map[string]any{"order_number": msg.OrderNumber})
		return nil
	}

	email := s.Render(msg)
	entry := &domain.NotificationLog{
		OrderNumber: msg.OrderNumber,
		Recipient:   msg.CustomerEmail,
		Template:    email.Template,
		Status:      domain.NotificationSent,
	}

	if err := s.sender.Send(ctx, msg.CustomerEmail, email.Subject, email.Body); err != nil {
		s.logger.Error("notification_send_failed", "Failed to send notification", "",
			map[string]any{"order_number": msg.OrderNumber}, err)
		errMsg := err.Error()
		entry.Status = domain.NotificationFailed
		entry.Error = &errMsg
	}

	if err := s.store.Notifications().Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	s.logger.Info("notification_processed", fmt.Sprintf("Notification for order %s: %s -> %s",
		msg.OrderNumber, msg.OldStatus, msg.NewStatus), "", map[string]any{
		"order_number": msg.OrderNumber,
		"template":     entry.Template,
		"status":       entry.Status,
	})
	return nil
}

// LogSender stands in for a mail provider. It logs that an email went out
// but never the recipient or the body.
type LogSender struct {
	Logger logger.Logger
}

func (l LogSender) Send(ctx context.Context, to, subject, body string) error {
	l.Logger.Info("email_sent", subject, "", map[string]any{"body_bytes": len(body)})
	return nil
}
