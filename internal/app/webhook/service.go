package webhook

import (
	"context"
	"errors"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

const actor = "stripe_webhook"

type Service struct {
	gateway       interfaces.PaymentGateway
	store         interfaces.Store
	orders        interfaces.OrderService
	subscriptions interfaces.SubscriptionService
	security      interfaces.SecurityService
	logger        logger.Logger
}

func NewService(
	gateway interfaces.PaymentGateway,
	store interfaces.Store,
	orders interfaces.OrderService,
	subscriptions interfaces.SubscriptionService,
	security interfaces.SecurityService,
	logger logger.Logger,
) *Service {
	return &Service{
		gateway:       gateway,
		store:         store,
		orders:        orders,
		subscriptions: subscriptions,
		security:      security,
		logger:        logger,
	}
}

// Handle verifies and applies one webhook delivery. Events already applied
// are acknowledged without side effects. The event id is recorded only after
// it was applied, so a failed delivery is retried by Stripe.
func (s *Service) Handle(ctx context.Context, payload []byte, signature, source string) error {
	rid := logger.RequestID(ctx)

	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentVerification) {
			s.security.Record(ctx, domain.SecurityEvent{
				Type:     domain.EventWebhookSignatureInvalid,
				Severity: domain.SeverityHigh,
				Source:   source,
				Details:  map[string]any{"payload_bytes": len(payload)},
			})
			s.logger.Warn("webhook_rejected", "Webhook signature verification failed", rid, map[string]any{"source": source})
		}
		return err
	}

	seen, err := s.store.Webhooks().Seen(ctx, ev.ID)
	if err != nil {
		return err
	}
	if seen {
		s.logger.Debug("webhook_duplicate", "Webhook event already processed", rid,
			map[string]any{"event_id": ev.ID, "type": ev.Type})
		return nil
	}

	if err := s.apply(ctx, ev); err != nil {
		s.logger.Error("webhook_failed", "Failed to apply webhook event", rid,
			map[string]any{"event_id": ev.ID, "type": ev.Type}, err)
		return &domain.PaymentError{EventID: ev.ID, Type: ev.Type, Err: err}
	}

	if _, err := s.store.Webhooks().MarkProcessed(ctx, ev.ID, ev.Type); err != nil {
		return err
	}

	s.logger.Info("webhook_processed", "Webhook event applied", rid, map[string]any{"event_id": ev.ID, "type": ev.Type})
	return nil
}

func (s *Service) apply(ctx context.Context, ev *interfaces.PaymentEvent) error {
	switch {
	case ev.Checkout != nil:
		return s.checkoutCompleted(ctx, ev.Checkout)

	case ev.Subscription != nil && ev.Type == interfaces.EventSubscriptionDeleted:
		return s.subscriptions.Cancel(ctx, ev.Subscription.StripeSubscriptionID)

	case ev.Subscription != nil:
		return s.subscriptions.Upsert(ctx, ev.Subscription)

	case ev.Refund != nil:
		return s.refund(ctx, ev.Refund)
	}

	s.logger.Debug("webhook_ignored", "Unhandled webhook event type", logger.RequestID(ctx), map[string]any{"type": ev.Type})
	return nil
}

// checkoutCompleted creates the order for the tag. Subscription-mode sessions
// also seed the subscription row unless a subscription event got there first,
// in which case the session's customer fills whatever that event left empty.
func (s *Service) checkoutCompleted(ctx context.Context, c *interfaces.CheckoutCompleted) error {
	if c.Mode == "subscription" && c.SubscriptionID != "" {
		existing, err := s.store.Subscriptions().FindByStripeID(ctx, c.SubscriptionID)
		switch {
		case err == nil:
			if existing.CustomerEmail == "" || existing.StripeCustomerID == "" {
				if err := s.subscriptions.AttachCustomer(ctx, c.SubscriptionID, c.CustomerID, c.Customer.Email); err != nil {
					return err
				}
			}
		case errors.Is(err, domain.ErrNotFound):
			if err := s.subscriptions.Upsert(ctx, &domain.Subscription{
				StripeSubscriptionID: c.SubscriptionID,
				StripeCustomerID:     c.CustomerID,
				CustomerEmail:        c.Customer.Email,
				Plan:                 c.Plan,
				Status:               "active",
			}); err != nil {
				return err
			}
		case err != nil:
			return err
		}
	}

	_, err := s.orders.CreateFromCheckout(ctx, *c)
	return err
}

func (s *Service) refund(ctx context.Context, r *interfaces.Refund) error {
	if !r.FullyRefunded || r.PaymentIntentID == "" {
		s.logger.Info("partial_refund", "Partial refund recorded by provider, order unchanged", logger.RequestID(ctx),
			map[string]any{"payment_intent": r.PaymentIntentID, "amount": r.AmountRefunded})
		return nil
	}

	_, err := s.orders.Refund(ctx, r.PaymentIntentID, actor)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("refund_unmatched", "Refund does not match any order", logger.RequestID(ctx),
			map[string]any{"payment_intent": r.PaymentIntentID})
		return nil
	}
	if errors.Is(err, domain.ErrInvalidStatusTransition) {
		s.logger.Warn("refund_needs_review", "Order cannot move to refunded from its current status", logger.RequestID(ctx),
			map[string]any{"payment_intent": r.PaymentIntentID})
		return nil
	}
	return err
}
