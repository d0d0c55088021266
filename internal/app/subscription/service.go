package subscription

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type Service struct {
	store  interfaces.Store
	logger logger.Logger
}

func NewService(store interfaces.Store, logger logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Upsert stores whatever Stripe last said about the subscription.
func (s *Service) Upsert(ctx context.Context, sub *domain.Subscription) error {
	if sub.StripeSubscriptionID == "" {
		return domain.ValidationError{Field: "stripe_subscription_id", Message: "is required"}
	}
	sub.CustomerEmail = strings.ToLower(strings.TrimSpace(sub.CustomerEmail))
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	if err := s.store.Subscriptions().Upsert(ctx, sub); err != nil {
		return err
	}

	s.logger.Info("subscription_upserted", "Subscription synced", logger.RequestID(ctx), map[string]any{
		"subscription_id": sub.StripeSubscriptionID,
		"status":          sub.Status,
		"plan":            sub.Plan,
	})
	return nil
}

// Cancel marks the subscription canceled. Unknown ids are recorded as a
// canceled row so a late "created" event cannot resurrect it; the store
// never moves a canceled row back to another status.
func (s *Service) Cancel(ctx context.Context, stripeSubscriptionID string) error {
	sub, err := s.store.Subscriptions().FindByStripeID(ctx, stripeSubscriptionID)
	if errors.Is(err, domain.ErrNotFound) {
		sub = &domain.Subscription{StripeSubscriptionID: stripeSubscriptionID}
	} else if err != nil {
		return err
	}

	sub.Status = domain.SubscriptionCanceled
	sub.CancelAtPeriodEnd = false
	return s.Upsert(ctx, sub)
}

// AttachCustomer fills in the customer of a subscription whose events
// arrived without one. Known values are kept.
func (s *Service) AttachCustomer(ctx context.Context, stripeSubscriptionID, customerID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.store.Subscriptions().SetCustomer(ctx, stripeSubscriptionID, customerID, email); err != nil {
		return err
	}
	s.logger.Debug("subscription_customer_attached", "Subscription customer backfilled", logger.RequestID(ctx),
		map[string]any{"subscription_id": stripeSubscriptionID})
	return nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) ([]*domain.Subscription, error) {
	return s.store.Subscriptions().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
