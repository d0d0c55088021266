package domain

import "time"

// Subscription mirrors a Stripe subscription.
type Subscription struct {
	ID                   int64
	StripeSubscriptionID string
	StripeCustomerID     string
	CustomerEmail        string
	Plan                 Plan
	Status               string
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

const SubscriptionCanceled = "canceled"

func (s *Subscription) IsActive() bool {
	return s.Status == "active" || s.Status == "trialing"
}
