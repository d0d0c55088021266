package interfaces

import (
	"context"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

type CheckoutRequest struct {
	Plan    domain.Plan
	PriceID string
	Email   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Payment event types the service reacts to.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventChargeRefunded      = "charge.refunded"
)

// PaymentEvent is a verified provider event translated to domain terms.
// Exactly one payload field is set for handled types; none for others.
type PaymentEvent struct {
	ID           string
	Type         string
	Checkout     *CheckoutCompleted
	Subscription *domain.Subscription
	Refund       *Refund
}

type CheckoutCompleted struct {
	SessionID       string
	Mode            string
	PaymentIntentID string
	CustomerID      string
	SubscriptionID  string
	Customer        domain.Customer
	Plan            domain.Plan
	Amounts         domain.Amounts
	Address         domain.Address
}

type Refund struct {
	PaymentIntentID string
	AmountRefunded  int64
	FullyRefunded   bool
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
}
