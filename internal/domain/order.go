package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Order is a paid (or pending) purchase of a physical QR tag.
type Order struct {
	ID                    int64
	Number                string
	Customer              Customer
	Plan                  Plan
	Amounts               Amounts
	ShippingAddress       Address
	Status                Status
	QRSlug                *string
	StripeSessionID       string
	StripePaymentIntentID *string
	TrackingNumber        *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	PaidAt                *time.Time
	ShippedAt             *time.Time
	DeliveredAt           *time.Time
}

type Customer struct {
	Name  string
	Email string
}

// Amounts are in minor currency units.
type Amounts struct {
	Subtotal int64
	Shipping int64
	Tax      int64
	Total    int64
	Currency string
}

type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// NewOrder creates a new pending order with business rules applied
func NewOrder(customer Customer, plan Plan, amounts Amounts, address Address, sessionID string) (*Order, error) {
	now := time.Now().UTC()
	order := &Order{
		Customer: Customer{
			Name:  strings.TrimSpace(customer.Name),
			Email: strings.ToLower(strings.TrimSpace(customer.Email)),
		},
		Plan:            plan,
		Amounts:         amounts,
		ShippingAddress: address,
		Status:          StatusPending,
		StripeSessionID: sessionID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if order.Amounts.Total == 0 {
		order.CalculateTotal()
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if len(o.Customer.Name) > 200 {
		return errors.New("customer name must not exceed 200 characters")
	}
	if _, err := mail.ParseAddress(o.Customer.Email); err != nil {
		return errors.New("customer email is invalid")
	}
	if !o.Plan.Valid() {
		return errors.New("invalid plan")
	}
	if o.Amounts.Subtotal < 0 || o.Amounts.Shipping < 0 || o.Amounts.Tax < 0 || o.Amounts.Total < 0 {
		return errors.New("amounts must not be negative")
	}
	if o.Amounts.Currency == "" {
		return errors.New("currency is required")
	}
	if o.StripeSessionID == "" {
		return errors.New("checkout session id is required")
	}
	return nil
}

// CalculateTotal sums the amount components into Total.
func (o *Order) CalculateTotal() {
	o.Amounts.Total = o.Amounts.Subtotal + o.Amounts.Shipping + o.Amounts.Tax
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	o.Status = newStatus
	o.UpdatedAt = now

	switch newStatus {
	case StatusPaid:
		o.PaidAt = &now
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	}

	return nil
}

// CanTransitionTo checks if the order can transition to the new status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Anonymize strips personal data from the order, keeping the financial record.
func (o *Order) Anonymize() {
	o.Customer = Customer{
		Name:  "deleted",
		Email: "deleted+" + o.Number + "@invalid",
	}
	o.ShippingAddress = Address{Country: o.ShippingAddress.Country}
	o.UpdatedAt = time.Now().UTC()
}
