package domain

import "time"

type Plan string

const (
	PlanBasic    Plan = "basic"
	PlanPremium  Plan = "premium"
	PlanLifetime Plan = "lifetime"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanBasic, PlanPremium, PlanLifetime:
		return true
	}
	return false
}

// Recurring plans are billed as subscriptions; lifetime is a one-off payment.
func (p Plan) Recurring() bool {
	return p == PlanBasic || p == PlanPremium
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusPacked     Status = "packed"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

var validTransitions = map[Status][]Status{
	StatusPending:    {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusPacked, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusPacked, StatusCancelled, StatusRefunded},
	StatusPacked:     {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// ParseStatus returns the status for s, or false if s is not a known status.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := validTransitions[st]
	return st, ok
}

// StatusLog represents a log entry for order status changes
type StatusLog struct {
	ID        int64
	OrderID   int64
	Status    Status
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
