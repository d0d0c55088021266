package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrSlugUnavailable         = errors.New("qr slug is not available")
	ErrInvalidSlug             = errors.New("invalid qr slug")
	ErrInvalidMediaType        = errors.New("unsupported media type")
	ErrMediaTooLarge           = errors.New("media exceeds size limit")
	ErrForbidden               = errors.New("not the owner of this collection")
	ErrPaymentVerification     = errors.New("payment event verification failed")
)

// ValidationError reports a single invalid input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// OrderError carries the operation and order that failed.
type OrderError struct {
	Op          string
	OrderNumber string
	Err         error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order %s: %s: %v", e.OrderNumber, e.Op, e.Err)
}

func (e *OrderError) Unwrap() error { return e.Err }

// PaymentError wraps failures while applying a payment provider event.
type PaymentError struct {
	EventID string
	Type    string
	Err     error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment event %s (%s): %v", e.EventID, e.Type, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }
