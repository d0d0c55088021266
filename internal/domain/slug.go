package domain

import "time"

type SlugStatus string

const (
	SlugAvailable SlugStatus = "available"
	SlugReserved  SlugStatus = "reserved"
	SlugClaimed   SlugStatus = "claimed"
)

// QRSlug is the printed identifier on a tag.
type QRSlug struct {
	Slug                string
	Status              SlugStatus
	OrderID             *int64
	OwnerEmail          *string
	ManufacturerOrderID *int64
	CreatedAt           time.Time
	ClaimedAt           *time.Time
}

// ReserveFor reserves a slug for an order. Available slugs and slugs held
// by a manufacturer batch without an order can be taken; a slug already
// reserved for the same order is accepted unchanged.
func (s *QRSlug) ReserveFor(orderID int64) error {
	switch s.Status {
	case SlugAvailable:
		s.Status = SlugReserved
		s.OrderID = &orderID
		return nil
	case SlugReserved:
		if s.OrderID == nil && s.ManufacturerOrderID != nil {
			s.OrderID = &orderID
			return nil
		}
		if s.OrderID != nil && *s.OrderID == orderID {
			return nil
		}
	}
	return ErrSlugUnavailable
}

// ReleaseFrom undoes the reservation held by orderID. A slug that came from
// a manufacturer batch goes back to the batch hold, any other slug becomes
// available again. It reports whether anything changed.
func (s *QRSlug) ReleaseFrom(orderID int64) bool {
	if s.Status != SlugReserved || s.OrderID == nil || *s.OrderID != orderID {
		return false
	}
	s.OrderID = nil
	if s.ManufacturerOrderID == nil {
		s.Status = SlugAvailable
	}
	return true
}

// Claim hands the slug to its owner.
func (s *QRSlug) Claim(ownerEmail string) error {
	if s.Status == SlugClaimed {
		return ErrSlugUnavailable
	}
	now := time.Now().UTC()
	s.Status = SlugClaimed
	s.OwnerEmail = &ownerEmail
	s.ClaimedAt = &now
	return nil
}
