package tracking

import (
	"context"
	"net/mail"
	"strings"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type Service struct {
	store  interfaces.Store
	logger logger.Logger
}

func NewService(store interfaces.Store, logger logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Track returns the shipping view of an order for its customer. A wrong
// email is reported as not found so order numbers cannot be enumerated.
func (s *Service) Track(ctx context.Context, orderNumber, email string) (*interfaces.TrackingView, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ValidationError{Field: "email", Message: "must be a valid email address"}
	}

	order, err := s.store.Orders().FindByNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		return nil, err
	}
	if order.Customer.Email != email {
		s.logger.Debug("tracking_mismatch", "Tracking email does not match order", logger.RequestID(ctx),
			map[string]any{"order_number": order.Number})
		return nil, domain.ErrNotFound
	}

	history, err := s.store.Orders().GetStatusHistory(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	view := &interfaces.TrackingView{
		OrderNumber:    order.Number,
		Status:         order.Status,
		Plan:           order.Plan,
		TrackingNumber: order.TrackingNumber,
		UpdatedAt:      order.UpdatedAt,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
	}
	for _, h := range history {
		view.History = append(view.History, interfaces.TrackingStep{Status: h.Status, At: h.ChangedAt})
	}
	return view, nil
}
