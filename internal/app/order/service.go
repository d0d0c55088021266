package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/qrslug"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	webhookActor     = "stripe_webhook"
)

type Service struct {
	store     interfaces.Store
	publisher interfaces.MessagePublisher
	logger    logger.Logger
}

func NewService(store interfaces.Store, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateFromCheckout records the order for a completed checkout session. A
// session that already has an order returns that order unchanged.
func (s *Service) CreateFromCheckout(ctx context.Context, c interfaces.CheckoutCompleted) (*domain.Order, error) {
	rid := logger.RequestID(ctx)

	existing, err := s.store.Orders().FindBySessionID(ctx, c.SessionID)
	if err == nil {
		s.logger.Debug("checkout_duplicate", "Order already exists for session", rid,
			map[string]any{"order_number": existing.Number, "session_id": c.SessionID})
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	order, err := domain.NewOrder(c.Customer, c.Plan, c.Amounts, c.Address, c.SessionID)
	if err != nil {
		s.logger.Error("validation_failed", "Checkout session failed order validation", rid,
			map[string]any{"session_id": c.SessionID}, err)
		return nil, &domain.OrderError{Op: "create", Err: err}
	}
	if c.PaymentIntentID != "" {
		pi := c.PaymentIntentID
		order.StripePaymentIntentID = &pi
	}
	if err := order.TransitionTo(domain.StatusPaid); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx interfaces.Store) error {
		number, err := tx.Orders().GenerateOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}
		order.Number = number

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		return tx.Orders().LogStatus(ctx, order.ID, order.Status, webhookActor, nil)
	})
	if err != nil {
		// A concurrent delivery of the same session may have won the insert.
		if existing, findErr := s.store.Orders().FindBySessionID(ctx, c.SessionID); findErr == nil {
			return existing, nil
		}
		s.logger.Error("db_transaction_failed", "Failed to create order", rid, map[string]any{"session_id": c.SessionID}, err)
		return nil, err
	}

	s.logger.Info("order_created", "Order created from checkout", rid, map[string]any{
		"order_number": order.Number,
		"plan":         order.Plan,
		"total":        order.Amounts.Total,
	})

	if err := s.publisher.PublishOrderEvent(ctx, interfaces.OrderEventMessage{
		Event:       "created",
		OrderNumber: order.Number,
		Plan:        order.Plan,
		Total:       order.Amounts.Total,
		Currency:    order.Amounts.Currency,
		Timestamp:   time.Now().UTC(),
	}); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish order event", rid,
			map[string]any{"order_number": order.Number}, err)
	}
	s.notify(ctx, order, domain.StatusPending, webhookActor)

	return order, nil
}

func (s *Service) Get(ctx context.Context, number string) (*domain.Order, error) {
	return s.store.Orders().FindByNumber(ctx, number)
}

func (s *Service) List(ctx context.Context, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.Orders().List(ctx, filter)
}

func (s *Service) History(ctx context.Context, number string) ([]*domain.StatusLog, error) {
	order, err := s.store.Orders().FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.store.Orders().GetStatusHistory(ctx, order.ID)
}

func (s *Service) UpdateStatus(ctx context.Context, cmd interfaces.UpdateStatusCommand) (*domain.Order, error) {
	return s.transition(ctx, cmd.OrderNumber, cmd.Status, cmd.Actor, cmd.Notes, "order_status_updated", nil)
}

// Pack reserves the slug for the order and marks it packed. The slug
// reservation, order update, status log and audit row commit together.
func (s *Service) Pack(ctx context.Context, number, slug, actor string) (*domain.Order, error) {
	slug = strings.TrimSpace(slug)
	if err := qrslug.Validate(slug); err != nil {
		return nil, err
	}

	return s.transition(ctx, number, domain.StatusPacked, actor, nil, "order_packed",
		func(tx interfaces.Store, order *domain.Order) error {
			qr, err := tx.Slugs().Find(ctx, slug)
			if err != nil {
				return err
			}
			if err := qr.ReserveFor(order.ID); err != nil {
				return err
			}
			if err := tx.Slugs().Update(ctx, qr); err != nil {
				return err
			}
			order.QRSlug = &qr.Slug
			return nil
		})
}

func (s *Service) Ship(ctx context.Context, number, trackingNumber, actor string) (*domain.Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, domain.ValidationError{Field: "tracking_number", Message: "is required"}
	}

	return s.transition(ctx, number, domain.StatusShipped, actor, nil, "order_shipped",
		func(_ interfaces.Store, order *domain.Order) error {
			order.TrackingNumber = &trackingNumber
			return nil
		})
}

// Refund marks the order paid through paymentIntentID as refunded. An order
// that is already refunded is returned as is.
func (s *Service) Refund(ctx context.Context, paymentIntentID, actor string) (*domain.Order, error) {
	order, err := s.store.Orders().FindByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.StatusRefunded {
		return order, nil
	}
	return s.transition(ctx, order.Number, domain.StatusRefunded, actor, nil, "order_refunded", nil)
}

// transition applies a guarded status change. mutate runs inside the
// transaction before the order row is written.
func (s *Service) transition(
	ctx context.Context,
	number string,
	status domain.Status,
	actor string,
	notes *string,
	action string,
	mutate func(tx interfaces.Store, order *domain.Order) error,
) (*domain.Order, error) {
	rid := logger.RequestID(ctx)

	var (
		order *domain.Order
		old   domain.Status
	)
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		var err error
		order, err = tx.Orders().FindByNumber(ctx, number)
		if err != nil {
			return err
		}

		old = order.Status
		if err := order.TransitionTo(status); err != nil {
			return &domain.OrderError{Op: fmt.Sprintf("%s -> %s", old, status), OrderNumber: number, Err: err}
		}

		if mutate != nil {
			if err := mutate(tx, order); err != nil {
				return &domain.OrderError{Op: action, OrderNumber: number, Err: err}
			}
		}
		if status == domain.StatusCancelled && order.QRSlug != nil {
			if err := s.releaseSlug(ctx, tx, order); err != nil {
				return &domain.OrderError{Op: action, OrderNumber: number, Err: err}
			}
		}

		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}
		if err := tx.Orders().LogStatus(ctx, order.ID, status, actor, notes); err != nil {
			return err
		}

		details := map[string]any{"from": old, "to": status}
		if order.QRSlug != nil {
			details["qr_slug"] = *order.QRSlug
		}
		if order.TrackingNumber != nil {
			details["tracking_number"] = *order.TrackingNumber
		}
		return tx.Security().AddAudit(ctx, &domain.AuditEntry{
			Actor:      actor,
			Action:     action,
			EntityType: "order",
			EntityID:   number,
			Details:    details,
		})
	})
	if err != nil {
		s.logger.Error("order_transition_failed", "Failed to change order status", rid,
			map[string]any{"order_number": number, "status": status}, err)
		return nil, err
	}

	s.logger.Info(action, fmt.Sprintf("Order %s moved from %s to %s", number, old, status), rid,
		map[string]any{"order_number": number, "changed_by": actor})

	s.notify(ctx, order, old, actor)
	return order, nil
}

// releaseSlug returns the slug reserved for a cancelled order to the pool.
// The order keeps the slug it was packed with for the record.
func (s *Service) releaseSlug(ctx context.Context, tx interfaces.Store, order *domain.Order) error {
	qr, err := tx.Slugs().Find(ctx, *order.QRSlug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !qr.ReleaseFrom(order.ID) {
		return nil
	}
	if err := tx.Slugs().Update(ctx, qr); err != nil {
		return err
	}
	s.logger.Info("slug_released", "Slug returned to the pool", logger.RequestID(ctx),
		map[string]any{"order_number": order.Number, "qr_slug": qr.Slug})
	return nil
}

// notify publishes a status update. Publish failures never fail the caller.
func (s *Service) notify(ctx context.Context, order *domain.Order, old domain.Status, actor string) {
	msg := interfaces.StatusUpdateMessage{
		OrderNumber:    order.Number,
		CustomerName:   order.Customer.Name,
		CustomerEmail:  order.Customer.Email,
		OldStatus:      old,
		NewStatus:      order.Status,
		ChangedBy:      actor,
		TrackingNumber: order.TrackingNumber,
		QRSlug:         order.QRSlug,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", logger.RequestID(ctx),
			map[string]any{"order_number": order.Number}, err)
	}
}
