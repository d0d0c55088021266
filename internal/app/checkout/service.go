package checkout

import (
	"context"
	"net/mail"
	"strings"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type Service struct {
	gateway interfaces.PaymentGateway
	prices  map[string]string
	logger  logger.Logger
}

// NewService takes the plan to Stripe price id mapping from config.
func NewService(gateway interfaces.PaymentGateway, prices map[string]string, logger logger.Logger) *Service {
	return &Service{gateway: gateway, prices: prices, logger: logger}
}

func (s *Service) Start(ctx context.Context, plan domain.Plan, email string) (*interfaces.CheckoutSession, error) {
	if !plan.Valid() {
		return nil, domain.ValidationError{Field: "plan", Message: "must be basic, premium or lifetime"}
	}
	price, ok := s.prices[string(plan)]
	if !ok || price == "" {
		return nil, domain.ValidationError{Field: "plan", Message: "is not available for purchase"}
	}

	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.ValidationError{Field: "email", Message: "is invalid"}
		}
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, interfaces.CheckoutRequest{
		Plan:    plan,
		PriceID: price,
		Email:   strings.ToLower(email),
	})
	if err != nil {
		s.logger.Error("checkout_failed", "Failed to create checkout session", logger.RequestID(ctx),
			map[string]any{"plan": plan}, err)
		return nil, err
	}

	s.logger.Info("checkout_started", "Checkout session created", logger.RequestID(ctx),
		map[string]any{"plan": plan, "session_id": sess.ID})
	return sess, nil
}
