package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

const maxWebhookBytes = 512 << 10

type CheckoutHandler struct {
	checkout interfaces.CheckoutService
	webhooks interfaces.WebhookService
	logger   logger.Logger
}

func NewCheckoutHandler(checkout interfaces.CheckoutService, webhooks interfaces.WebhookService, logger logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		webhooks: webhooks,
		logger:   logger,
	}
}

type CheckoutRequest struct {
	Plan  string `json:"plan"`
	Email string `json:"email,omitempty"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.checkout.Start(r.Context(), domain.Plan(strings.TrimSpace(req.Plan)), req.Email)
	if err != nil {
		respondServiceError(w, r, h.logger, "checkout_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutResponse{URL: session.URL, SessionID: session.ID})
}

// Webhook receives Stripe events. Failures other than a bad signature answer
// 500 so Stripe redelivers.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Payload too large", http.StatusRequestEntityTooLarge, nil)
			return
		}
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.webhooks.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"), clientIP(r)); err != nil {
		respondServiceError(w, r, h.logger, "webhook_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
