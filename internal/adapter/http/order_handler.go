package http

import (
	"net/http"
	"strings"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

// OrderHandler serves the admin order endpoints.
type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type UpdateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

type PackRequest struct {
	Slug string `json:"slug"`
}

type ShipRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		filter interfaces.OrderFilter
		errs   []domain.ValidationError
	)

	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			errs = append(errs, domain.ValidationError{Field: "status", Message: "unknown order status"})
		}
		filter.Status = &st
	}
	limit, verr := queryInt(r, "limit", 0)
	if verr != nil {
		errs = append(errs, *verr)
	}
	offset, verr := queryInt(r, "offset", 0)
	if verr != nil {
		errs = append(errs, *verr)
	}
	if len(errs) > 0 {
		respondError(w, "Validation failed", http.StatusBadRequest, errs)
		return
	}
	filter.Limit, filter.Offset = limit, offset

	orders, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, h.logger, "order_list_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), r.PathValue("number"))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_get_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), r.PathValue("number"))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_history_failed", err)
		return
	}

	resp := make([]StatusLogResponse, len(history))
	for i, l := range history {
		resp[i] = StatusLogResponse{
			Status:    l.Status,
			ChangedBy: l.ChangedBy,
			Timestamp: l.ChangedAt,
			Notes:     l.Notes,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, ok := domain.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{
			{Field: "status", Message: "unknown order status"},
		})
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), interfaces.UpdateStatusCommand{
		OrderNumber: r.PathValue("number"),
		Status:      status,
		Actor:       actor(r),
		Notes:       req.Notes,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "order_status_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) Pack(w http.ResponseWriter, r *http.Request) {
	var req PackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.Pack(r.Context(), r.PathValue("number"), req.Slug, actor(r))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_pack_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	var req ShipRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.Ship(r.Context(), r.PathValue("number"), req.TrackingNumber, actor(r))
	if err != nil {
		respondServiceError(w, r, h.logger, "order_ship_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}
