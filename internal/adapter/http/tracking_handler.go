package http

import (
	"net/http"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

// Track answers GET /api/orders/{number}/tracking?email=.
func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Track(r.Context(), r.PathValue("number"), r.URL.Query().Get("email"))
	if err != nil {
		respondServiceError(w, r, h.logger, "tracking_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toTrackingResponse(view))
}
