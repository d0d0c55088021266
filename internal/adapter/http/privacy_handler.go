package http

import (
	"net/http"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type PrivacyHandler struct {
	service interfaces.PrivacyService
	logger  logger.Logger
}

func NewPrivacyHandler(service interfaces.PrivacyService, logger logger.Logger) *PrivacyHandler {
	return &PrivacyHandler{
		service: service,
		logger:  logger,
	}
}

type DeleteDataRequest struct {
	Email string `json:"email"`
}

func (h *PrivacyHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.Export(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		respondServiceError(w, r, h.logger, "privacy_export_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toExportResponse(export))
}

func (h *PrivacyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteDataRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.service.Delete(r.Context(), req.Email, "data_subject")
	if err != nil {
		respondServiceError(w, r, h.logger, "privacy_delete_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
