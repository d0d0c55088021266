package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

// AdminHandler serves slug inventory, security reporting and manufacturer
// batches under /api/admin.
type AdminHandler struct {
	slugs        interfaces.SlugService
	security     interfaces.SecurityService
	manufacturer interfaces.ManufacturerService
	logger       logger.Logger
}

func NewAdminHandler(
	slugs interfaces.SlugService,
	security interfaces.SecurityService,
	manufacturer interfaces.ManufacturerService,
	logger logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		slugs:        slugs,
		security:     security,
		manufacturer: manufacturer,
		logger:       logger,
	}
}

type SeedRequest struct {
	Count int `json:"count"`
}

type SeedResponse struct {
	Inserted int `json:"inserted"`
}

type CreateBatchRequest struct {
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

type AdvanceBatchRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) AvailableSlugs(w http.ResponseWriter, r *http.Request) {
	limit, verr := queryInt(r, "limit", 0)
	if verr != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{*verr})
		return
	}

	slugs, err := h.slugs.Available(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, h.logger, "slug_list_failed", err)
		return
	}

	resp := make([]SlugResponse, len(slugs))
	for i, s := range slugs {
		resp[i] = toSlugResponse(s)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) SeedSlugs(w http.ResponseWriter, r *http.Request) {
	var req SeedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.slugs.Seed(r.Context(), req.Count)
	if err != nil {
		respondServiceError(w, r, h.logger, "slug_seed_failed", err)
		return
	}
	h.security.Audit(r.Context(), domain.AuditEntry{
		Actor:      actor(r),
		Action:     "slugs_seeded",
		EntityType: "qr_slug",
		Details:    map[string]any{"requested": req.Count, "inserted": n},
	})
	respondJSON(w, http.StatusCreated, SeedResponse{Inserted: n})
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var window time.Duration
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{
				{Field: "window", Message: "must be a positive duration such as 24h"},
			})
			return
		}
		window = d
	}
	recent, verr := queryInt(r, "recent", 0)
	if verr != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{*verr})
		return
	}

	summary, err := h.security.Dashboard(r.Context(), window, recent)
	if err != nil {
		respondServiceError(w, r, h.logger, "security_dashboard_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toDashboardResponse(summary))
}

func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	limit, verr := queryInt(r, "limit", 0)
	if verr != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{*verr})
		return
	}
	offset, verr := queryInt(r, "offset", 0)
	if verr != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{*verr})
		return
	}

	entries, err := h.security.AuditLog(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, r, h.logger, "audit_list_failed", err)
		return
	}

	resp := make([]AuditResponse, len(entries))
	for i, e := range entries {
		resp[i] = AuditResponse{
			Actor:      e.Actor,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	batch, err := h.manufacturer.CreateBatch(r.Context(), req.Quantity, req.Notes, actor(r))
	if err != nil {
		respondServiceError(w, r, h.logger, "batch_create_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, toBatchResponse(batch))
}

func (h *AdminHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	limit, verr := queryInt(r, "limit", 0)
	if verr != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{*verr})
		return
	}
	offset, verr := queryInt(r, "offset", 0)
	if verr != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{*verr})
		return
	}

	batches, err := h.manufacturer.List(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, r, h.logger, "batch_list_failed", err)
		return
	}

	resp := make([]BatchResponse, len(batches))
	for i, b := range batches {
		resp[i] = toBatchResponse(b)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.manufacturer.Get(r.Context(), r.PathValue("batch"))
	if err != nil {
		respondServiceError(w, r, h.logger, "batch_get_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toBatchResponse(batch))
}

func (h *AdminHandler) AdvanceBatch(w http.ResponseWriter, r *http.Request) {
	var req AdvanceBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	batch, err := h.manufacturer.Advance(r.Context(), r.PathValue("batch"),
		domain.BatchStatus(strings.TrimSpace(req.Status)), actor(r))
	if err != nil {
		respondServiceError(w, r, h.logger, "batch_advance_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toBatchResponse(batch))
}
