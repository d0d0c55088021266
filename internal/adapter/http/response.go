package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

type ErrorResponse struct {
	Error  string                   `json:"error"`
	Errors []domain.ValidationError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, message string, status int, validationErrors []domain.ValidationError) {
	respondJSON(w, status, ErrorResponse{Error: message, Errors: validationErrors})
}

// respondServiceError maps a service error onto a status code. Anything not
// recognised is logged and reported as 500 without its message.
func respondServiceError(w http.ResponseWriter, r *http.Request, lgr logger.Logger, action string, err error) {
	var ve domain.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{ve})
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, "Not found", http.StatusNotFound, nil)
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		respondError(w, err.Error(), http.StatusConflict, nil)
	case errors.Is(err, domain.ErrSlugUnavailable):
		respondError(w, domain.ErrSlugUnavailable.Error(), http.StatusConflict, nil)
	case errors.Is(err, domain.ErrInvalidSlug):
		respondError(w, domain.ErrInvalidSlug.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrInvalidMediaType):
		respondError(w, domain.ErrInvalidMediaType.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrMediaTooLarge):
		respondError(w, domain.ErrMediaTooLarge.Error(), http.StatusRequestEntityTooLarge, nil)
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, domain.ErrForbidden.Error(), http.StatusForbidden, nil)
	case errors.Is(err, domain.ErrPaymentVerification):
		respondError(w, "Invalid signature", http.StatusBadRequest, nil)
	default:
		lgr.Error(action, "Request failed", logger.RequestID(r.Context()), map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		}, err)
		respondError(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter. Missing values
// yield def.
func queryInt(r *http.Request, name string, def int) (int, *domain.ValidationError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a non-negative integer"}
	}
	return n, nil
}

const (
	ownerHeader = "X-Owner-Email"
	actorHeader = "X-Actor"
	adminActor  = "admin"
)

// actor names the operator behind an admin request for the audit log.
func actor(r *http.Request) string {
	if a := r.Header.Get(actorHeader); a != "" {
		return a
	}
	return adminActor
}
