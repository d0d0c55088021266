package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
)

// MemoryHandler serves slug lookup, claiming and the memory pages behind
// claimed slugs. The owner is identified by the X-Owner-Email header.
type MemoryHandler struct {
	slugs     interfaces.SlugService
	memories  interfaces.MemoryService
	security  interfaces.SecurityService
	maxUpload int64
	logger    logger.Logger
}

func NewMemoryHandler(
	slugs interfaces.SlugService,
	memories interfaces.MemoryService,
	security interfaces.SecurityService,
	maxUpload int64,
	logger logger.Logger,
) *MemoryHandler {
	return &MemoryHandler{
		slugs:     slugs,
		memories:  memories,
		security:  security,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

type ClaimRequest struct {
	Email string `json:"email"`
	Title string `json:"title,omitempty"`
}

type UpdateCollectionRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Visibility  *string `json:"visibility,omitempty"`
}

type StoryRequest struct {
	Caption string `json:"caption,omitempty"`
	Body    string `json:"body"`
}

func (h *MemoryHandler) LookupSlug(w http.ResponseWriter, r *http.Request) {
	slug, err := h.slugs.Lookup(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.fail(w, r, "slug_lookup_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toSlugResponse(slug))
}

func (h *MemoryHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.slugs.Claim(r.Context(), interfaces.ClaimCommand{
		Slug:       r.PathValue("slug"),
		OwnerEmail: req.Email,
		Title:      req.Title,
	})
	if err != nil {
		h.fail(w, r, "slug_claim_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, toCollectionResponse(c))
}

func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.memories.GetPublic(r.Context(), r.PathValue("slug"), r.Header.Get(ownerHeader))
	if err != nil {
		h.fail(w, r, "memory_get_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toCollectionResponse(c))
}

func (h *MemoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCollectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := interfaces.UpdateCollectionCommand{
		Slug:        r.PathValue("slug"),
		OwnerEmail:  r.Header.Get(ownerHeader),
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Visibility != nil {
		v := domain.Visibility(strings.TrimSpace(*req.Visibility))
		cmd.Visibility = &v
	}

	c, err := h.memories.Update(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, "memory_update_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, toCollectionResponse(c))
}

// Upload accepts multipart/form-data with a file part and kind/caption
// fields.
func (h *MemoryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, domain.ErrMediaTooLarge.Error(), http.StatusRequestEntityTooLarge, nil)
			return
		}
		respondError(w, "Invalid multipart form", http.StatusBadRequest, nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []domain.ValidationError{
			{Field: "file", Message: "is required"},
		})
		return
	}
	defer file.Close()

	contentType, err := sniffContentType(file)
	if err != nil {
		respondError(w, "Invalid file", http.StatusBadRequest, nil)
		return
	}

	item, err := h.memories.UploadMedia(r.Context(), interfaces.UploadMediaCommand{
		Slug:        r.PathValue("slug"),
		OwnerEmail:  r.Header.Get(ownerHeader),
		Kind:        domain.MediaKind(r.FormValue("kind")),
		ContentType: contentType,
		Size:        header.Size,
		Caption:     r.FormValue("caption"),
		Body:        file,
	})
	if err != nil {
		h.fail(w, r, "media_upload_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, toMediaResponse(item))
}

func (h *MemoryHandler) AddStory(w http.ResponseWriter, r *http.Request) {
	var req StoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.memories.AddStory(r.Context(), interfaces.AddStoryCommand{
		Slug:       r.PathValue("slug"),
		OwnerEmail: r.Header.Get(ownerHeader),
		Caption:    req.Caption,
		Body:       req.Body,
	})
	if err != nil {
		h.fail(w, r, "story_add_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, toMediaResponse(item))
}

func (h *MemoryHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, "Not found", http.StatusNotFound, nil)
		return
	}

	if err := h.memories.DeleteMedia(r.Context(), r.PathValue("slug"), r.Header.Get(ownerHeader), id); err != nil {
		h.fail(w, r, "media_delete_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sniffContentType detects the media type from the file's leading bytes
// and rewinds it. The client's declared type is ignored.
func sniffContentType(f io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	ct, _, _ := strings.Cut(mt.String(), ";")
	return ct, nil
}

// fail records malformed slugs as probes before mapping the error.
func (h *MemoryHandler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	if errors.Is(err, domain.ErrInvalidSlug) {
		h.security.Record(r.Context(), domain.SecurityEvent{
			Type:     domain.EventInvalidSlugProbe,
			Severity: domain.SeverityLow,
			Source:   clientIP(r),
			Details:  map[string]any{"path": r.URL.Path},
		})
	}
	respondServiceError(w, r, h.logger, action, err)
}
