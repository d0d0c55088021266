package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/config"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/qrslug"
)

type Service struct {
	store   interfaces.Store
	storage interfaces.MediaStorage
	limits  config.StorageConfig
	logger  logger.Logger
}

func NewService(store interfaces.Store, storage interfaces.MediaStorage, limits config.StorageConfig, logger logger.Logger) *Service {
	return &Service{
		store:   store,
		storage: storage,
		limits:  limits,
		logger:  logger,
	}
}

// StorageKey is where an uploaded media file lives in the bucket.
func StorageKey(collectionID, mediaID uuid.UUID, ext string) string {
	return fmt.Sprintf("collections/%s/%s%s", collectionID, mediaID, ext)
}

// GetPublic returns the collection with its items. Private collections are
// only visible to their owner; everyone else gets ErrNotFound.
func (s *Service) GetPublic(ctx context.Context, slug, viewerEmail string) (*domain.MemoryCollection, error) {
	c, err := s.collection(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c.Visibility != domain.VisibilityPublic && !c.OwnedBy(normalizeEmail(viewerEmail)) {
		return nil, fmt.Errorf("memory collection: %w", domain.ErrNotFound)
	}

	items, err := s.store.Memories().ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].StorageKey == nil {
			continue
		}
		url, err := s.storage.PresignGet(ctx, *items[i].StorageKey, s.limits.URLExpiry)
		if err != nil {
			s.logger.Error("presign_failed", "Failed to presign media URL", logger.RequestID(ctx),
				map[string]any{"media_id": items[i].ID}, err)
			continue
		}
		items[i].URL = url
	}
	c.Items = items

	return c, nil
}

func (s *Service) Update(ctx context.Context, cmd interfaces.UpdateCollectionCommand) (*domain.MemoryCollection, error) {
	c, err := s.owned(ctx, cmd.Slug, cmd.OwnerEmail)
	if err != nil {
		return nil, err
	}

	if cmd.Title != nil {
		title := strings.TrimSpace(*cmd.Title)
		if title == "" || len(title) > 200 {
			return nil, domain.ValidationError{Field: "title", Message: "must be 1 to 200 characters"}
		}
		c.Title = title
	}
	if cmd.Description != nil {
		if utf8.RuneCountInString(*cmd.Description) > 2000 {
			return nil, domain.ValidationError{Field: "description", Message: "must not exceed 2000 characters"}
		}
		c.Description = *cmd.Description
	}
	if cmd.Visibility != nil {
		switch *cmd.Visibility {
		case domain.VisibilityPublic, domain.VisibilityPrivate:
			c.Visibility = *cmd.Visibility
		default:
			return nil, domain.ValidationError{Field: "visibility", Message: "must be public or private"}
		}
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.store.Memories().UpdateCollection(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UploadMedia stores a photo or video and records it on the collection. If
// the row cannot be written the uploaded object is removed again.
func (s *Service) UploadMedia(ctx context.Context, cmd interfaces.UploadMediaCommand) (*domain.MediaItem, error) {
	rid := logger.RequestID(ctx)

	ext, err := domain.MediaExtension(cmd.Kind, cmd.ContentType)
	if err != nil {
		return nil, err
	}

	limit := s.limits.MaxPhotoBytes
	if cmd.Kind == domain.MediaVideo {
		limit = s.limits.MaxVideoBytes
	}
	if cmd.Size <= 0 {
		return nil, domain.ValidationError{Field: "file", Message: "is empty"}
	}
	if cmd.Size > limit {
		return nil, domain.ErrMediaTooLarge
	}

	c, err := s.owned(ctx, cmd.Slug, cmd.OwnerEmail)
	if err != nil {
		return nil, err
	}

	item := &domain.MediaItem{
		ID:           uuid.New(),
		CollectionID: c.ID,
		Kind:         cmd.Kind,
		SizeBytes:    cmd.Size,
		Caption:      strings.TrimSpace(cmd.Caption),
		CreatedAt:    time.Now().UTC(),
	}
	key := StorageKey(c.ID, item.ID, ext)
	contentType := cmd.ContentType
	item.StorageKey = &key
	item.ContentType = &contentType

	if err := s.storage.Put(ctx, key, cmd.ContentType, cmd.Size, cmd.Body); err != nil {
		s.logger.Error("media_upload_failed", "Failed to store media", rid, map[string]any{"key": key}, err)
		return nil, err
	}

	if err := s.store.Memories().AddItem(ctx, item); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			err = errors.Join(err, delErr)
		}
		s.logger.Error("media_insert_failed", "Failed to record media, object removed", rid, map[string]any{"key": key}, err)
		return nil, err
	}

	s.logger.Info("media_uploaded", "Media uploaded", rid, map[string]any{
		"slug":     cmd.Slug,
		"media_id": item.ID,
		"kind":     item.Kind,
		"size":     item.SizeBytes,
	})
	return item, nil
}

func (s *Service) AddStory(ctx context.Context, cmd interfaces.AddStoryCommand) (*domain.MediaItem, error) {
	body := strings.TrimSpace(cmd.Body)
	if body == "" {
		return nil, domain.ValidationError{Field: "body", Message: "is required"}
	}
	if utf8.RuneCountInString(body) > domain.MaxStoryLength {
		return nil, domain.ValidationError{Field: "body", Message: fmt.Sprintf("must not exceed %d characters", domain.MaxStoryLength)}
	}

	c, err := s.owned(ctx, cmd.Slug, cmd.OwnerEmail)
	if err != nil {
		return nil, err
	}

	item := &domain.MediaItem{
		ID:           uuid.New(),
		CollectionID: c.ID,
		Kind:         domain.MediaStory,
		SizeBytes:    int64(len(body)),
		Caption:      strings.TrimSpace(cmd.Caption),
		Body:         &body,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Memories().AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMedia removes the row first, then the stored object.
func (s *Service) DeleteMedia(ctx context.Context, slug, ownerEmail string, mediaID uuid.UUID) error {
	c, err := s.owned(ctx, slug, ownerEmail)
	if err != nil {
		return err
	}

	item, err := s.store.Memories().FindItem(ctx, mediaID)
	if err != nil {
		return err
	}
	if item.CollectionID != c.ID {
		return fmt.Errorf("media item: %w", domain.ErrNotFound)
	}

	if err := s.store.Memories().DeleteItem(ctx, mediaID); err != nil {
		return err
	}

	if item.StorageKey != nil {
		if err := s.storage.Delete(ctx, *item.StorageKey); err != nil {
			s.logger.Error("media_object_orphaned", "Media row deleted but object removal failed", logger.RequestID(ctx),
				map[string]any{"key": *item.StorageKey}, err)
		}
	}
	return nil
}

func (s *Service) collection(ctx context.Context, slug string) (*domain.MemoryCollection, error) {
	if err := qrslug.Validate(slug); err != nil {
		return nil, err
	}
	return s.store.Memories().FindCollectionBySlug(ctx, slug)
}

func (s *Service) owned(ctx context.Context, slug, ownerEmail string) (*domain.MemoryCollection, error) {
	c, err := s.collection(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(normalizeEmail(ownerEmail)) {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
