package domain

import (
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
	MediaStory MediaKind = "story"
)

const MaxStoryLength = 10000

var allowedContentTypes = map[MediaKind]map[string]string{
	MediaPhoto: {
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/heic": ".heic",
	},
	MediaVideo: {
		"video/mp4":       ".mp4",
		"video/quicktime": ".mov",
		"video/webm":      ".webm",
	},
}

// MediaExtension returns the file extension stored for the content type, or
// ErrInvalidMediaType when the kind does not accept it.
func MediaExtension(kind MediaKind, contentType string) (string, error) {
	ext, ok := allowedContentTypes[kind][contentType]
	if !ok {
		return "", ErrInvalidMediaType
	}
	return ext, nil
}

// MemoryCollection is the shareable page behind a claimed slug.
type MemoryCollection struct {
	ID          uuid.UUID
	Slug        string
	OwnerEmail  string
	Title       string
	Description string
	Visibility  Visibility
	Items       []MediaItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *MemoryCollection) OwnedBy(email string) bool {
	return c.OwnerEmail != "" && c.OwnerEmail == email
}

type MediaItem struct {
	ID           uuid.UUID
	CollectionID uuid.UUID
	Kind         MediaKind
	StorageKey   *string
	ContentType  *string
	SizeBytes    int64
	Caption      string
	Body         *string
	URL          string
	CreatedAt    time.Time
}
