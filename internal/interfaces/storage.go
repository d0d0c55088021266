package interfaces

import (
	"context"
	"io"
	"time"
)

// MediaStorage stores uploaded photos and videos.
type MediaStorage interface {
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
