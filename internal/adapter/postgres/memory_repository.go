package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

type memoryRepository struct {
	db Querier
}

const collectionColumns = `id, slug, owner_email, title, description, visibility, created_at, updated_at`

func scanCollection(row Row) (*domain.MemoryCollection, error) {
	var c domain.MemoryCollection
	if err := row.Scan(&c.ID, &c.Slug, &c.OwnerEmail, &c.Title, &c.Description, &c.Visibility, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *memoryRepository) CreateCollection(ctx context.Context, c *domain.MemoryCollection) error {
	query := `
		INSERT INTO memory_collections (id, slug, owner_email, title, description, visibility, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.Slug, c.OwnerEmail, c.Title, c.Description, c.Visibility, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	return nil
}

func (r *memoryRepository) FindCollectionBySlug(ctx context.Context, slug string) (*domain.MemoryCollection, error) {
	query := `SELECT ` + collectionColumns + ` FROM memory_collections WHERE slug = $1`
	c, err := scanCollection(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, notFound(err, "memory collection")
	}
	return c, nil
}

func (r *memoryRepository) ListCollectionsByOwner(ctx context.Context, ownerEmail string) ([]*domain.MemoryCollection, error) {
	query := `SELECT ` + collectionColumns + ` FROM memory_collections WHERE owner_email = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var out []*domain.MemoryCollection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *memoryRepository) UpdateCollection(ctx context.Context, c *domain.MemoryCollection) error {
	query := `
		UPDATE memory_collections
		SET title = $1, description = $2, visibility = $3, updated_at = $4
		WHERE id = $5
	`
	if _, err := r.db.Exec(ctx, query, c.Title, c.Description, c.Visibility, c.UpdatedAt, c.ID); err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	return nil
}

// DeleteCollection removes the collection; media rows cascade.
func (r *memoryRepository) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM memory_collections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

const itemColumns = `id, collection_id, kind, storage_key, content_type, size_bytes, caption, body, created_at`

func scanItem(row Row) (*domain.MediaItem, error) {
	var m domain.MediaItem
	if err := row.Scan(&m.ID, &m.CollectionID, &m.Kind, &m.StorageKey, &m.ContentType, &m.SizeBytes, &m.Caption, &m.Body, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memoryRepository) AddItem(ctx context.Context, item *domain.MediaItem) error {
	query := `
		INSERT INTO media_items (id, collection_id, kind, storage_key, content_type, size_bytes, caption, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		item.ID, item.CollectionID, item.Kind, item.StorageKey, item.ContentType,
		item.SizeBytes, item.Caption, item.Body, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert media item: %w", err)
	}
	return nil
}

func (r *memoryRepository) FindItem(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error) {
	query := `SELECT ` + itemColumns + ` FROM media_items WHERE id = $1`
	m, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "media item")
	}
	return m, nil
}

func (r *memoryRepository) ListItems(ctx context.Context, collectionID uuid.UUID) ([]domain.MediaItem, error) {
	query := `SELECT ` + itemColumns + ` FROM media_items WHERE collection_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media items: %w", err)
	}
	defer rows.Close()

	var items []domain.MediaItem
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media item: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (r *memoryRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("media item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
