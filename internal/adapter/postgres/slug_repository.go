package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

type slugRepository struct {
	db   Querier
	lock bool
}

const slugColumns = `slug, status, order_id, owner_email, manufacturer_order_id, created_at, claimed_at`

func scanSlug(row Row) (*domain.QRSlug, error) {
	var s domain.QRSlug
	if err := row.Scan(&s.Slug, &s.Status, &s.OrderID, &s.OwnerEmail, &s.ManufacturerOrderID, &s.CreatedAt, &s.ClaimedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert skips slugs that already exist and returns how many were added.
func (r *slugRepository) Insert(ctx context.Context, slugs []*domain.QRSlug) (int, error) {
	query := `
		INSERT INTO qr_slugs (slug, status, order_id, owner_email, manufacturer_order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO NOTHING
	`
	inserted := 0
	for _, s := range slugs {
		tag, err := r.db.Exec(ctx, query, s.Slug, s.Status, s.OrderID, s.OwnerEmail, s.ManufacturerOrderID, s.CreatedAt)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert slug: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Find locks the row when called inside a transaction.
func (r *slugRepository) Find(ctx context.Context, slug string) (*domain.QRSlug, error) {
	query := `SELECT ` + slugColumns + ` FROM qr_slugs WHERE slug = $1`
	if r.lock {
		query += ` FOR UPDATE`
	}
	s, err := scanSlug(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, notFound(err, "qr slug")
	}
	return s, nil
}

func (r *slugRepository) Update(ctx context.Context, s *domain.QRSlug) error {
	query := `
		UPDATE qr_slugs
		SET status = $1, order_id = $2, owner_email = $3, manufacturer_order_id = $4, claimed_at = $5
		WHERE slug = $6
	`
	tag, err := r.db.Exec(ctx, query, s.Status, s.OrderID, s.OwnerEmail, s.ManufacturerOrderID, s.ClaimedAt, s.Slug)
	if err != nil {
		return fmt.Errorf("failed to update slug: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("qr slug %s: %w", s.Slug, domain.ErrNotFound)
	}
	return nil
}

func (r *slugRepository) ListAvailable(ctx context.Context, limit int) ([]*domain.QRSlug, error) {
	query := `SELECT ` + slugColumns + ` FROM qr_slugs WHERE status = $1 ORDER BY created_at, slug LIMIT $2`
	rows, err := r.db.Query(ctx, query, domain.SlugAvailable, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}
	defer rows.Close()

	var slugs []*domain.QRSlug
	for rows.Next() {
		s, err := scanSlug(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

func (r *slugRepository) ListByBatch(ctx context.Context, manufacturerOrderID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT slug FROM qr_slugs WHERE manufacturer_order_id = $1 ORDER BY slug`, manufacturerOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

// ReleaseByOwner returns the owner's claimed slugs to the available pool.
func (r *slugRepository) ReleaseByOwner(ctx context.Context, ownerEmail string) (int, error) {
	query := `
		UPDATE qr_slugs
		SET status = $1, owner_email = NULL, order_id = NULL, claimed_at = NULL
		WHERE owner_email = $2
	`
	tag, err := r.db.Exec(ctx, query, domain.SlugAvailable, ownerEmail)
	if err != nil {
		return 0, fmt.Errorf("failed to release slugs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
