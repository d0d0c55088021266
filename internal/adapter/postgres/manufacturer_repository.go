package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

type manufacturerRepository struct {
	db Querier
}

const batchColumns = `id, batch_number, quantity, status, notes, created_at, updated_at`

func scanBatch(row Row) (*domain.ManufacturerOrder, error) {
	var m domain.ManufacturerOrder
	if err := row.Scan(&m.ID, &m.BatchNumber, &m.Quantity, &m.Status, &m.Notes, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *manufacturerRepository) Create(ctx context.Context, m *domain.ManufacturerOrder) error {
	query := `
		INSERT INTO manufacturer_orders (batch_number, quantity, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query, m.BatchNumber, m.Quantity, m.Status, m.Notes, m.CreatedAt, m.UpdatedAt).Scan(&m.ID); err != nil {
		return fmt.Errorf("failed to insert manufacturer order: %w", err)
	}
	return nil
}

func (r *manufacturerRepository) FindByBatch(ctx context.Context, batchNumber string) (*domain.ManufacturerOrder, error) {
	query := `SELECT ` + batchColumns + ` FROM manufacturer_orders WHERE batch_number = $1`
	m, err := scanBatch(r.db.QueryRow(ctx, query, batchNumber))
	if err != nil {
		return nil, notFound(err, "manufacturer order")
	}
	return m, nil
}

func (r *manufacturerRepository) List(ctx context.Context, limit, offset int) ([]*domain.ManufacturerOrder, error) {
	query := `SELECT ` + batchColumns + ` FROM manufacturer_orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list manufacturer orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.ManufacturerOrder
	for rows.Next() {
		m, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manufacturer order: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *manufacturerRepository) Update(ctx context.Context, m *domain.ManufacturerOrder) error {
	query := `UPDATE manufacturer_orders SET status = $1, notes = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.Exec(ctx, query, m.Status, m.Notes, m.UpdatedAt, m.ID); err != nil {
		return fmt.Errorf("failed to update manufacturer order: %w", err)
	}
	return nil
}

// GenerateBatchNumber numbers batches per UTC day: MFG-20261015-001.
func (r *manufacturerRepository) GenerateBatchNumber(ctx context.Context) (string, error) {
	day := time.Now().UTC().Format("20060102")
	prefix := "MFG-" + day + "-"

	n, err := nextDailyCounter(ctx, r.db, "batch", day,
		`SELECT COUNT(*) FROM manufacturer_orders WHERE batch_number LIKE $3`, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("failed to number manufacturer order: %w", err)
	}
	return fmt.Sprintf("%s%03d", prefix, n), nil
}
