package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

type notificationRepository struct {
	db Querier
}

func (r *notificationRepository) Log(ctx context.Context, n *domain.NotificationLog) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO notification_log (order_number, recipient, template, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query, n.OrderNumber, n.Recipient, n.Template, n.Status, n.Error, n.CreatedAt).Scan(&n.ID); err != nil {
		return fmt.Errorf("failed to insert notification log: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, email string) ([]*domain.NotificationLog, error) {
	query := `
		SELECT id, order_number, recipient, template, status, error, created_at
		FROM notification_log
		WHERE recipient = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification log: %w", err)
	}
	defer rows.Close()

	var out []*domain.NotificationLog
	for rows.Next() {
		var n domain.NotificationLog
		if err := rows.Scan(&n.ID, &n.OrderNumber, &n.Recipient, &n.Template, &n.Status, &n.Error, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification log: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) DeleteByRecipient(ctx context.Context, email string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM notification_log WHERE recipient = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notification log: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
