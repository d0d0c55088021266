package postgres

import (
	"context"
	"fmt"
)

type webhookRepository struct {
	db Querier
}

func (r *webhookRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO processed_webhook_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *webhookRepository) Seen(ctx context.Context, eventID string) (bool, error) {
	var seen bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM processed_webhook_events WHERE event_id = $1)`, eventID).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("failed to check webhook event: %w", err)
	}
	return seen, nil
}
