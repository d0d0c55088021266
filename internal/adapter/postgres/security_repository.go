package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

type securityRepository struct {
	db Querier
}

func (r *securityRepository) RecordEvent(ctx context.Context, e *domain.SecurityEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO security_events (type, severity, source, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query, e.Type, e.Severity, e.Source, e.Details, e.CreatedAt).Scan(&e.ID); err != nil {
		return fmt.Errorf("failed to insert security event: %w", err)
	}
	return nil
}

func (r *securityRepository) ListEventsSince(ctx context.Context, since time.Time) ([]*domain.SecurityEvent, error) {
	query := `
		SELECT id, type, severity, source, details, created_at
		FROM security_events
		WHERE created_at >= $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}
	defer rows.Close()

	var events []*domain.SecurityEvent
	for rows.Next() {
		var e domain.SecurityEvent
		if err := rows.Scan(&e.ID, &e.Type, &e.Severity, &e.Source, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *securityRepository) AddAudit(ctx context.Context, a *domain.AuditEntry) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO audit_log (actor, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query, a.Actor, a.Action, a.EntityType, a.EntityID, a.Details, a.CreatedAt).Scan(&a.ID); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *securityRepository) ListAudit(ctx context.Context, limit, offset int) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, actor, action, entity_type, entity_id, details, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var a domain.AuditEntry
		if err := rows.Scan(&a.ID, &a.Actor, &a.Action, &a.EntityType, &a.EntityID, &a.Details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &a)
	}
	return entries, rows.Err()
}
