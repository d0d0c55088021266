package security

import (
	"context"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

const (
	DefaultWindow = 24 * time.Hour
	DefaultRecent = 20
)

type Service struct {
	store  interfaces.Store
	logger logger.Logger
}

func NewService(store interfaces.Store, logger logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Record persists a security event. Failures are logged and swallowed so the
// request that triggered the event is never blocked by it.
func (s *Service) Record(ctx context.Context, event domain.SecurityEvent) {
	if event.Severity == "" {
		event.Severity = domain.SeverityLow
	}
	if err := s.store.Security().RecordEvent(ctx, &event); err != nil {
		s.logger.Error("security_event_failed", "Failed to record security event", logger.RequestID(ctx),
			map[string]any{"type": event.Type, "source": event.Source}, err)
		return
	}
	s.logger.Warn("security_event", string(event.Type), logger.RequestID(ctx),
		map[string]any{"severity": event.Severity, "source": event.Source})
}

func (s *Service) Audit(ctx context.Context, entry domain.AuditEntry) {
	if err := s.store.Security().AddAudit(ctx, &entry); err != nil {
		s.logger.Error("audit_failed", "Failed to write audit entry", logger.RequestID(ctx),
			map[string]any{"action": entry.Action, "entity_id": entry.EntityID}, err)
	}
}

func (s *Service) Dashboard(ctx context.Context, window time.Duration, recent int) (*domain.SecuritySummary, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	if recent <= 0 {
		recent = DefaultRecent
	}

	since := time.Now().UTC().Add(-window)
	events, err := s.store.Security().ListEventsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	summary := &domain.SecuritySummary{
		Since:      since,
		Total:      len(events),
		ByType:     map[domain.SecurityEventType]int{},
		BySeverity: map[domain.Severity]int{},
	}
	for _, e := range events {
		summary.ByType[e.Type]++
		summary.BySeverity[e.Severity]++
	}

	if len(events) > recent {
		events = events[:recent]
	}
	summary.Recent = events

	return summary, nil
}

func (s *Service) AuditLog(ctx context.Context, limit, offset int) ([]*domain.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Security().ListAudit(ctx, limit, offset)
}
