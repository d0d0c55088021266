package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type store struct {
	db   DB
	q    Querier
	inTx bool
}

// NewStore returns a Store backed by db.
func NewStore(db DB) interfaces.Store {
	return &store{db: db, q: db}
}

func (s *store) Orders() interfaces.OrderRepository { return &orderRepository{db: s.q} }
func (s *store) Slugs() interfaces.SlugRepository   { return &slugRepository{db: s.q, lock: s.inTx} }
func (s *store) Memories() interfaces.MemoryRepository {
	return &memoryRepository{db: s.q}
}
func (s *store) Subscriptions() interfaces.SubscriptionRepository {
	return &subscriptionRepository{db: s.q}
}
func (s *store) Security() interfaces.SecurityRepository { return &securityRepository{db: s.q} }
func (s *store) Manufacturer() interfaces.ManufacturerRepository {
	return &manufacturerRepository{db: s.q}
}
func (s *store) Notifications() interfaces.NotificationRepository {
	return &notificationRepository{db: s.q}
}
func (s *store) Webhooks() interfaces.WebhookEventRepository { return &webhookRepository{db: s.q} }

// InTx runs fn inside a transaction. Nested calls reuse the outer one.
func (s *store) InTx(ctx context.Context, fn func(tx interfaces.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&store{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
