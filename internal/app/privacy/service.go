package privacy

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type Service struct {
	store   interfaces.Store
	storage interfaces.MediaStorage
	logger  logger.Logger
}

func NewService(store interfaces.Store, storage interfaces.MediaStorage, logger logger.Logger) *Service {
	return &Service{
		store:   store,
		storage: storage,
		logger:  logger,
	}
}

func normalize(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.ValidationError{Field: "email", Message: "is invalid"}
	}
	return email, nil
}

// Export gathers everything stored about email.
func (s *Service) Export(ctx context.Context, email string) (*interfaces.DataExport, error) {
	email, err := normalize(email)
	if err != nil {
		return nil, err
	}

	out := &interfaces.DataExport{Email: email, GeneratedAt: time.Now().UTC()}

	if out.Orders, err = s.store.Orders().FindByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to export orders: %w", err)
	}
	if out.Collections, err = s.store.Memories().ListCollectionsByOwner(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to export collections: %w", err)
	}
	for _, c := range out.Collections {
		if c.Items, err = s.store.Memories().ListItems(ctx, c.ID); err != nil {
			return nil, fmt.Errorf("failed to export media: %w", err)
		}
	}
	if out.Subscriptions, err = s.store.Subscriptions().FindByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to export subscriptions: %w", err)
	}
	if out.Notifications, err = s.store.Notifications().ListByRecipient(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to export notifications: %w", err)
	}

	s.logger.Info("privacy_export", "Personal data exported", logger.RequestID(ctx), map[string]any{
		"orders":      len(out.Orders),
		"collections": len(out.Collections),
	})
	return out, nil
}

// Delete erases personal data for email in one transaction: orders are
// anonymised but kept, collections and their media rows are removed,
// claimed slugs go back to the pool. Stored objects are removed after
// commit.
func (s *Service) Delete(ctx context.Context, email, actor string) (*interfaces.DeletionReport, error) {
	email, err := normalize(email)
	if err != nil {
		return nil, err
	}

	report := &interfaces.DeletionReport{}
	var keys []string

	err = s.store.InTx(ctx, func(tx interfaces.Store) error {
		orders, err := tx.Orders().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		for _, o := range orders {
			o.Anonymize()
			if err := tx.Orders().Update(ctx, o); err != nil {
				return err
			}
			report.OrdersAnonymized++
		}

		collections, err := tx.Memories().ListCollectionsByOwner(ctx, email)
		if err != nil {
			return err
		}
		for _, c := range collections {
			items, err := tx.Memories().ListItems(ctx, c.ID)
			if err != nil {
				return err
			}
			for _, item := range items {
				if item.StorageKey != nil {
					keys = append(keys, *item.StorageKey)
				}
			}
			report.MediaDeleted += len(items)

			if err := tx.Memories().DeleteCollection(ctx, c.ID); err != nil {
				return err
			}
			report.CollectionsDeleted++
		}

		if report.SlugsReleased, err = tx.Slugs().ReleaseByOwner(ctx, email); err != nil {
			return err
		}
		if report.SubscriptionsDeleted, err = tx.Subscriptions().DeleteByEmail(ctx, email); err != nil {
			return err
		}
		if report.NotificationsDeleted, err = tx.Notifications().DeleteByRecipient(ctx, email); err != nil {
			return err
		}

		// The audit row stores counts only, never the address.
		return tx.Security().AddAudit(ctx, &domain.AuditEntry{
			Actor:      actor,
			Action:     "privacy_delete",
			EntityType: "customer",
			Details: map[string]any{
				"orders_anonymized":   report.OrdersAnonymized,
				"collections_deleted": report.CollectionsDeleted,
				"media_deleted":       report.MediaDeleted,
				"slugs_released":      report.SlugsReleased,
			},
		})
	})
	if err != nil {
		s.logger.Error("privacy_delete_failed", "Failed to delete personal data", logger.RequestID(ctx), nil, err)
		return nil, err
	}

	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Error("media_object_orphaned", "Failed to remove stored media after deletion", logger.RequestID(ctx),
				map[string]any{"key": key}, err)
		}
	}

	s.logger.Info("privacy_delete", "Personal data deleted", logger.RequestID(ctx), map[string]any{
		"orders_anonymized":   report.OrdersAnonymized,
		"collections_deleted": report.CollectionsDeleted,
	})
	return report, nil
}
