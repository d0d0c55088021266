package manufacturer

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/qrslug"
)

const (
	maxBatchQuantity = 5000
	// seedRounds bounds how often colliding slugs are regenerated.
	seedRounds = 5
)

type Service struct {
	store     interfaces.Store
	generator *qrslug.Generator
	logger    logger.Logger
}

func NewService(store interfaces.Store, generator *qrslug.Generator, logger logger.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		logger:    logger,
	}
}

// CreateBatch opens a draft production batch and reserves quantity fresh
// slugs for it in the same transaction.
func (s *Service) CreateBatch(ctx context.Context, quantity int, notes, actor string) (*domain.ManufacturerOrder, error) {
	if quantity <= 0 || quantity > maxBatchQuantity {
		return nil, domain.ValidationError{Field: "quantity", Message: fmt.Sprintf("must be between 1 and %d", maxBatchQuantity)}
	}

	now := time.Now().UTC()
	batch := &domain.ManufacturerOrder{
		Quantity:  quantity,
		Status:    domain.BatchDraft,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		number, err := tx.Manufacturer().GenerateBatchNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to generate batch number: %w", err)
		}
		batch.BatchNumber = number

		if err := tx.Manufacturer().Create(ctx, batch); err != nil {
			return err
		}

		reserved := 0
		for round := 0; reserved < quantity; round++ {
			if round == seedRounds {
				return fmt.Errorf("reserved %d of %d slugs: %w", reserved, quantity, qrslug.ErrExhausted)
			}
			values, err := s.generator.GenerateMultiple(quantity - reserved)
			if err != nil {
				return err
			}
			slugs := make([]*domain.QRSlug, len(values))
			for i, v := range values {
				slugs[i] = &domain.QRSlug{
					Slug:                v,
					Status:              domain.SlugReserved,
					ManufacturerOrderID: &batch.ID,
					CreatedAt:           now,
				}
			}
			n, err := tx.Slugs().Insert(ctx, slugs)
			if err != nil {
				return err
			}
			reserved += n
		}

		batch.Slugs, err = tx.Slugs().ListByBatch(ctx, batch.ID)
		if err != nil {
			return err
		}

		return tx.Security().AddAudit(ctx, &domain.AuditEntry{
			Actor:      actor,
			Action:     "batch_created",
			EntityType: "manufacturer_order",
			EntityID:   batch.BatchNumber,
			Details:    map[string]any{"quantity": quantity},
		})
	})
	if err != nil {
		s.logger.Error("batch_create_failed", "Failed to create manufacturer batch", logger.RequestID(ctx), nil, err)
		return nil, err
	}

	s.logger.Info("batch_created", fmt.Sprintf("Batch %s created with %d slugs", batch.BatchNumber, quantity),
		logger.RequestID(ctx), map[string]any{"batch_number": batch.BatchNumber})
	return batch, nil
}

func (s *Service) Advance(ctx context.Context, batchNumber string, status domain.BatchStatus, actor string) (*domain.ManufacturerOrder, error) {
	var batch *domain.ManufacturerOrder
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		var err error
		batch, err = tx.Manufacturer().FindByBatch(ctx, batchNumber)
		if err != nil {
			return err
		}

		from := batch.Status
		if err := batch.Advance(status); err != nil {
			return fmt.Errorf("batch %s %s -> %s: %w", batchNumber, from, status, err)
		}
		if err := tx.Manufacturer().Update(ctx, batch); err != nil {
			return err
		}

		return tx.Security().AddAudit(ctx, &domain.AuditEntry{
			Actor:      actor,
			Action:     "batch_status_updated",
			EntityType: "manufacturer_order",
			EntityID:   batchNumber,
			Details:    map[string]any{"from": from, "to": status},
		})
	})
	if err != nil {
		return nil, err
	}

	if batch.Slugs, err = s.store.Slugs().ListByBatch(ctx, batch.ID); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *Service) Get(ctx context.Context, batchNumber string) (*domain.ManufacturerOrder, error) {
	batch, err := s.store.Manufacturer().FindByBatch(ctx, batchNumber)
	if err != nil {
		return nil, err
	}
	if batch.Slugs, err = s.store.Slugs().ListByBatch(ctx, batch.ID); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.ManufacturerOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Manufacturer().List(ctx, limit, offset)
}
