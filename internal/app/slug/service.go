package slug

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/qrslug"
)

const maxSeed = 10000

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

// Seed adds n fresh available slugs to the pool. Slugs that collide with
// existing rows are skipped, so the returned count may be below n.
func (s *Service) Seed(ctx context.Context, n int) (int, error) {
	if n <= 0 || n > maxSeed {
		return 0, domain.ValidationError{Field: "count", Message: fmt.Sprintf("must be between 1 and %d", maxSeed)}
	}

	values, err := s.generator.GenerateMultiple(n)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	slugs := make([]*domain.QRSlug, len(values))
	for i, v := range values {
		slugs[i] = &domain.QRSlug{Slug: v, Status: domain.SlugAvailable, CreatedAt: now}
	}

	inserted, err := s.store.Slugs().Insert(ctx, slugs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert slugs: %w", err)
	}

	s.logger.Info("slugs_seeded", fmt.Sprintf("Seeded %d slugs", inserted), logger.RequestID(ctx),
		map[string]any{"requested": n, "inserted": inserted})
	return inserted, nil
}

func (s *Service) Lookup(ctx context.Context, slug string) (*domain.QRSlug, error) {
	if err := qrslug.Validate(slug); err != nil {
		return nil, err
	}
	return s.store.Slugs().Find(ctx, slug)
}

// Claim hands an available or reserved slug to its owner and opens an empty
// memory collection for it.
func (s *Service) Claim(ctx context.Context, cmd interfaces.ClaimCommand) (*domain.MemoryCollection, error) {
	if err := qrslug.Validate(cmd.Slug); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(cmd.OwnerEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ValidationError{Field: "email", Message: "a valid email is required"}
	}

	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		title = "Our memories"
	}
	if len(title) > 200 {
		return nil, domain.ValidationError{Field: "title", Message: "must not exceed 200 characters"}
	}

	now := time.Now().UTC()
	collection := &domain.MemoryCollection{
		ID:         uuid.New(),
		Slug:       cmd.Slug,
		OwnerEmail: email,
		Title:      title,
		Visibility: domain.VisibilityPrivate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		qr, err := tx.Slugs().Find(ctx, cmd.Slug)
		if err != nil {
			return err
		}
		if err := qr.Claim(email); err != nil {
			return err
		}
		if err := tx.Slugs().Update(ctx, qr); err != nil {
			return err
		}
		return tx.Memories().CreateCollection(ctx, collection)
	})
	if err != nil {
		s.logger.Error("slug_claim_failed", "Failed to claim slug", logger.RequestID(ctx),
			map[string]any{"slug": cmd.Slug}, err)
		return nil, err
	}

	s.logger.Info("slug_claimed", "Slug claimed", logger.RequestID(ctx),
		map[string]any{"slug": cmd.Slug, "collection_id": collection.ID})
	return collection, nil
}

func (s *Service) Available(ctx context.Context, limit int) ([]*domain.QRSlug, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.store.Slugs().ListAvailable(ctx, limit)
}
