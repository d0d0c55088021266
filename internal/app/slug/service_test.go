package slug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/qrslug"
	"github.com/YelzhanWeb/tagmytrophy/internal/testutil"
)

func setup() (*Service, *testutil.MemStore) {
	store := testutil.NewMemStore()
	return NewService(store, qrslug.NewGenerator(42), logger.Nop()), store
}

func TestSeedInsertsAvailableSlugs(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	n, err := svc.Seed(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	available, err := svc.Available(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, available, 25)
	for _, s := range available {
		assert.NoError(t, qrslug.Validate(s.Slug))
		assert.Equal(t, domain.SlugAvailable, s.Status)
	}
}

func TestSeedSkipsExistingSlugs(t *testing.T) {
	store := testutil.NewMemStore()
	first, err := qrslug.NewGenerator(7).GenerateMultiple(3)
	require.NoError(t, err)
	store.PutSlug(domain.QRSlug{Slug: first[0], Status: domain.SlugClaimed})

	svc := NewService(store, qrslug.NewGenerator(7), logger.Nop())
	n, err := svc.Seed(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeedRejectsBadCount(t *testing.T) {
	svc, _ := setup()

	_, err := svc.Seed(context.Background(), 0)
	var ve domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLookup(t *testing.T) {
	svc, store := setup()
	store.PutSlug(domain.QRSlug{Slug: "happy-owl-1234", Status: domain.SlugAvailable})
	ctx := context.Background()

	s, err := svc.Lookup(ctx, "happy-owl-1234")
	require.NoError(t, err)
	assert.Equal(t, domain.SlugAvailable, s.Status)

	_, err = svc.Lookup(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidSlug)

	_, err = svc.Lookup(ctx, "happy-owl-9999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClaimCreatesCollection(t *testing.T) {
	svc, store := setup()
	orderID := int64(3)
	store.PutSlug(domain.QRSlug{Slug: "happy-owl-1234", Status: domain.SlugReserved, OrderID: &orderID})
	ctx := context.Background()

	c, err := svc.Claim(ctx, interfaces.ClaimCommand{Slug: "happy-owl-1234", OwnerEmail: " Jane@Example.com ", Title: "Championship 2026"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", c.OwnerEmail)
	assert.Equal(t, domain.VisibilityPrivate, c.Visibility)

	s, err := store.Slugs().Find(ctx, "happy-owl-1234")
	require.NoError(t, err)
	assert.Equal(t, domain.SlugClaimed, s.Status)
	require.NotNil(t, s.ClaimedAt)

	stored, err := store.Memories().FindCollectionBySlug(ctx, "happy-owl-1234")
	require.NoError(t, err)
	assert.Equal(t, c.ID, stored.ID)
}

func TestClaimTwiceFails(t *testing.T) {
	svc, store := setup()
	store.PutSlug(domain.QRSlug{Slug: "happy-owl-1234", Status: domain.SlugAvailable})
	ctx := context.Background()

	_, err := svc.Claim(ctx, interfaces.ClaimCommand{Slug: "happy-owl-1234", OwnerEmail: "a@example.com"})
	require.NoError(t, err)

	_, err = svc.Claim(ctx, interfaces.ClaimCommand{Slug: "happy-owl-1234", OwnerEmail: "b@example.com"})
	assert.ErrorIs(t, err, domain.ErrSlugUnavailable)
}

func TestClaimRollsBackWhenCollectionFails(t *testing.T) {
	svc, store := setup()
	store.PutSlug(domain.QRSlug{Slug: "happy-owl-1234", Status: domain.SlugAvailable})
	store.Fail["memories.CreateCollection"] = testutil.ErrMock
	ctx := context.Background()

	_, err := svc.Claim(ctx, interfaces.ClaimCommand{Slug: "happy-owl-1234", OwnerEmail: "a@example.com"})
	require.ErrorIs(t, err, testutil.ErrMock)

	s, err := store.Slugs().Find(ctx, "happy-owl-1234")
	require.NoError(t, err)
	assert.Equal(t, domain.SlugAvailable, s.Status)
	assert.Nil(t, s.OwnerEmail)
}
