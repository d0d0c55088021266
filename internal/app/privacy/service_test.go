package privacy

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/testutil"
)

const email = "fan@example.com"

type fixture struct {
	svc     *Service
	store   *testutil.MemStore
	storage *testutil.MockStorage
	order   *domain.Order
	coll    *domain.MemoryCollection
	key     string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := testutil.NewMemStore()
	storage := testutil.NewMockStorage()

	order, err := domain.NewOrder(
		domain.Customer{Name: "Sam Fan", Email: email},
		domain.PlanBasic,
		domain.Amounts{Subtotal: 1900, Currency: "usd"},
		domain.Address{Line1: "9 Elm", City: "Boise", Country: "US"},
		"cs_priv",
	)
	require.NoError(t, err)
	order.Number = "TMT-20261016-0001"
	store.PutOrder(order)

	owner := email
	store.PutSlug(domain.QRSlug{Slug: "loyal-bear-0a0a", Status: domain.SlugClaimed, OwnerEmail: &owner})

	coll := &domain.MemoryCollection{ID: uuid.New(), Slug: "loyal-bear-0a0a", OwnerEmail: email, Visibility: domain.VisibilityPublic}
	require.NoError(t, store.Memories().CreateCollection(ctx, coll))

	key := "collections/" + coll.ID.String() + "/photo.jpg"
	require.NoError(t, storage.Put(ctx, key, "image/jpeg", 3, strings.NewReader("jpg")))
	require.NoError(t, store.Memories().AddItem(ctx, &domain.MediaItem{
		ID: uuid.New(), CollectionID: coll.ID, Kind: domain.MediaPhoto, StorageKey: &key,
	}))
	story := "a story"
	require.NoError(t, store.Memories().AddItem(ctx, &domain.MediaItem{
		ID: uuid.New(), CollectionID: coll.ID, Kind: domain.MediaStory, Body: &story,
	}))

	require.NoError(t, store.Subscriptions().Upsert(ctx, &domain.Subscription{StripeSubscriptionID: "sub_1", CustomerEmail: email, Status: "active"}))
	require.NoError(t, store.Notifications().Log(ctx, &domain.NotificationLog{OrderNumber: order.Number, Recipient: email, Template: "paid", Status: domain.NotificationSent}))

	return &fixture{
		svc:     NewService(store, storage, logger.Nop()),
		store:   store,
		storage: storage,
		order:   order,
		coll:    coll,
		key:     key,
	}
}

func TestExport(t *testing.T) {
	f := setup(t)

	out, err := f.svc.Export(context.Background(), " FAN@example.com ")
	require.NoError(t, err)

	assert.Equal(t, email, out.Email)
	assert.Len(t, out.Orders, 1)
	require.Len(t, out.Collections, 1)
	assert.Len(t, out.Collections[0].Items, 2)
	assert.Len(t, out.Subscriptions, 1)
	assert.Len(t, out.Notifications, 1)
}

func TestExportRejectsBadEmail(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Export(context.Background(), "nope")
	var ve domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	report, err := f.svc.Delete(ctx, email, "privacy-desk")
	require.NoError(t, err)

	assert.Equal(t, 1, report.OrdersAnonymized)
	assert.Equal(t, 1, report.CollectionsDeleted)
	assert.Equal(t, 2, report.MediaDeleted)
	assert.Equal(t, 1, report.SlugsReleased)
	assert.Equal(t, 1, report.SubscriptionsDeleted)
	assert.Equal(t, 1, report.NotificationsDeleted)

	order, err := f.store.Orders().FindByNumber(ctx, f.order.Number)
	require.NoError(t, err)
	assert.Equal(t, "deleted", order.Customer.Name)
	assert.Equal(t, "deleted+"+f.order.Number+"@invalid", order.Customer.Email)
	assert.Regexp(t, `^deleted\+TMT-\d{8}-\d{4}@invalid$`, order.Customer.Email)
	assert.Equal(t, "US", order.ShippingAddress.Country)
	assert.Empty(t, order.ShippingAddress.Line1)
	assert.Equal(t, int64(1900), order.Amounts.Total)

	slug, err := f.store.Slugs().Find(ctx, "loyal-bear-0a0a")
	require.NoError(t, err)
	assert.Equal(t, domain.SlugAvailable, slug.Status)

	_, err = f.store.Memories().FindCollectionBySlug(ctx, "loyal-bear-0a0a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{f.key}, f.storage.Deleted)

	audit := f.store.AuditEntries()
	require.Len(t, audit, 1)
	assert.Equal(t, "privacy_delete", audit[0].Action)
	assert.Empty(t, audit[0].EntityID)

	out, err := f.svc.Export(ctx, email)
	require.NoError(t, err)
	assert.Empty(t, out.Orders)
	assert.Empty(t, out.Collections)
}

func TestDeleteRollsBackAndKeepsObjects(t *testing.T) {
	f := setup(t)
	f.store.Fail["security.AddAudit"] = testutil.ErrMock
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, email, "privacy-desk")
	require.ErrorIs(t, err, testutil.ErrMock)

	order, err := f.store.Orders().FindByNumber(ctx, f.order.Number)
	require.NoError(t, err)
	assert.Equal(t, "Sam Fan", order.Customer.Name)

	_, err = f.store.Memories().FindCollectionBySlug(ctx, "loyal-bear-0a0a")
	assert.NoError(t, err)
	assert.Empty(t, f.storage.Deleted)
}
