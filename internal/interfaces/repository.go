package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

// Store groups the repositories and runs units of work atomically. Inside
// InTx the callback receives a Store bound to the transaction.
type Store interface {
	Orders() OrderRepository
	Slugs() SlugRepository
	Memories() MemoryRepository
	Subscriptions() SubscriptionRepository
	Security() SecurityRepository
	Manufacturer() ManufacturerRepository
	Notifications() NotificationRepository
	Webhooks() WebhookEventRepository
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type OrderFilter struct {
	Status *domain.Status
	Limit  int
	Offset int
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error)
	FindByEmail(ctx context.Context, email string) ([]*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	GenerateOrderNumber(ctx context.Context) (string, error)
	LogStatus(ctx context.Context, orderID int64, status domain.Status, changedBy string, notes *string) error
	GetStatusHistory(ctx context.Context, orderID int64) ([]*domain.StatusLog, error)
}

type SlugRepository interface {
	Insert(ctx context.Context, slugs []*domain.QRSlug) (int, error)
	Find(ctx context.Context, slug string) (*domain.QRSlug, error)
	Update(ctx context.Context, slug *domain.QRSlug) error
	ListAvailable(ctx context.Context, limit int) ([]*domain.QRSlug, error)
	ListByBatch(ctx context.Context, manufacturerOrderID int64) ([]string, error)
	ReleaseByOwner(ctx context.Context, ownerEmail string) (int, error)
}

type MemoryRepository interface {
	CreateCollection(ctx context.Context, c *domain.MemoryCollection) error
	FindCollectionBySlug(ctx context.Context, slug string) (*domain.MemoryCollection, error)
	ListCollectionsByOwner(ctx context.Context, ownerEmail string) ([]*domain.MemoryCollection, error)
	UpdateCollection(ctx context.Context, c *domain.MemoryCollection) error
	DeleteCollection(ctx context.Context, id uuid.UUID) error
	AddItem(ctx context.Context, item *domain.MediaItem) error
	FindItem(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error)
	ListItems(ctx context.Context, collectionID uuid.UUID) ([]domain.MediaItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *domain.Subscription) error
	SetCustomer(ctx context.Context, stripeSubscriptionID, customerID, email string) error
	FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error)
	FindByEmail(ctx context.Context, email string) ([]*domain.Subscription, error)
	DeleteByEmail(ctx context.Context, email string) (int, error)
}

type SecurityRepository interface {
	RecordEvent(ctx context.Context, event *domain.SecurityEvent) error
	ListEventsSince(ctx context.Context, since time.Time) ([]*domain.SecurityEvent, error)
	AddAudit(ctx context.Context, entry *domain.AuditEntry) error
	ListAudit(ctx context.Context, limit, offset int) ([]*domain.AuditEntry, error)
}

type ManufacturerRepository interface {
	Create(ctx context.Context, m *domain.ManufacturerOrder) error
	FindByBatch(ctx context.Context, batchNumber string) (*domain.ManufacturerOrder, error)
	List(ctx context.Context, limit, offset int) ([]*domain.ManufacturerOrder, error)
	Update(ctx context.Context, m *domain.ManufacturerOrder) error
	GenerateBatchNumber(ctx context.Context) (string, error)
}

type NotificationRepository interface {
	Log(ctx context.Context, entry *domain.NotificationLog) error
	ListByRecipient(ctx context.Context, email string) ([]*domain.NotificationLog, error)
	DeleteByRecipient(ctx context.Context, email string) (int, error)
}

type WebhookEventRepository interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed records the event id and reports whether it was new.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}
