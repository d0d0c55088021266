package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

// Service interfaces consumed by the HTTP and AMQP adapters.
type OrderService interface {
	CreateFromCheckout(ctx context.Context, c CheckoutCompleted) (*domain.Order, error)
	Get(ctx context.Context, number string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	History(ctx context.Context, number string) ([]*domain.StatusLog, error)
	UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*domain.Order, error)
	Pack(ctx context.Context, number, slug, actor string) (*domain.Order, error)
	Ship(ctx context.Context, number, trackingNumber, actor string) (*domain.Order, error)
	Refund(ctx context.Context, paymentIntentID, actor string) (*domain.Order, error)
}

type UpdateStatusCommand struct {
	OrderNumber string
	Status      domain.Status
	Actor       string
	Notes       *string
}

type SlugService interface {
	Seed(ctx context.Context, n int) (int, error)
	Lookup(ctx context.Context, slug string) (*domain.QRSlug, error)
	Claim(ctx context.Context, cmd ClaimCommand) (*domain.MemoryCollection, error)
	Available(ctx context.Context, limit int) ([]*domain.QRSlug, error)
}

type ClaimCommand struct {
	Slug       string
	OwnerEmail string
	Title      string
}

type MemoryService interface {
	GetPublic(ctx context.Context, slug, viewerEmail string) (*domain.MemoryCollection, error)
	Update(ctx context.Context, cmd UpdateCollectionCommand) (*domain.MemoryCollection, error)
	UploadMedia(ctx context.Context, cmd UploadMediaCommand) (*domain.MediaItem, error)
	AddStory(ctx context.Context, cmd AddStoryCommand) (*domain.MediaItem, error)
	DeleteMedia(ctx context.Context, slug, ownerEmail string, mediaID uuid.UUID) error
}

type UpdateCollectionCommand struct {
	Slug        string
	OwnerEmail  string
	Title       *string
	Description *string
	Visibility  *domain.Visibility
}

type UploadMediaCommand struct {
	Slug        string
	OwnerEmail  string
	Kind        domain.MediaKind
	ContentType string
	Size        int64
	Caption     string
	Body        io.Reader
}

type AddStoryCommand struct {
	Slug       string
	OwnerEmail string
	Caption    string
	Body       string
}

type CheckoutService interface {
	Start(ctx context.Context, plan domain.Plan, email string) (*CheckoutSession, error)
}

type WebhookService interface {
	Handle(ctx context.Context, payload []byte, signature, source string) error
}

type SubscriptionService interface {
	Upsert(ctx context.Context, sub *domain.Subscription) error
	Cancel(ctx context.Context, stripeSubscriptionID string) error
	AttachCustomer(ctx context.Context, stripeSubscriptionID, customerID, email string) error
	GetByEmail(ctx context.Context, email string) ([]*domain.Subscription, error)
}

type PrivacyService interface {
	Export(ctx context.Context, email string) (*DataExport, error)
	Delete(ctx context.Context, email, actor string) (*DeletionReport, error)
}

type DataExport struct {
	Email         string                     `json:"email"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	Orders        []*domain.Order            `json:"orders"`
	Collections   []*domain.MemoryCollection `json:"collections"`
	Subscriptions []*domain.Subscription     `json:"subscriptions"`
	Notifications []*domain.NotificationLog  `json:"notifications"`
}

type DeletionReport struct {
	OrdersAnonymized     int `json:"orders_anonymized"`
	CollectionsDeleted   int `json:"collections_deleted"`
	MediaDeleted         int `json:"media_deleted"`
	SlugsReleased        int `json:"slugs_released"`
	SubscriptionsDeleted int `json:"subscriptions_deleted"`
	NotificationsDeleted int `json:"notifications_deleted"`
}

type SecurityService interface {
	Record(ctx context.Context, event domain.SecurityEvent)
	Audit(ctx context.Context, entry domain.AuditEntry)
	Dashboard(ctx context.Context, window time.Duration, recent int) (*domain.SecuritySummary, error)
	AuditLog(ctx context.Context, limit, offset int) ([]*domain.AuditEntry, error)
}

type ManufacturerService interface {
	CreateBatch(ctx context.Context, quantity int, notes, actor string) (*domain.ManufacturerOrder, error)
	Advance(ctx context.Context, batchNumber string, status domain.BatchStatus, actor string) (*domain.ManufacturerOrder, error)
	Get(ctx context.Context, batchNumber string) (*domain.ManufacturerOrder, error)
	List(ctx context.Context, limit, offset int) ([]*domain.ManufacturerOrder, error)
}

type TrackingService interface {
	Track(ctx context.Context, orderNumber, email string) (*TrackingView, error)
}

// TrackingView is what a customer sees about their order. Actors and notes
// from the status log are left out.
type TrackingView struct {
	OrderNumber    string
	Status         domain.Status
	Plan           domain.Plan
	TrackingNumber *string
	UpdatedAt      time.Time
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	History        []TrackingStep
}

type TrackingStep struct {
	Status domain.Status
	At     time.Time
}
