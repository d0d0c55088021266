package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type AddressResponse struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderResponse struct {
	Number          string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	Plan            domain.Plan     `json:"plan"`
	Status          domain.Status   `json:"status"`
	Subtotal        int64           `json:"subtotal"`
	Shipping        int64           `json:"shipping"`
	Tax             int64           `json:"tax"`
	Total           int64           `json:"total"`
	Currency        string          `json:"currency"`
	ShippingAddress AddressResponse `json:"shipping_address"`
	QRSlug          *string         `json:"qr_slug,omitempty"`
	TrackingNumber  *string         `json:"tracking_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	a := o.ShippingAddress
	return OrderResponse{
		Number:        o.Number,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		Plan:          o.Plan,
		Status:        o.Status,
		Subtotal:      o.Amounts.Subtotal,
		Shipping:      o.Amounts.Shipping,
		Tax:           o.Amounts.Tax,
		Total:         o.Amounts.Total,
		Currency:      o.Amounts.Currency,
		ShippingAddress: AddressResponse{
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		},
		QRSlug:         o.QRSlug,
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		PaidAt:         o.PaidAt,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
	}
}

func toOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

type StatusLogResponse struct {
	Status    domain.Status `json:"status"`
	ChangedBy string        `json:"changed_by"`
	Timestamp time.Time     `json:"timestamp"`
	Notes     *string       `json:"notes,omitempty"`
}

type TrackingResponse struct {
	OrderNumber    string         `json:"order_number"`
	Status         domain.Status  `json:"current_status"`
	Plan           domain.Plan    `json:"plan"`
	TrackingNumber *string        `json:"tracking_number,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ShippedAt      *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	History        []TrackingStep `json:"history"`
}

type TrackingStep struct {
	Status    domain.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

func toTrackingResponse(v *interfaces.TrackingView) TrackingResponse {
	resp := TrackingResponse{
		OrderNumber:    v.OrderNumber,
		Status:         v.Status,
		Plan:           v.Plan,
		TrackingNumber: v.TrackingNumber,
		UpdatedAt:      v.UpdatedAt,
		ShippedAt:      v.ShippedAt,
		DeliveredAt:    v.DeliveredAt,
		History:        make([]TrackingStep, 0, len(v.History)),
	}
	for _, h := range v.History {
		resp.History = append(resp.History, TrackingStep{Status: h.Status, Timestamp: h.At})
	}
	return resp
}

type SlugResponse struct {
	Slug      string            `json:"slug"`
	Status    domain.SlugStatus `json:"status"`
	Claimable bool              `json:"claimable"`
	ClaimedAt *time.Time        `json:"claimed_at,omitempty"`
}

func toSlugResponse(s *domain.QRSlug) SlugResponse {
	return SlugResponse{
		Slug:      s.Slug,
		Status:    s.Status,
		Claimable: s.Status != domain.SlugClaimed,
		ClaimedAt: s.ClaimedAt,
	}
}

type MediaResponse struct {
	ID          uuid.UUID        `json:"id"`
	Kind        domain.MediaKind `json:"kind"`
	ContentType *string          `json:"content_type,omitempty"`
	SizeBytes   int64            `json:"size_bytes,omitempty"`
	Caption     string           `json:"caption,omitempty"`
	Body        *string          `json:"body,omitempty"`
	URL         string           `json:"url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toMediaResponse(m *domain.MediaItem) MediaResponse {
	return MediaResponse{
		ID:          m.ID,
		Kind:        m.Kind,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		Caption:     m.Caption,
		Body:        m.Body,
		URL:         m.URL,
		CreatedAt:   m.CreatedAt,
	}
}

type CollectionResponse struct {
	ID          uuid.UUID         `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Visibility  domain.Visibility `json:"visibility"`
	Items       []MediaResponse   `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toCollectionResponse(c *domain.MemoryCollection) CollectionResponse {
	resp := CollectionResponse{
		ID:          c.ID,
		Slug:        c.Slug,
		Title:       c.Title,
		Description: c.Description,
		Visibility:  c.Visibility,
		Items:       make([]MediaResponse, 0, len(c.Items)),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for i := range c.Items {
		resp.Items = append(resp.Items, toMediaResponse(&c.Items[i]))
	}
	return resp
}

type SubscriptionResponse struct {
	StripeSubscriptionID string      `json:"stripe_subscription_id"`
	Plan                 domain.Plan `json:"plan"`
	Status               string      `json:"status"`
	CurrentPeriodEnd     *time.Time  `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool        `json:"cancel_at_period_end"`
	CreatedAt            time.Time   `json:"created_at"`
}

type NotificationResponse struct {
	OrderNumber string                    `json:"order_number"`
	Template    string                    `json:"template"`
	Status      domain.NotificationStatus `json:"status"`
	CreatedAt   time.Time                 `json:"created_at"`
}

type ExportResponse struct {
	Email         string                 `json:"email"`
	GeneratedAt   time.Time              `json:"generated_at"`
	Orders        []OrderResponse        `json:"orders"`
	Collections   []CollectionResponse   `json:"collections"`
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
	Notifications []NotificationResponse `json:"notifications"`
}

func toExportResponse(e *interfaces.DataExport) ExportResponse {
	resp := ExportResponse{
		Email:         e.Email,
		GeneratedAt:   e.GeneratedAt,
		Orders:        toOrderResponses(e.Orders),
		Collections:   make([]CollectionResponse, 0, len(e.Collections)),
		Subscriptions: make([]SubscriptionResponse, 0, len(e.Subscriptions)),
		Notifications: make([]NotificationResponse, 0, len(e.Notifications)),
	}
	for _, c := range e.Collections {
		resp.Collections = append(resp.Collections, toCollectionResponse(c))
	}
	for _, s := range e.Subscriptions {
		resp.Subscriptions = append(resp.Subscriptions, SubscriptionResponse{
			StripeSubscriptionID: s.StripeSubscriptionID,
			Plan:                 s.Plan,
			Status:               s.Status,
			CurrentPeriodEnd:     s.CurrentPeriodEnd,
			CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
			CreatedAt:            s.CreatedAt,
		})
	}
	for _, n := range e.Notifications {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			OrderNumber: n.OrderNumber,
			Template:    n.Template,
			Status:      n.Status,
			CreatedAt:   n.CreatedAt,
		})
	}
	return resp
}

type BatchResponse struct {
	BatchNumber string             `json:"batch_number"`
	Quantity    int                `json:"quantity"`
	Status      domain.BatchStatus `json:"status"`
	Notes       string             `json:"notes,omitempty"`
	Slugs       []string           `json:"slugs,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func toBatchResponse(m *domain.ManufacturerOrder) BatchResponse {
	return BatchResponse{
		BatchNumber: m.BatchNumber,
		Quantity:    m.Quantity,
		Status:      m.Status,
		Notes:       m.Notes,
		Slugs:       m.Slugs,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type SecurityEventResponse struct {
	Type      domain.SecurityEventType `json:"type"`
	Severity  domain.Severity          `json:"severity"`
	Source    string                   `json:"source,omitempty"`
	Details   map[string]any           `json:"details,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

type DashboardResponse struct {
	Since      time.Time                        `json:"since"`
	Total      int                              `json:"total"`
	ByType     map[domain.SecurityEventType]int `json:"by_type"`
	BySeverity map[domain.Severity]int          `json:"by_severity"`
	Recent     []SecurityEventResponse          `json:"recent"`
}

func toDashboardResponse(s *domain.SecuritySummary) DashboardResponse {
	resp := DashboardResponse{
		Since:      s.Since,
		Total:      s.Total,
		ByType:     s.ByType,
		BySeverity: s.BySeverity,
		Recent:     make([]SecurityEventResponse, 0, len(s.Recent)),
	}
	for _, e := range s.Recent {
		resp.Recent = append(resp.Recent, SecurityEventResponse{
			Type:      e.Type,
			Severity:  e.Severity,
			Source:    e.Source,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp
}

type AuditResponse struct {
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
