// Package testutil provides in-memory fakes of the interfaces package for
// service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type state struct {
	nextID        int64
	orders        map[int64]domain.Order
	statusLog     []domain.StatusLog
	slugs         map[string]domain.QRSlug
	collections   map[uuid.UUID]domain.MemoryCollection
	items         map[uuid.UUID]domain.MediaItem
	subscriptions map[string]domain.Subscription
	events        []domain.SecurityEvent
	audit         []domain.AuditEntry
	batches       map[int64]domain.ManufacturerOrder
	notifications []domain.NotificationLog
	webhooks      map[string]string
}

func newState() *state {
	return &state{
		orders:        map[int64]domain.Order{},
		slugs:         map[string]domain.QRSlug{},
		collections:   map[uuid.UUID]domain.MemoryCollection{},
		items:         map[uuid.UUID]domain.MediaItem{},
		subscriptions: map[string]domain.Subscription{},
		batches:       map[int64]domain.ManufacturerOrder{},
		webhooks:      map[string]string{},
	}
}

func (s *state) clone() *state {
	c := &state{
		nextID:        s.nextID,
		statusLog:     append([]domain.StatusLog(nil), s.statusLog...),
		events:        append([]domain.SecurityEvent(nil), s.events...),
		audit:         append([]domain.AuditEntry(nil), s.audit...),
		notifications: append([]domain.NotificationLog(nil), s.notifications...),
		orders:        make(map[int64]domain.Order, len(s.orders)),
		slugs:         make(map[string]domain.QRSlug, len(s.slugs)),
		collections:   make(map[uuid.UUID]domain.MemoryCollection, len(s.collections)),
		items:         make(map[uuid.UUID]domain.MediaItem, len(s.items)),
		subscriptions: make(map[string]domain.Subscription, len(s.subscriptions)),
		batches:       make(map[int64]domain.ManufacturerOrder, len(s.batches)),
		webhooks:      make(map[string]string, len(s.webhooks)),
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.slugs {
		c.slugs[k] = v
	}
	for k, v := range s.collections {
		c.collections[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.subscriptions {
		c.subscriptions[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.webhooks {
		c.webhooks[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// MemStore is an interfaces.Store kept in memory. InTx snapshots the state
// and restores it when the callback fails.
//
// Fail injects an error into a named operation, e.g. "memories.AddItem".
type MemStore struct {
	mu   *sync.Mutex
	st   **state
	inTx bool
	Fail map[string]error
	// Now stamps rows; defaults to time.Now.
	Now func() time.Time
}

func NewMemStore() *MemStore {
	st := newState()
	return &MemStore{mu: &sync.Mutex{}, st: &st, Fail: map[string]error{}, Now: time.Now}
}

func (m *MemStore) fail(op string) error {
	if err, ok := m.Fail[op]; ok {
		return err
	}
	return nil
}

func (m *MemStore) now() time.Time { return m.Now().UTC() }

func (m *MemStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemStore) InTx(ctx context.Context, fn func(tx interfaces.Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := (*m.st).clone()
	tx := &MemStore{mu: m.mu, st: m.st, inTx: true, Fail: m.Fail, Now: m.Now}
	if err := fn(tx); err != nil {
		*m.st = snapshot
		return err
	}
	return nil
}

func (m *MemStore) Orders() interfaces.OrderRepository               { return memOrders{m} }
func (m *MemStore) Slugs() interfaces.SlugRepository                 { return memSlugs{m} }
func (m *MemStore) Memories() interfaces.MemoryRepository            { return memMemories{m} }
func (m *MemStore) Subscriptions() interfaces.SubscriptionRepository { return memSubscriptions{m} }
func (m *MemStore) Security() interfaces.SecurityRepository          { return memSecurity{m} }
func (m *MemStore) Manufacturer() interfaces.ManufacturerRepository  { return memManufacturer{m} }
func (m *MemStore) Notifications() interfaces.NotificationRepository { return memNotifications{m} }
func (m *MemStore) Webhooks() interfaces.WebhookEventRepository      { return memWebhooks{m} }

// Seed helpers for tests.

func (m *MemStore) PutSlug(s domain.QRSlug) {
	defer m.lock()()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	(*m.st).slugs[s.Slug] = s
}

func (m *MemStore) PutOrder(o *domain.Order) {
	defer m.lock()()
	if o.ID == 0 {
		o.ID = (*m.st).id()
	}
	(*m.st).orders[o.ID] = *o
}

func (m *MemStore) AuditEntries() []domain.AuditEntry {
	defer m.lock()()
	return append([]domain.AuditEntry(nil), (*m.st).audit...)
}

func (m *MemStore) SecurityEvents() []domain.SecurityEvent {
	defer m.lock()()
	return append([]domain.SecurityEvent(nil), (*m.st).events...)
}

func (m *MemStore) NotificationLogs() []domain.NotificationLog {
	defer m.lock()()
	return append([]domain.NotificationLog(nil), (*m.st).notifications...)
}

func (m *MemStore) OrderCount() int {
	defer m.lock()()
	return len((*m.st).orders)
}

// --- orders ---

type memOrders struct{ m *MemStore }

func (r memOrders) Create(ctx context.Context, o *domain.Order) error {
	defer r.m.lock()()
	if err := r.m.fail("orders.Create"); err != nil {
		return err
	}
	st := *r.m.st
	for _, existing := range st.orders {
		if existing.StripeSessionID == o.StripeSessionID {
			return fmt.Errorf("duplicate checkout session %s", o.StripeSessionID)
		}
	}
	o.ID = st.id()
	st.orders[o.ID] = *o
	return nil
}

func (r memOrders) findOne(match func(domain.Order) bool) (*domain.Order, error) {
	defer r.m.lock()()
	for _, o := range (*r.m.st).orders {
		if match(o) {
			o := o
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
}

func (r memOrders) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(func(o domain.Order) bool { return o.Number == number })
}

func (r memOrders) FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	return r.findOne(func(o domain.Order) bool { return o.StripeSessionID == sessionID })
}

func (r memOrders) FindByPaymentIntent(ctx context.Context, pi string) (*domain.Order, error) {
	return r.findOne(func(o domain.Order) bool {
		return o.StripePaymentIntentID != nil && *o.StripePaymentIntentID == pi
	})
}

func (r memOrders) sorted(match func(domain.Order) bool) []*domain.Order {
	var out []*domain.Order
	for _, o := range (*r.m.st).orders {
		if match(o) {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memOrders) FindByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	defer r.m.lock()()
	return r.sorted(func(o domain.Order) bool { return o.Customer.Email == email }), nil
}

func (r memOrders) List(ctx context.Context, f interfaces.OrderFilter) ([]*domain.Order, error) {
	defer r.m.lock()()
	all := r.sorted(func(o domain.Order) bool { return f.Status == nil || o.Status == *f.Status })
	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return page(all, f.Limit, f.Offset), nil
}

func (r memOrders) Update(ctx context.Context, o *domain.Order) error {
	defer r.m.lock()()
	if err := r.m.fail("orders.Update"); err != nil {
		return err
	}
	st := *r.m.st
	if _, ok := st.orders[o.ID]; !ok {
		return fmt.Errorf("order %s: %w", o.Number, domain.ErrNotFound)
	}
	st.orders[o.ID] = *o
	return nil
}

func (r memOrders) GenerateOrderNumber(ctx context.Context) (string, error) {
	defer r.m.lock()()
	prefix := "TMT-" + r.m.now().Format("20060102") + "-"
	n := 0
	for _, o := range (*r.m.st).orders {
		if strings.HasPrefix(o.Number, prefix) {
			n++
		}
	}
	return fmt.Sprintf("%s%04d", prefix, n+1), nil
}

func (r memOrders) LogStatus(ctx context.Context, orderID int64, status domain.Status, changedBy string, notes *string) error {
	defer r.m.lock()()
	if err := r.m.fail("orders.LogStatus"); err != nil {
		return err
	}
	st := *r.m.st
	st.statusLog = append(st.statusLog, domain.StatusLog{
		ID:        st.id(),
		OrderID:   orderID,
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: r.m.now(),
		Notes:     notes,
	})
	return nil
}

func (r memOrders) GetStatusHistory(ctx context.Context, orderID int64) ([]*domain.StatusLog, error) {
	defer r.m.lock()()
	var out []*domain.StatusLog
	for _, l := range (*r.m.st).statusLog {
		if l.OrderID == orderID {
			l := l
			out = append(out, &l)
		}
	}
	return out, nil
}

// --- slugs ---

type memSlugs struct{ m *MemStore }

func (r memSlugs) Insert(ctx context.Context, slugs []*domain.QRSlug) (int, error) {
	defer r.m.lock()()
	st := *r.m.st
	n := 0
	for _, s := range slugs {
		if _, ok := st.slugs[s.Slug]; ok {
			continue
		}
		st.slugs[s.Slug] = *s
		n++
	}
	return n, nil
}

func (r memSlugs) Find(ctx context.Context, slug string) (*domain.QRSlug, error) {
	defer r.m.lock()()
	s, ok := (*r.m.st).slugs[slug]
	if !ok {
		return nil, fmt.Errorf("qr slug: %w", domain.ErrNotFound)
	}
	return &s, nil
}

func (r memSlugs) Update(ctx context.Context, s *domain.QRSlug) error {
	defer r.m.lock()()
	if err := r.m.fail("slugs.Update"); err != nil {
		return err
	}
	st := *r.m.st
	if _, ok := st.slugs[s.Slug]; !ok {
		return fmt.Errorf("qr slug %s: %w", s.Slug, domain.ErrNotFound)
	}
	st.slugs[s.Slug] = *s
	return nil
}

func (r memSlugs) ListAvailable(ctx context.Context, limit int) ([]*domain.QRSlug, error) {
	defer r.m.lock()()
	var out []*domain.QRSlug
	for _, s := range (*r.m.st).slugs {
		if s.Status == domain.SlugAvailable {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return page(out, limit, 0), nil
}

func (r memSlugs) ListByBatch(ctx context.Context, batchID int64) ([]string, error) {
	defer r.m.lock()()
	var out []string
	for _, s := range (*r.m.st).slugs {
		if s.ManufacturerOrderID != nil && *s.ManufacturerOrderID == batchID {
			out = append(out, s.Slug)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r memSlugs) ReleaseByOwner(ctx context.Context, ownerEmail string) (int, error) {
	defer r.m.lock()()
	st := *r.m.st
	n := 0
	for k, s := range st.slugs {
		if s.OwnerEmail != nil && *s.OwnerEmail == ownerEmail {
			s.Status = domain.SlugAvailable
			s.OwnerEmail = nil
			s.OrderID = nil
			s.ClaimedAt = nil
			st.slugs[k] = s
			n++
		}
	}
	return n, nil
}

// --- memories ---

type memMemories struct{ m *MemStore }

func (r memMemories) CreateCollection(ctx context.Context, c *domain.MemoryCollection) error {
	defer r.m.lock()()
	if err := r.m.fail("memories.CreateCollection"); err != nil {
		return err
	}
	st := *r.m.st
	for _, existing := range st.collections {
		if existing.Slug == c.Slug {
			return fmt.Errorf("collection for %s already exists", c.Slug)
		}
	}
	stored := *c
	stored.Items = nil
	st.collections[c.ID] = stored
	return nil
}

func (r memMemories) FindCollectionBySlug(ctx context.Context, slug string) (*domain.MemoryCollection, error) {
	defer r.m.lock()()
	for _, c := range (*r.m.st).collections {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("memory collection: %w", domain.ErrNotFound)
}

func (r memMemories) ListCollectionsByOwner(ctx context.Context, ownerEmail string) ([]*domain.MemoryCollection, error) {
	defer r.m.lock()()
	var out []*domain.MemoryCollection
	for _, c := range (*r.m.st).collections {
		if c.OwnerEmail == ownerEmail {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r memMemories) UpdateCollection(ctx context.Context, c *domain.MemoryCollection) error {
	defer r.m.lock()()
	st := *r.m.st
	if _, ok := st.collections[c.ID]; !ok {
		return fmt.Errorf("memory collection: %w", domain.ErrNotFound)
	}
	stored := *c
	stored.Items = nil
	st.collections[c.ID] = stored
	return nil
}

func (r memMemories) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	defer r.m.lock()()
	st := *r.m.st
	delete(st.collections, id)
	for k, item := range st.items {
		if item.CollectionID == id {
			delete(st.items, k)
		}
	}
	return nil
}

func (r memMemories) AddItem(ctx context.Context, item *domain.MediaItem) error {
	defer r.m.lock()()
	if err := r.m.fail("memories.AddItem"); err != nil {
		return err
	}
	(*r.m.st).items[item.ID] = *item
	return nil
}

func (r memMemories) FindItem(ctx context.Context, id uuid.UUID) (*domain.MediaItem, error) {
	defer r.m.lock()()
	item, ok := (*r.m.st).items[id]
	if !ok {
		return nil, fmt.Errorf("media item: %w", domain.ErrNotFound)
	}
	return &item, nil
}

func (r memMemories) ListItems(ctx context.Context, collectionID uuid.UUID) ([]domain.MediaItem, error) {
	defer r.m.lock()()
	var out []domain.MediaItem
	for _, item := range (*r.m.st).items {
		if item.CollectionID == collectionID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memMemories) DeleteItem(ctx context.Context, id uuid.UUID) error {
	defer r.m.lock()()
	st := *r.m.st
	if _, ok := st.items[id]; !ok {
		return fmt.Errorf("media item %s: %w", id, domain.ErrNotFound)
	}
	delete(st.items, id)
	return nil
}

// --- subscriptions ---

type memSubscriptions struct{ m *MemStore }

func (r memSubscriptions) Upsert(ctx context.Context, s *domain.Subscription) error {
	defer r.m.lock()()
	st := *r.m.st
	stored := *s
	if existing, ok := st.subscriptions[s.StripeSubscriptionID]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
		if stored.CustomerEmail == "" {
			stored.CustomerEmail = existing.CustomerEmail
		}
		if stored.Plan == "" {
			stored.Plan = existing.Plan
		}
		if stored.StripeCustomerID == "" {
			stored.StripeCustomerID = existing.StripeCustomerID
		}
		if existing.Status == domain.SubscriptionCanceled {
			stored.Status = existing.Status
		}
	} else {
		stored.ID = st.id()
		stored.CreatedAt = r.m.now()
	}
	stored.UpdatedAt = r.m.now()
	st.subscriptions[s.StripeSubscriptionID] = stored
	*s = stored
	return nil
}

func (r memSubscriptions) SetCustomer(ctx context.Context, id, customerID, email string) error {
	defer r.m.lock()()
	st := *r.m.st
	s, ok := st.subscriptions[id]
	if !ok {
		return fmt.Errorf("subscription: %w", domain.ErrNotFound)
	}
	if s.StripeCustomerID == "" {
		s.StripeCustomerID = customerID
	}
	if s.CustomerEmail == "" {
		s.CustomerEmail = email
	}
	s.UpdatedAt = r.m.now()
	st.subscriptions[id] = s
	return nil
}

func (r memSubscriptions) FindByStripeID(ctx context.Context, id string) (*domain.Subscription, error) {
	defer r.m.lock()()
	s, ok := (*r.m.st).subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("subscription: %w", domain.ErrNotFound)
	}
	return &s, nil
}

func (r memSubscriptions) FindByEmail(ctx context.Context, email string) ([]*domain.Subscription, error) {
	defer r.m.lock()()
	var out []*domain.Subscription
	for _, s := range (*r.m.st).subscriptions {
		if s.CustomerEmail == email {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memSubscriptions) DeleteByEmail(ctx context.Context, email string) (int, error) {
	defer r.m.lock()()
	st := *r.m.st
	n := 0
	for k, s := range st.subscriptions {
		if s.CustomerEmail == email {
			delete(st.subscriptions, k)
			n++
		}
	}
	return n, nil
}

// --- security ---

type memSecurity struct{ m *MemStore }

func (r memSecurity) RecordEvent(ctx context.Context, e *domain.SecurityEvent) error {
	defer r.m.lock()()
	if err := r.m.fail("security.RecordEvent"); err != nil {
		return err
	}
	st := *r.m.st
	e.ID = st.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.m.now()
	}
	st.events = append(st.events, *e)
	return nil
}

func (r memSecurity) ListEventsSince(ctx context.Context, since time.Time) ([]*domain.SecurityEvent, error) {
	defer r.m.lock()()
	var out []*domain.SecurityEvent
	events := (*r.m.st).events
	for i := len(events) - 1; i >= 0; i-- {
		if !events[i].CreatedAt.Before(since) {
			e := events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r memSecurity) AddAudit(ctx context.Context, a *domain.AuditEntry) error {
	defer r.m.lock()()
	if err := r.m.fail("security.AddAudit"); err != nil {
		return err
	}
	st := *r.m.st
	a.ID = st.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.m.now()
	}
	st.audit = append(st.audit, *a)
	return nil
}

func (r memSecurity) ListAudit(ctx context.Context, limit, offset int) ([]*domain.AuditEntry, error) {
	defer r.m.lock()()
	entries := (*r.m.st).audit
	out := make([]*domain.AuditEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		a := entries[i]
		out = append(out, &a)
	}
	return page(out, limit, offset), nil
}

// --- manufacturer ---

type memManufacturer struct{ m *MemStore }

func (r memManufacturer) Create(ctx context.Context, b *domain.ManufacturerOrder) error {
	defer r.m.lock()()
	st := *r.m.st
	b.ID = st.id()
	stored := *b
	stored.Slugs = nil
	st.batches[b.ID] = stored
	return nil
}

func (r memManufacturer) FindByBatch(ctx context.Context, batchNumber string) (*domain.ManufacturerOrder, error) {
	defer r.m.lock()()
	for _, b := range (*r.m.st).batches {
		if b.BatchNumber == batchNumber {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("manufacturer order: %w", domain.ErrNotFound)
}

func (r memManufacturer) List(ctx context.Context, limit, offset int) ([]*domain.ManufacturerOrder, error) {
	defer r.m.lock()()
	var out []*domain.ManufacturerOrder
	for _, b := range (*r.m.st).batches {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), nil
}

func (r memManufacturer) Update(ctx context.Context, b *domain.ManufacturerOrder) error {
	defer r.m.lock()()
	st := *r.m.st
	if _, ok := st.batches[b.ID]; !ok {
		return fmt.Errorf("manufacturer order: %w", domain.ErrNotFound)
	}
	stored := *b
	stored.Slugs = nil
	st.batches[b.ID] = stored
	return nil
}

func (r memManufacturer) GenerateBatchNumber(ctx context.Context) (string, error) {
	defer r.m.lock()()
	prefix := "MFG-" + r.m.now().Format("20060102") + "-"
	n := 0
	for _, b := range (*r.m.st).batches {
		if strings.HasPrefix(b.BatchNumber, prefix) {
			n++
		}
	}
	return fmt.Sprintf("%s%03d", prefix, n+1), nil
}

// --- notifications ---

type memNotifications struct{ m *MemStore }

func (r memNotifications) Log(ctx context.Context, n *domain.NotificationLog) error {
	defer r.m.lock()()
	if err := r.m.fail("notifications.Log"); err != nil {
		return err
	}
	st := *r.m.st
	n.ID = st.id()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.m.now()
	}
	st.notifications = append(st.notifications, *n)
	return nil
}

func (r memNotifications) ListByRecipient(ctx context.Context, email string) ([]*domain.NotificationLog, error) {
	defer r.m.lock()()
	var out []*domain.NotificationLog
	for _, n := range (*r.m.st).notifications {
		if n.Recipient == email {
			n := n
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r memNotifications) DeleteByRecipient(ctx context.Context, email string) (int, error) {
	defer r.m.lock()()
	st := *r.m.st
	kept := st.notifications[:0:0]
	for _, n := range st.notifications {
		if n.Recipient != email {
			kept = append(kept, n)
		}
	}
	removed := len(st.notifications) - len(kept)
	st.notifications = kept
	return removed, nil
}

// --- webhooks ---

type memWebhooks struct{ m *MemStore }

func (r memWebhooks) Seen(ctx context.Context, eventID string) (bool, error) {
	defer r.m.lock()()
	_, ok := (*r.m.st).webhooks[eventID]
	return ok, nil
}

func (r memWebhooks) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	defer r.m.lock()()
	st := *r.m.st
	if _, ok := st.webhooks[eventID]; ok {
		return false, nil
	}
	st.webhooks[eventID] = eventType
	return true, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
