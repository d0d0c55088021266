package testutil

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

var ErrMock = errors.New("mock error")

// MockPublisher records published messages.
type MockPublisher struct {
	mu            sync.Mutex
	OrderEvents   []interfaces.OrderEventMessage
	StatusUpdates []interfaces.StatusUpdateMessage
	Err           error
}

func (p *MockPublisher) PublishOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.OrderEvents = append(p.OrderEvents, msg)
	return nil
}

func (p *MockPublisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.StatusUpdates = append(p.StatusUpdates, msg)
	return nil
}

// MockStorage keeps objects in a map.
type MockStorage struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	Deleted   []string
	PutErr    error
	DeleteErr error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{Objects: map[string][]byte{}}
}

func (s *MockStorage) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = data
	return nil
}

func (s *MockStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + key + "?expires=" + expiry.String(), nil
}

func (s *MockStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, key)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.Objects, key)
	return nil
}

// MockGateway implements interfaces.PaymentGateway with function fields.
type MockGateway struct {
	CreateCheckoutSessionFunc func(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.CheckoutSession, error)
	ParseWebhookFunc          func(payload []byte, signature string) (*interfaces.PaymentEvent, error)
}

func (g *MockGateway) CreateCheckoutSession(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.CheckoutSession, error) {
	if g.CreateCheckoutSessionFunc != nil {
		return g.CreateCheckoutSessionFunc(ctx, req)
	}
	return &interfaces.CheckoutSession{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

func (g *MockGateway) ParseWebhook(payload []byte, signature string) (*interfaces.PaymentEvent, error) {
	if g.ParseWebhookFunc != nil {
		return g.ParseWebhookFunc(payload, signature)
	}
	return nil, ErrMock
}

type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender records sent emails.
type MockEmailSender struct {
	Sent []SentEmail
	Err  error
}

func (m *MockEmailSender) Send(ctx context.Context, to, subject, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject, Body: body})
	return nil
}
