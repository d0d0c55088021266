package notification

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/testutil"
)

func TestRender(t *testing.T) {
	svc := NewService(nil, nil, "https://tagmytrophy.test/", logger.Nop())
	tracking := "1Z999"
	slug := "brave-oak-7k2p"

	tests := []struct {
		name     string
		msg      interfaces.StatusUpdateMessage
		template string
		contains string
	}{
		{
			name:     "shipped includes tracking",
			msg:      interfaces.StatusUpdateMessage{OrderNumber: "TMT-1", NewStatus: domain.StatusShipped, TrackingNumber: &tracking},
			template: "order_shipped",
			contains: "Tracking number: 1Z999",
		},
		{
			name:     "packed links the memory page",
			msg:      interfaces.StatusUpdateMessage{OrderNumber: "TMT-1", NewStatus: domain.StatusPacked, QRSlug: &slug},
			template: "order_packed",
			contains: "https://tagmytrophy.test/m/brave-oak-7k2p",
		},
		{
			name:     "greets by name",
			msg:      interfaces.StatusUpdateMessage{OrderNumber: "TMT-1", CustomerName: "Jane", NewStatus: domain.StatusPaid},
			template: "order_paid",
			contains: "Hi Jane,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := svc.Render(tt.msg)
			assert.Equal(t, tt.template, e.Template)
			assert.Contains(t, e.Body, tt.contains)
			assert.Contains(t, e.Subject, "TMT-1")
		})
	}
}

func TestHandleStatusUpdateRecordsSent(t *testing.T) {
	store := testutil.NewMemStore()
	sender := &testutil.MockEmailSender{}
	svc := NewService(store, sender, "http://localhost", logger.Nop())

	err := svc.HandleStatusUpdate(context.Background(), interfaces.StatusUpdateMessage{
		OrderNumber:   "TMT-2",
		CustomerEmail: "jane@example.com",
		OldStatus:     domain.StatusPaid,
		NewStatus:     domain.StatusProcessing,
	})
	require.NoError(t, err)

	require.Len(t, sender.Sent, 1)
	assert.Equal(t, "jane@example.com", sender.Sent[0].To)

	logs := store.NotificationLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.NotificationSent, logs[0].Status)
	assert.Equal(t, "order_processing", logs[0].Template)
}

func TestHandleStatusUpdateRecordsFailure(t *testing.T) {
	store := testutil.NewMemStore()
	svc := NewService(store, &testutil.MockEmailSender{Err: testutil.ErrMock}, "", logger.Nop())

	err := svc.HandleStatusUpdate(context.Background(), interfaces.StatusUpdateMessage{
		OrderNumber:   "TMT-3",
		CustomerEmail: "jane@example.com",
		NewStatus:     domain.StatusCancelled,
	})
	require.NoError(t, err)

	logs := store.NotificationLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.NotificationFailed, logs[0].Status)
	require.NotNil(t, logs[0].Error)
	assert.Equal(t, testutil.ErrMock.Error(), *logs[0].Error)
}

func TestHandleStatusUpdateReturnsLogError(t *testing.T) {
	store := testutil.NewMemStore()
	store.Fail["notifications.Log"] = testutil.ErrMock
	svc := NewService(store, &testutil.MockEmailSender{}, "", logger.Nop())

	err := svc.HandleStatusUpdate(context.Background(), interfaces.StatusUpdateMessage{
		OrderNumber:   "TMT-4",
		CustomerEmail: "jane@example.com",
		NewStatus:     domain.StatusDelivered,
	})
	assert.ErrorIs(t, err, testutil.ErrMock)
}

func TestLogSenderOmitsRecipientAndBody(t *testing.T) {
	var buf bytes.Buffer
	sender := LogSender{Logger: logger.NewWithWriter("notifier", &buf)}

	err := sender.Send(context.Background(), "jane@example.com", "Your order TMT-1 has shipped", "Hi Jane, tracking 1Z999")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "email_sent")
	assert.Contains(t, out, "TMT-1")
	assert.NotContains(t, out, "jane@example.com")
	assert.NotContains(t, out, "Hi Jane")
}
