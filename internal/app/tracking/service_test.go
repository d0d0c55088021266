package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/testutil"
)

func TestTrack(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	tracking := "1Z999"
	store.PutOrder(&domain.Order{
		Number:         "TMT-20260101-0001",
		Customer:       domain.Customer{Name: "Jane", Email: "jane@example.com"},
		Plan:           domain.PlanBasic,
		Status:         domain.StatusShipped,
		TrackingNumber: &tracking,
	})
	order, err := store.Orders().FindByNumber(ctx, "TMT-20260101-0001")
	require.NoError(t, err)
	require.NoError(t, store.Orders().LogStatus(ctx, order.ID, domain.StatusPaid, "stripe_webhook", nil))
	require.NoError(t, store.Orders().LogStatus(ctx, order.ID, domain.StatusShipped, "admin", nil))

	svc := NewService(store, logger.Nop())

	t.Run("owner sees history", func(t *testing.T) {
		view, err := svc.Track(ctx, "TMT-20260101-0001", " Jane@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusShipped, view.Status)
		require.NotNil(t, view.TrackingNumber)
		assert.Equal(t, "1Z999", *view.TrackingNumber)
		require.Len(t, view.History, 2)
		assert.Equal(t, domain.StatusPaid, view.History[0].Status)
	})

	t.Run("other email is not found", func(t *testing.T) {
		_, err := svc.Track(ctx, "TMT-20260101-0001", "someone@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.Track(ctx, "TMT-20260101-0001", "nope")
		var ve domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "email", ve.Field)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.Track(ctx, "TMT-20260101-0099", "jane@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
