package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/testutil"
)

func TestStartMapsPlanToPrice(t *testing.T) {
	var got interfaces.CheckoutRequest
	gw := &testutil.MockGateway{
		CreateCheckoutSessionFunc: func(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.CheckoutSession, error) {
			got = req
			return &interfaces.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}, nil
		},
	}
	svc := NewService(gw, map[string]string{"premium": "price_premium"}, logger.Nop())

	sess, err := svc.Start(context.Background(), domain.PlanPremium, "Coach@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, interfaces.CheckoutRequest{Plan: domain.PlanPremium, PriceID: "price_premium", Email: "coach@example.com"}, got)
}

func TestStartValidation(t *testing.T) {
	svc := NewService(&testutil.MockGateway{}, map[string]string{"basic": "price_basic"}, logger.Nop())
	ctx := context.Background()

	tests := []struct {
		name  string
		plan  domain.Plan
		email string
		field string
	}{
		{"unknown plan", domain.Plan("gold"), "", "plan"},
		{"plan without price", domain.PlanLifetime, "", "plan"},
		{"bad email", domain.PlanBasic, "nope", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(ctx, tt.plan, tt.email)
			var ve domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestStartPropagatesGatewayError(t *testing.T) {
	gw := &testutil.MockGateway{
		CreateCheckoutSessionFunc: func(context.Context, interfaces.CheckoutRequest) (*interfaces.CheckoutSession, error) {
			return nil, testutil.ErrMock
		},
	}
	svc := NewService(gw, map[string]string{"basic": "price_basic"}, logger.Nop())

	_, err := svc.Start(context.Background(), domain.PlanBasic, "")
	assert.ErrorIs(t, err, testutil.ErrMock)
}
