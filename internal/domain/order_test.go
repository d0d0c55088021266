package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(
		Customer{Name: " Jane Doe ", Email: "Jane@Example.com"},
		PlanPremium,
		Amounts{Subtotal: 2999, Shipping: 499, Tax: 250, Currency: "usd"},
		Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		"cs_test_1",
	)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	o := newTestOrder(t)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "Jane Doe", o.Customer.Name)
	assert.Equal(t, "jane@example.com", o.Customer.Email)
	assert.Equal(t, int64(3748), o.Amounts.Total)
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		plan    Plan
		amounts Amounts
		session string
	}{
		{"bad email", "nope", PlanBasic, Amounts{Subtotal: 1, Currency: "usd"}, "cs_1"},
		{"bad plan", "a@b.co", Plan("gold"), Amounts{Subtotal: 1, Currency: "usd"}, "cs_1"},
		{"negative", "a@b.co", PlanBasic, Amounts{Subtotal: -1, Currency: "usd"}, "cs_1"},
		{"no currency", "a@b.co", PlanBasic, Amounts{Subtotal: 1}, "cs_1"},
		{"no session", "a@b.co", PlanBasic, Amounts{Subtotal: 1, Currency: "usd"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(Customer{Email: tt.email}, tt.plan, tt.amounts, Address{}, tt.session)
			assert.Error(t, err)
		})
	}
}

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusPacked, true},
		{StatusPaid, StatusProcessing, true},
		{StatusProcessing, StatusPacked, true},
		{StatusPacked, StatusShipped, true},
		{StatusPacked, StatusPaid, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusRefunded, true},
		{StatusCancelled, StatusPaid, false},
		{StatusRefunded, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			o := &Order{Status: tt.from}
			err := o.TransitionTo(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, o.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
				assert.Equal(t, tt.from, o.Status)
			}
		})
	}
}

func TestTransitionTimestamps(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.TransitionTo(StatusPaid))
	assert.NotNil(t, o.PaidAt)
	require.NoError(t, o.TransitionTo(StatusPacked))
	require.NoError(t, o.TransitionTo(StatusShipped))
	assert.NotNil(t, o.ShippedAt)
	require.NoError(t, o.TransitionTo(StatusDelivered))
	assert.NotNil(t, o.DeliveredAt)
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("shipped")
	assert.True(t, ok)
	assert.Equal(t, StatusShipped, s)

	_, ok = ParseStatus("teleported")
	assert.False(t, ok)
}

func TestAnonymize(t *testing.T) {
	o := newTestOrder(t)
	o.Number = "TMT-20260101-0001"
	o.Anonymize()

	assert.Equal(t, "deleted", o.Customer.Name)
	assert.Equal(t, "deleted+TMT-20260101-0001@invalid", o.Customer.Email)
	assert.Empty(t, o.ShippingAddress.Line1)
	assert.Equal(t, "US", o.ShippingAddress.Country)
}
