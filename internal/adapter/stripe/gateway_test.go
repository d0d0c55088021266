package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/config"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newTestGateway() *Gateway {
	return NewGateway(config.StripeConfig{
		SecretKey:     "sk_test_x",
		WebhookSecret: testSecret,
		Prices:        map[string]string{"premium": "price_premium"},
	})
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"charge.refunded","data":{"object":{}}}`)

	_, err := newTestGateway().ParseWebhook(payload, sign(payload, "whsec_other"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPaymentVerification)

	_, err = newTestGateway().ParseWebhook(payload, "")
	assert.ErrorIs(t, err, domain.ErrPaymentVerification)
}

func TestParseWebhookCheckoutCompleted(t *testing.T) {
	payload := []byte(`{
		"id": "evt_checkout",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"mode": "payment",
			"currency": "usd",
			"amount_subtotal": 4900,
			"amount_total": 5800,
			"total_details": {"amount_shipping": 500, "amount_tax": 400, "amount_discount": 0},
			"payment_intent": "pi_123",
			"customer": "cus_9",
			"metadata": {"plan": "lifetime"},
			"customer_details": {
				"email": "Jane@Example.com",
				"name": "Jane Doe",
				"address": {"line1": "1 Main St", "city": "Austin", "state": "TX", "postal_code": "78701", "country": "US"}
			}
		}}
	}`)

	ev, err := newTestGateway().ParseWebhook(payload, sign(payload, testSecret))
	require.NoError(t, err)

	assert.Equal(t, "evt_checkout", ev.ID)
	assert.Equal(t, interfaces.EventCheckoutCompleted, ev.Type)
	require.NotNil(t, ev.Checkout)

	cc := ev.Checkout
	assert.Equal(t, "cs_test_1", cc.SessionID)
	assert.Equal(t, "payment", cc.Mode)
	assert.Equal(t, "pi_123", cc.PaymentIntentID)
	assert.Equal(t, "cus_9", cc.CustomerID)
	assert.Equal(t, domain.PlanLifetime, cc.Plan)
	assert.Equal(t, domain.Amounts{Subtotal: 4900, Shipping: 500, Tax: 400, Total: 5800, Currency: "usd"}, cc.Amounts)
	assert.Equal(t, "Jane Doe", cc.Customer.Name)
	assert.Equal(t, "Jane@Example.com", cc.Customer.Email)
	assert.Equal(t, "Austin", cc.Address.City)
	assert.Equal(t, "US", cc.Address.Country)
}

func TestParseWebhookSubscriptionFallsBackToPriceMapping(t *testing.T) {
	payload := []byte(`{
		"id": "evt_sub",
		"object": "event",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"object": "subscription",
			"status": "active",
			"customer": "cus_9",
			"cancel_at_period_end": true,
			"current_period_end": 1767225600,
			"metadata": {"email": "jane@example.com"},
			"items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_premium", "object": "price"}}]}
		}}
	}`)

	ev, err := newTestGateway().ParseWebhook(payload, sign(payload, testSecret))
	require.NoError(t, err)
	require.NotNil(t, ev.Subscription)

	sub := ev.Subscription
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, "cus_9", sub.StripeCustomerID)
	assert.Equal(t, "jane@example.com", sub.CustomerEmail)
	assert.Equal(t, domain.PlanPremium, sub.Plan)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.True(t, sub.IsActive())
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, int64(1767225600), sub.CurrentPeriodEnd.Unix())
}

func TestParseWebhookChargeRefunded(t *testing.T) {
	payload := []byte(`{
		"id": "evt_refund",
		"object": "event",
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_1", "object": "charge", "payment_intent": "pi_123", "amount_refunded": 5800, "refunded": true}}
	}`)

	ev, err := newTestGateway().ParseWebhook(payload, sign(payload, testSecret))
	require.NoError(t, err)
	require.NotNil(t, ev.Refund)
	assert.Equal(t, interfaces.Refund{PaymentIntentID: "pi_123", AmountRefunded: 5800, FullyRefunded: true}, *ev.Refund)
}

func TestParseWebhookIgnoresOtherTypes(t *testing.T) {
	payload := []byte(`{"id":"evt_x","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)

	ev, err := newTestGateway().ParseWebhook(payload, sign(payload, testSecret))
	require.NoError(t, err)
	assert.Equal(t, "invoice.paid", ev.Type)
	assert.Nil(t, ev.Checkout)
	assert.Nil(t, ev.Subscription)
	assert.Nil(t, ev.Refund)
}
