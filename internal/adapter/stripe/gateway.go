// Package stripe talks to Stripe Checkout and turns verified webhook
// events into payment events.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/YelzhanWeb/tagmytrophy/internal/config"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

const planMetadataKey = "plan"
const emailMetadataKey = "email"

type Gateway struct {
	api           *client.API
	webhookSecret string
	plans         map[string]domain.Plan
	successURL    string
	cancelURL     string
	countries     []string
}

func NewGateway(cfg config.StripeConfig) *Gateway {
	plans := make(map[string]domain.Plan, len(cfg.Prices))
	for plan, price := range cfg.Prices {
		plans[price] = domain.Plan(plan)
	}

	return &Gateway{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		plans:         plans,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		countries:     cfg.Countries,
	}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.CheckoutSession, error) {
	mode := stripe.CheckoutSessionModePayment
	if req.Plan.Recurring() {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(g.countries),
		},
	}
	params.Context = ctx
	params.AddMetadata(planMetadataKey, string(req.Plan))
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if mode == stripe.CheckoutSessionModeSubscription {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				planMetadataKey:  string(req.Plan),
				emailMetadataKey: req.Email,
			},
		}
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &interfaces.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and translates the
// handled event types. Unhandled types come back with no payload set.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*interfaces.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentVerification, err)
	}

	out := &interfaces.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case interfaces.EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, g.decodeError(event, err)
		}
		out.Checkout = g.checkoutCompleted(&sess)

	case interfaces.EventSubscriptionCreated, interfaces.EventSubscriptionUpdated, interfaces.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, g.decodeError(event, err)
		}
		out.Subscription = g.subscription(&sub)

	case interfaces.EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, g.decodeError(event, err)
		}
		out.Refund = &interfaces.Refund{
			AmountRefunded: ch.AmountRefunded,
			FullyRefunded:  ch.Refunded,
		}
		if ch.PaymentIntent != nil {
			out.Refund.PaymentIntentID = ch.PaymentIntent.ID
		}
	}

	return out, nil
}

func (g *Gateway) decodeError(event stripe.Event, err error) error {
	return &domain.PaymentError{EventID: event.ID, Type: string(event.Type), Err: fmt.Errorf("failed to decode event object: %w", err)}
}

func (g *Gateway) checkoutCompleted(sess *stripe.CheckoutSession) *interfaces.CheckoutCompleted {
	cc := &interfaces.CheckoutCompleted{
		SessionID: sess.ID,
		Mode:      string(sess.Mode),
		Plan:      domain.Plan(sess.Metadata[planMetadataKey]),
		Amounts: domain.Amounts{
			Subtotal: sess.AmountSubtotal,
			Total:    sess.AmountTotal,
			Currency: strings.ToLower(string(sess.Currency)),
		},
	}

	if sess.TotalDetails != nil {
		cc.Amounts.Shipping = sess.TotalDetails.AmountShipping
		cc.Amounts.Tax = sess.TotalDetails.AmountTax
	}
	if sess.PaymentIntent != nil {
		cc.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.Customer != nil {
		cc.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		cc.SubscriptionID = sess.Subscription.ID
	}

	if d := sess.CustomerDetails; d != nil {
		cc.Customer = domain.Customer{Name: d.Name, Email: d.Email}
		cc.Address = address(d.Address)
	}
	if cc.Customer.Email == "" {
		cc.Customer.Email = sess.CustomerEmail
	}
	if s := sess.ShippingDetails; s != nil {
		if s.Name != "" {
			cc.Customer.Name = s.Name
		}
		if s.Address != nil {
			cc.Address = address(s.Address)
		}
	}

	return cc
}

func (g *Gateway) subscription(sub *stripe.Subscription) *domain.Subscription {
	out := &domain.Subscription{
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		CustomerEmail:        sub.Metadata[emailMetadataKey],
		Plan:                 domain.Plan(sub.Metadata[planMetadataKey]),
	}

	if sub.Customer != nil {
		out.StripeCustomerID = sub.Customer.ID
		if out.CustomerEmail == "" {
			out.CustomerEmail = sub.Customer.Email
		}
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &end
	}
	if !out.Plan.Valid() && sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.Price == nil {
				continue
			}
			if plan, ok := g.plans[item.Price.ID]; ok {
				out.Plan = plan
				break
			}
		}
	}

	return out
}

func address(a *stripe.Address) domain.Address {
	if a == nil {
		return domain.Address{}
	}
	return domain.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
