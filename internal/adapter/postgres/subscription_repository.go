package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

type subscriptionRepository struct {
	db Querier
}

const subscriptionColumns = `id, stripe_subscription_id, stripe_customer_id, customer_email, plan, status,
	current_period_end, cancel_at_period_end, created_at, updated_at`

func scanSubscription(row Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(&s.ID, &s.StripeSubscriptionID, &s.StripeCustomerID, &s.CustomerEmail, &s.Plan, &s.Status,
		&s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert keeps a previously known customer, email and plan when the incoming
// event does not carry them. A canceled row stays canceled.
func (r *subscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (stripe_subscription_id, stripe_customer_id, customer_email, plan, status,
		                           current_period_end, cancel_at_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			stripe_customer_id   = COALESCE(NULLIF(EXCLUDED.stripe_customer_id, ''), subscriptions.stripe_customer_id),
			customer_email       = COALESCE(NULLIF(EXCLUDED.customer_email, ''), subscriptions.customer_email),
			plan                 = COALESCE(NULLIF(EXCLUDED.plan, ''), subscriptions.plan),
			status               = CASE WHEN subscriptions.status = 'canceled'
			                            THEN subscriptions.status ELSE EXCLUDED.status END,
			current_period_end   = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at           = EXCLUDED.updated_at
		RETURNING id, status
	`
	err := r.db.QueryRow(ctx, query,
		s.StripeSubscriptionID, s.StripeCustomerID, s.CustomerEmail, s.Plan, s.Status,
		s.CurrentPeriodEnd, s.CancelAtPeriodEnd, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID, &s.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// SetCustomer fills in the customer id and email of an existing row where
// they are still empty. Status and billing period are left alone.
func (r *subscriptionRepository) SetCustomer(ctx context.Context, stripeSubscriptionID, customerID, email string) error {
	query := `
		UPDATE subscriptions SET
			stripe_customer_id = COALESCE(NULLIF(stripe_customer_id, ''), $2),
			customer_email     = COALESCE(NULLIF(customer_email, ''), $3),
			updated_at         = NOW()
		WHERE stripe_subscription_id = $1
	`
	tag, err := r.db.Exec(ctx, query, stripeSubscriptionID, customerID, email)
	if err != nil {
		return fmt.Errorf("failed to set subscription customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) FindByStripeID(ctx context.Context, id string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_subscription_id = $1`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return s, nil
}

func (r *subscriptionRepository) FindByEmail(ctx context.Context, email string) ([]*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE customer_email = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *subscriptionRepository) DeleteByEmail(ctx context.Context, email string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE customer_email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
