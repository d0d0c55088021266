package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type orderRepository struct {
	db Querier
}

const orderColumns = `
	id, number, customer_name, customer_email, plan,
	subtotal, shipping, tax, total, currency,
	address_line1, address_line2, address_city, address_state, address_postal_code, address_country,
	status, qr_slug, stripe_session_id, stripe_payment_intent_id, tracking_number,
	created_at, updated_at, paid_at, shipped_at, delivered_at`

func scanOrder(row Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.Customer.Name, &o.Customer.Email, &o.Plan,
		&o.Amounts.Subtotal, &o.Amounts.Shipping, &o.Amounts.Tax, &o.Amounts.Total, &o.Amounts.Currency,
		&o.ShippingAddress.Line1, &o.ShippingAddress.Line2, &o.ShippingAddress.City,
		&o.ShippingAddress.State, &o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.Status, &o.QRSlug, &o.StripeSessionID, &o.StripePaymentIntentID, &o.TrackingNumber,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (number, customer_name, customer_email, plan,
		                    subtotal, shipping, tax, total, currency,
		                    address_line1, address_line2, address_city, address_state, address_postal_code, address_country,
		                    status, qr_slug, stripe_session_id, stripe_payment_intent_id, tracking_number,
		                    created_at, updated_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id
	`
	a := order.ShippingAddress
	err := r.db.QueryRow(ctx, query,
		order.Number, order.Customer.Name, order.Customer.Email, order.Plan,
		order.Amounts.Subtotal, order.Amounts.Shipping, order.Amounts.Tax, order.Amounts.Total, order.Amounts.Currency,
		a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country,
		order.Status, order.QRSlug, order.StripeSessionID, order.StripePaymentIntentID, order.TrackingNumber,
		order.CreatedAt, order.UpdatedAt, order.PaidAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) findOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where
	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, "number = $1", number)
}

func (r *orderRepository) FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	return r.findOne(ctx, "stripe_session_id = $1", sessionID)
}

func (r *orderRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	return r.findOne(ctx, "stripe_payment_intent_id = $1", paymentIntentID)
}

func (r *orderRepository) FindByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_email = $1 ORDER BY created_at`
	return r.list(ctx, query, email)
}

func (r *orderRepository) List(ctx context.Context, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if filter.Status != nil {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		return r.list(ctx, query, *filter.Status, limit, filter.Offset)
	}
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, filter.Offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET customer_name = $1, customer_email = $2,
		    address_line1 = $3, address_line2 = $4, address_city = $5,
		    address_state = $6, address_postal_code = $7, address_country = $8,
		    status = $9, qr_slug = $10, stripe_payment_intent_id = $11, tracking_number = $12,
		    updated_at = $13, paid_at = $14, shipped_at = $15, delivered_at = $16
		WHERE id = $17
	`
	a := order.ShippingAddress
	tag, err := r.db.Exec(ctx, query,
		order.Customer.Name, order.Customer.Email,
		a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country,
		order.Status, order.QRSlug, order.StripePaymentIntentID, order.TrackingNumber,
		order.UpdatedAt, order.PaidAt, order.ShippedAt, order.DeliveredAt,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", order.Number, domain.ErrNotFound)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int64) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// GenerateOrderNumber numbers orders per UTC day: TMT-20261015-0001.
func (r *orderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	day := time.Now().UTC().Format("20060102")
	prefix := "TMT-" + day + "-"

	n, err := nextDailyCounter(ctx, r.db, "order", day,
		`SELECT COUNT(*) FROM orders WHERE number LIKE $3`, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("failed to number order: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, n), nil
}

// nextDailyCounter bumps the counter for scope and day. The upsert holds the
// counter row lock until the caller's transaction ends, so concurrent callers
// never read the same value. A missing row starts after the rows already
// counted by seedQuery.
func nextDailyCounter(ctx context.Context, db Querier, scope, day, seedQuery string, seedArg any) (int, error) {
	query := `
		INSERT INTO daily_counters (scope, day, value)
		VALUES ($1, $2, (` + seedQuery + `) + 1)
		ON CONFLICT (scope, day) DO UPDATE SET value = daily_counters.value + 1
		RETURNING value
	`
	var n int
	if err := db.QueryRow(ctx, query, scope, day, seedArg).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *orderRepository) LogStatus(ctx context.Context, orderID int64, status domain.Status, changedBy string, notes *string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, orderID, status, changedBy, time.Now().UTC(), notes); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}
