package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(r.values) < len(dest) {
		return pgx.ErrNoRows
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int:
			*p = r.values[i].(int)
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeQuerier struct {
	queries []string
	args    [][]any
	row     fakeRow
	tag     fakeTag
}

type emptyRows struct{}

func (emptyRows) Next() bool             { return false }
func (emptyRows) Scan(dest ...any) error { return pgx.ErrNoRows }
func (emptyRows) Err() error             { return nil }
func (emptyRows) Close()                 {}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	q.queries = append(q.queries, sql)
	q.args = append(q.args, args)
	return emptyRows{}, nil
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	q.queries = append(q.queries, sql)
	q.args = append(q.args, args)
	return q.row
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	q.queries = append(q.queries, sql)
	q.args = append(q.args, args)
	return q.tag, nil
}

type fakeTx struct {
	fakeQuerier
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	fakeQuerier
	tx *fakeTx
}

func (d *fakeDB) Begin(ctx context.Context) (Tx, error) {
	d.tx = &fakeTx{fakeQuerier: fakeQuerier{tag: 1}}
	return d.tx, nil
}

func (d *fakeDB) Close() {}

func TestInTxCommits(t *testing.T) {
	db := &fakeDB{}
	s := NewStore(db)

	err := s.InTx(context.Background(), func(tx interfaces.Store) error {
		_, err := tx.Webhooks().MarkProcessed(context.Background(), "evt_1", "checkout.session.completed")
		return err
	})
	require.NoError(t, err)

	require.NotNil(t, db.tx)
	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)
	assert.Len(t, db.tx.queries, 1)
	assert.Empty(t, db.queries)
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := &fakeDB{}
	s := NewStore(db)
	boom := errors.New("boom")

	err := s.InTx(context.Background(), func(tx interfaces.Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, db.tx.committed)
	assert.True(t, db.tx.rolledBack)
}

func TestNestedInTxReusesTransaction(t *testing.T) {
	db := &fakeDB{}
	s := NewStore(db)
	var first *fakeTx

	err := s.InTx(context.Background(), func(tx interfaces.Store) error {
		first = db.tx
		return tx.InTx(context.Background(), func(inner interfaces.Store) error {
			return nil
		})
	})
	require.NoError(t, err)
	assert.Same(t, first, db.tx)
}

func TestSlugFindLocksInsideTx(t *testing.T) {
	db := &fakeDB{}
	s := NewStore(db)

	_, _ = s.Slugs().Find(context.Background(), "brave-oak-1234")
	require.Len(t, db.queries, 1)
	assert.NotContains(t, db.queries[0], "FOR UPDATE")

	_ = s.InTx(context.Background(), func(tx interfaces.Store) error {
		_, _ = tx.Slugs().Find(context.Background(), "brave-oak-1234")
		return nil
	})
	require.Len(t, db.tx.queries, 1)
	assert.Contains(t, db.tx.queries[0], "FOR UPDATE")
}

func TestNotFoundMapping(t *testing.T) {
	db := &fakeDB{fakeQuerier: fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}}
	s := NewStore(db)

	_, err := s.Orders().FindByNumber(context.Background(), "TMT-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	db.row = fakeRow{err: errors.New("connection reset")}
	_, err = s.Orders().FindByNumber(context.Background(), "TMT-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateOrderNumber(t *testing.T) {
	db := &fakeDB{fakeQuerier: fakeQuerier{row: fakeRow{values: []any{7}}}}
	s := NewStore(db)

	number, err := s.Orders().GenerateOrderNumber(context.Background())
	require.NoError(t, err)

	day := time.Now().UTC().Format("20060102")
	assert.Equal(t, "TMT-"+day+"-0007", number)

	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], "daily_counters")
	assert.Contains(t, db.queries[0], "ON CONFLICT (scope, day) DO UPDATE")
	assert.Equal(t, []any{"order", day, "TMT-" + day + "-%"}, db.args[0])
}

func TestGenerateBatchNumberUsesOwnScope(t *testing.T) {
	db := &fakeDB{fakeQuerier: fakeQuerier{row: fakeRow{values: []any{12}}}}
	s := NewStore(db)

	number, err := s.Manufacturer().GenerateBatchNumber(context.Background())
	require.NoError(t, err)

	day := time.Now().UTC().Format("20060102")
	assert.Equal(t, "MFG-"+day+"-012", number)
	assert.Equal(t, "batch", db.args[0][0])
	assert.Contains(t, db.queries[0], "manufacturer_orders")
}

func TestMarkProcessedDuplicate(t *testing.T) {
	db := &fakeDB{fakeQuerier: fakeQuerier{tag: 0}}
	s := NewStore(db)

	isNew, err := s.Webhooks().MarkProcessed(context.Background(), "evt_1", "x")
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestSubscriptionUpsertKeepsCanceled(t *testing.T) {
	db := &fakeDB{fakeQuerier: fakeQuerier{row: fakeRow{values: []any{int64(5), domain.SubscriptionCanceled}}}}
	s := NewStore(db)

	sub := &domain.Subscription{StripeSubscriptionID: "sub_1", Status: "active"}
	require.NoError(t, s.Subscriptions().Upsert(context.Background(), sub))

	assert.Equal(t, int64(5), sub.ID)
	assert.Equal(t, domain.SubscriptionCanceled, sub.Status)
	assert.Contains(t, db.queries[0], "WHEN subscriptions.status = 'canceled'")
	assert.Contains(t, db.queries[0], "COALESCE(NULLIF(EXCLUDED.customer_email, ''), subscriptions.customer_email)")
	assert.Contains(t, db.queries[0], "RETURNING id, status")
}

func TestSubscriptionSetCustomer(t *testing.T) {
	db := &fakeDB{fakeQuerier: fakeQuerier{tag: 1}}
	s := NewStore(db)

	require.NoError(t, s.Subscriptions().SetCustomer(context.Background(), "sub_1", "cus_1", "jane@example.com"))
	assert.Equal(t, []any{"sub_1", "cus_1", "jane@example.com"}, db.args[0])
	assert.NotContains(t, db.queries[0], "status")

	db.tag = 0
	err := s.Subscriptions().SetCustomer(context.Background(), "sub_missing", "cus_1", "jane@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReleaseByOwner(t *testing.T) {
	db := &fakeDB{fakeQuerier: fakeQuerier{tag: 3}}
	s := NewStore(db)

	n, err := s.Slugs().ReleaseByOwner(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []any{domain.SlugAvailable, "jane@example.com"}, db.args[0])
}

func TestOrderListStatusFilter(t *testing.T) {
	db := &fakeDB{}
	s := NewStore(db)
	status := domain.StatusPacked

	orders, err := s.Orders().List(context.Background(), interfaces.OrderFilter{Status: &status, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Contains(t, db.queries[0], "WHERE status = $1")
	assert.Equal(t, []any{status, 10, 20}, db.args[0])

	_, err = s.Orders().List(context.Background(), interfaces.OrderFilter{Limit: 999})
	require.NoError(t, err)
	assert.NotContains(t, db.queries[1], "WHERE")
	assert.Equal(t, []any{50, 0}, db.args[1])
}
