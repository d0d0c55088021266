package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/retry"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	exchanges  []string
	queues     []string
	bindings   []string
	published  []published
	publishErr error
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.exchanges = append(c.exchanges, name+":"+kind)
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	c.queues = append(c.queues, name)
	return Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	c.bindings = append(c.bindings, fmt.Sprintf("%s<-%s(%s)", name, exchange, key))
	return nil
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		err := c.publishErr
		c.publishErr = nil
		return err
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return make(chan amqp.Delivery), nil
}

func (c *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error { return nil }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func (c *fakeChannel) NotifyClose() <-chan *amqp.Error { return make(chan *amqp.Error) }

type fakeConn struct {
	ch    *fakeChannel
	opens int
}

func (c *fakeConn) Channel() (Channel, error) {
	c.opens++
	return c.ch, nil
}

func (c *fakeConn) Close() error   { return nil }
func (c *fakeConn) IsClosed() bool { return false }

var fastPolicy = retry.Policy{
	InitialInterval: time.Millisecond,
	MaxInterval:     time.Millisecond,
	MaxElapsedTime:  time.Second,
	MaxAttempts:     3,
}

func TestPublishOrderEvent(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(&fakeConn{ch: ch}, fastPolicy)

	err := p.PublishOrderEvent(context.Background(), interfaces.OrderEventMessage{
		Event:       "created",
		OrderNumber: "TMT-20261015-0001",
		Plan:        domain.PlanBasic,
		Total:       2999,
		Currency:    "usd",
	})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	assert.Equal(t, ordersExchange, ch.published[0].exchange)
	assert.Equal(t, "order.created", ch.published[0].key)
	assert.Equal(t, amqp.Persistent, ch.published[0].msg.DeliveryMode)
	assert.Contains(t, ch.exchanges, ordersExchange+":topic")
	assert.True(t, ch.closed)

	var decoded interfaces.OrderEventMessage
	require.NoError(t, json.Unmarshal(ch.published[0].msg.Body, &decoded))
	assert.Equal(t, "TMT-20261015-0001", decoded.OrderNumber)
}

func TestPublishStatusUpdateRetries(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel/connection is not open")}
	conn := &fakeConn{ch: ch}
	p := NewPublisher(conn, fastPolicy)

	err := p.PublishStatusUpdate(context.Background(), interfaces.StatusUpdateMessage{
		OrderNumber: "TMT-1",
		NewStatus:   domain.StatusShipped,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, conn.opens)
	require.Len(t, ch.published, 1)
	assert.Equal(t, notificationsExchange, ch.published[0].exchange)
	assert.Empty(t, ch.published[0].key)
}

func TestSetupNotificationsInfrastructure(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, setupNotificationsInfrastructure(ch))

	assert.Equal(t, []string{notificationsDLQ, notificationsQueue}, ch.queues)
	assert.Contains(t, ch.bindings, notificationsQueue+"<-"+notificationsExchange+"()")
	assert.Contains(t, ch.bindings, notificationsDLQ+"<-"+notificationsDLX+"()")
}

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *fakeAck) Ack(multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAck) Nack(multiple, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func TestSettle(t *testing.T) {
	c := &consumer{logger: logger.Nop()}
	ctx := context.Background()

	ok := &fakeAck{}
	c.settle(ctx, nil, false, ok, func(context.Context, []byte) error { return nil })
	assert.True(t, ok.acked)

	poison := &fakeAck{}
	c.settle(ctx, nil, false, poison, func(context.Context, []byte) error {
		return fmt.Errorf("bad json: %w", ErrPoisonMessage)
	})
	assert.True(t, poison.nacked)
	assert.False(t, poison.requeue)

	transient := &fakeAck{}
	c.settle(ctx, nil, false, transient, func(context.Context, []byte) error { return errors.New("db down") })
	assert.True(t, transient.nacked)
	assert.True(t, transient.requeue)
}

func TestSettleDeadLettersFailedRedelivery(t *testing.T) {
	c := &consumer{logger: logger.Nop()}
	calls := 0
	handler := func(context.Context, []byte) error {
		calls++
		return errors.New("db down")
	}

	again := &fakeAck{}
	c.settle(context.Background(), nil, true, again, handler)

	assert.Equal(t, 1, calls)
	assert.True(t, again.nacked)
	assert.False(t, again.requeue)
}

func TestSettleWaitsBeforeRequeue(t *testing.T) {
	c := &consumer{logger: logger.Nop(), requeueDelay: 20 * time.Millisecond}
	ack := &fakeAck{}

	start := time.Now()
	c.settle(context.Background(), nil, false, ack, func(context.Context, []byte) error { return errors.New("db down") })

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.True(t, ack.requeue)
}

func TestConsumeNotificationsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewConsumer(&fakeConn{ch: &fakeChannel{}}, 1, logger.Nop())

	done := make(chan error, 1)
	go func() {
		done <- c.ConsumeNotifications(ctx, func(context.Context, []byte) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
