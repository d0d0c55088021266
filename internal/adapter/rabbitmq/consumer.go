package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/retry"
)

// ErrPoisonMessage marks a delivery that must not be requeued.
var ErrPoisonMessage = errors.New("poison message")

// requeueDelay spaces out the single retry of a failed delivery.
const requeueDelay = 2 * time.Second

type consumer struct {
	conn         Connection
	prefetch     int
	requeueDelay time.Duration
	logger       logger.Logger
}

func NewConsumer(conn Connection, prefetch int, lgr logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, prefetch: prefetch, requeueDelay: requeueDelay, logger: lgr}
}

// ConsumeNotifications blocks until ctx is cancelled, reconnecting with
// backoff whenever the channel drops.
func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	err := retry.Do(ctx, retry.Forever, func() error {
		err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		c.logger.Error("consumer_disconnected", "Notifications consumer disconnected, reconnecting", "", nil, err)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *consumer) consume(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := setupNotificationsInfrastructure(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(notificationsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			c.dispatch(ctx, msg, handler)
		}
	}
}

// Acknowledger is the subset of amqp.Delivery used for settlement.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *consumer) dispatch(ctx context.Context, msg amqp.Delivery, handler interfaces.NotificationHandler) {
	c.settle(ctx, msg.Body, msg.Redelivered, &msg, handler)
}

// settle runs handler and acks, requeues, or dead-letters the delivery. A
// failed delivery is requeued once after a pause; a failure on redelivery
// goes to the dead-letter queue.
func (c *consumer) settle(ctx context.Context, body []byte, redelivered bool, ack Acknowledger, handler interfaces.NotificationHandler) {
	err := handler(ctx, body)
	switch {
	case err == nil:
		_ = ack.Ack(false)
	case errors.Is(err, ErrPoisonMessage):
		c.logger.Error("message_dead_lettered", "Dropping unprocessable notification", "", nil, err)
		_ = ack.Nack(false, false)
	case redelivered:
		c.logger.Error("message_dead_lettered", "Notification failed again after redelivery", "", nil, err)
		_ = ack.Nack(false, false)
	default:
		c.logger.Error("message_requeued", "Notification handling failed, requeueing", "",
			map[string]any{"delay": c.requeueDelay.String()}, err)
		if c.requeueDelay > 0 {
			t := time.NewTimer(c.requeueDelay)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}
		_ = ack.Nack(false, true)
	}
}

func setupNotificationsInfrastructure(ch Channel) error {
	if err := ch.ExchangeDeclare(notificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare notifications exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(notificationsDLX, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(notificationsDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(notificationsDLQ, "", notificationsDLX, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{"x-dead-letter-exchange": notificationsDLX}
	q, err := ch.QueueDeclare(notificationsQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare notifications queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", notificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind notifications queue: %w", err)
	}

	return nil
}
