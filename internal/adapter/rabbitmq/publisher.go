package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
	"github.com/YelzhanWeb/tagmytrophy/internal/retry"
)

type publisher struct {
	conn   Connection
	policy retry.Policy
}

func NewPublisher(conn Connection, policy retry.Policy) interfaces.MessagePublisher {
	return &publisher{conn: conn, policy: policy}
}

// PublishOrderEvent routes on "order.<event>", e.g. order.created.
func (p *publisher) PublishOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return p.publish(ctx, ordersExchange, "topic", "order."+msg.Event, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    msg.OrderNumber + ":" + msg.Event,
		Body:         body,
	})
}

func (p *publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return p.publish(ctx, notificationsExchange, "fanout", "", amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
}

func (p *publisher) publish(ctx context.Context, exchange, kind, key string, msg amqp.Publishing) error {
	return retry.Do(ctx, p.policy, func() error {
		ch, err := p.conn.Channel()
		if err != nil {
			return err
		}
		defer ch.Close()

		if err := ch.ExchangeDeclare(exchange, kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange: %w", err)
		}

		if err := ch.Publish(exchange, key, false, false, msg); err != nil {
			return fmt.Errorf("failed to publish message: %w", err)
		}
		return nil
	})
}
