package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/tagmytrophy/internal/interfaces"
)

// StatusUpdateProcessor handles a decoded status update.
type StatusUpdateProcessor interface {
	HandleStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error
}

type NotificationHandler struct {
	processor StatusUpdateProcessor
	logger    logger.Logger
}

func NewNotificationHandler(processor StatusUpdateProcessor, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		processor: processor,
		logger:    logger,
	}
}

// HandleNotification decodes a status update delivery. Bodies that cannot
// be decoded are poison and get dead-lettered.
func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return fmt.Errorf("%w: %v", rabbitmq.ErrPoisonMessage, err)
	}
	if msg.OrderNumber == "" || msg.NewStatus == "" {
		return fmt.Errorf("%w: missing order number or status", rabbitmq.ErrPoisonMessage)
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", msg.OrderNumber),
		"", map[string]any{
			"order_number": msg.OrderNumber,
			"new_status":   msg.NewStatus,
		})

	return h.processor.HandleStatusUpdate(ctx, msg)
}
