package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	amqpAdapter "github.com/YelzhanWeb/tagmytrophy/internal/adapter/amqp"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/postgres"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/notification"
)

func notifierCmd() *cobra.Command {
	var prefetch int

	cmd := &cobra.Command{
		Use:   "notifier",
		Short: "Consume order status updates and email customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if prefetch > 0 {
				cfg.RabbitMQ.Prefetch = prefetch
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lgr := logger.New("notifier")

			db, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
			if err != nil {
				return err
			}
			defer mqConn.Close()

			notifications := notification.NewService(postgres.NewStore(db), notification.LogSender{Logger: lgr}, cfg.App.BaseURL, lgr)
			handler := amqpAdapter.NewNotificationHandler(notifications, lgr)
			consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQ.Prefetch, lgr)

			lgr.Info("service_started", "Notifier started", "startup", map[string]any{"prefetch": cfg.RabbitMQ.Prefetch})

			err = consumer.ConsumeNotifications(ctx, handler.HandleNotification)
			lgr.Info("shutdown_initiated", "Shutting down notifier", "shutdown", nil)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&prefetch, "prefetch", 0, "RabbitMQ prefetch count (overrides rabbitmq.prefetch)")
	return cmd
}
