package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/YelzhanWeb/tagmytrophy/internal/adapter/http"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/postgres"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/s3"
	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/stripe"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/checkout"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/manufacturer"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/memory"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/order"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/privacy"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/security"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/slug"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/subscription"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/tracking"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/webhook"
	"github.com/YelzhanWeb/tagmytrophy/internal/qrslug"
	"github.com/YelzhanWeb/tagmytrophy/internal/retry"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lgr := logger.New("api")

			db, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]any{
				"host": cfg.Database.Host,
				"db":   cfg.Database.Database,
			})

			mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
			if err != nil {
				return err
			}
			defer mqConn.Close()
			lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]any{"host": cfg.RabbitMQ.Host})

			storage, err := s3.New(ctx, cfg.Storage)
			if err != nil {
				return err
			}

			store := postgres.NewStore(db)
			publisher := rabbitmq.NewPublisher(mqConn, retry.DefaultPolicy)
			gateway := stripe.NewGateway(cfg.Stripe)
			generator := qrslug.NewGenerator(time.Now().UnixNano())

			orders := order.NewService(store, publisher, lgr)
			sec := security.NewService(store, lgr)
			slugs := slug.NewService(store, generator, lgr)
			memories := memory.NewService(store, storage, cfg.Storage, lgr)
			hooks := webhook.NewService(gateway, store, orders, subscription.NewService(store, lgr), sec, lgr)

			maxUpload := max(cfg.Storage.MaxPhotoBytes, cfg.Storage.MaxVideoBytes)
			handler := httpAdapter.NewRouter(httpAdapter.Handlers{
				Orders:   httpAdapter.NewOrderHandler(orders, lgr),
				Tracking: httpAdapter.NewTrackingHandler(tracking.NewService(store, lgr), lgr),
				Checkout: httpAdapter.NewCheckoutHandler(checkout.NewService(gateway, cfg.Stripe.Prices, lgr), hooks, lgr),
				Memories: httpAdapter.NewMemoryHandler(slugs, memories, sec, maxUpload, lgr),
				Privacy:  httpAdapter.NewPrivacyHandler(privacy.NewService(store, storage, lgr), lgr),
				Admin:    httpAdapter.NewAdminHandler(slugs, sec, manufacturer.NewService(store, generator, lgr), lgr),
				Health: func(ctx context.Context) error {
					_, err := db.Exec(ctx, "SELECT 1")
					return err
				},
			}, httpAdapter.NewRateLimiter(cfg.RateLimit, sec, lgr), lgr)

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      handler,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				lgr.Info("service_started", fmt.Sprintf("API started on port %d", cfg.Server.Port), "startup",
					map[string]any{"port": cfg.Server.Port})
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					lgr.Error("server_error", "Server error", "runtime", nil, err)
					return err
				}
				return nil
			case <-ctx.Done():
			}

			lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides server.port)")
	return cmd
}
