package http

import (
	"context"
	"net/http"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
)

type Handlers struct {
	Orders   *OrderHandler
	Tracking *TrackingHandler
	Checkout *CheckoutHandler
	Memories *MemoryHandler
	Privacy  *PrivacyHandler
	Admin    *AdminHandler
	// Health backs /healthz; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter registers every route. Everything under /api/ passes through
// the rate limiter; /healthz does not.
func NewRouter(h Handlers, limiter *RateLimiter, lgr logger.Logger) http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /api/checkout", h.Checkout.Start)
	api.HandleFunc("POST /api/webhooks/stripe", h.Checkout.Webhook)
	api.HandleFunc("GET /api/orders/{number}/tracking", h.Tracking.Track)

	api.HandleFunc("GET /api/slugs/{slug}", h.Memories.LookupSlug)
	api.HandleFunc("POST /api/slugs/{slug}/claim", h.Memories.Claim)
	api.HandleFunc("GET /api/memories/{slug}", h.Memories.Get)
	api.HandleFunc("PATCH /api/memories/{slug}", h.Memories.Update)
	api.HandleFunc("POST /api/memories/{slug}/media", h.Memories.Upload)
	api.HandleFunc("POST /api/memories/{slug}/stories", h.Memories.AddStory)
	api.HandleFunc("DELETE /api/memories/{slug}/media/{id}", h.Memories.DeleteMedia)

	api.HandleFunc("GET /api/privacy/export", h.Privacy.Export)
	api.HandleFunc("POST /api/privacy/delete", h.Privacy.Delete)

	api.HandleFunc("GET /api/admin/orders", h.Orders.List)
	api.HandleFunc("GET /api/admin/orders/{number}", h.Orders.Get)
	api.HandleFunc("GET /api/admin/orders/{number}/history", h.Orders.History)
	api.HandleFunc("POST /api/admin/orders/{number}/status", h.Orders.UpdateStatus)
	api.HandleFunc("POST /api/admin/orders/{number}/pack", h.Orders.Pack)
	api.HandleFunc("POST /api/admin/orders/{number}/ship", h.Orders.Ship)

	api.HandleFunc("GET /api/admin/slugs/available", h.Admin.AvailableSlugs)
	api.HandleFunc("POST /api/admin/slugs/seed", h.Admin.SeedSlugs)
	api.HandleFunc("GET /api/admin/security/dashboard", h.Admin.Dashboard)
	api.HandleFunc("GET /api/admin/audit", h.Admin.Audit)
	api.HandleFunc("POST /api/admin/manufacturer/batches", h.Admin.CreateBatch)
	api.HandleFunc("GET /api/admin/manufacturer/batches", h.Admin.ListBatches)
	api.HandleFunc("GET /api/admin/manufacturer/batches/{batch}", h.Admin.GetBatch)
	api.HandleFunc("POST /api/admin/manufacturer/batches/{batch}/status", h.Admin.AdvanceBatch)

	root := http.NewServeMux()
	root.Handle("/api/", limiter.Middleware(api))
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if h.Health != nil {
			if err := h.Health(r.Context()); err != nil {
				lgr.Error("health_check_failed", "Dependency unhealthy", logger.RequestID(r.Context()), nil, err)
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return Chain(root, LoggingMiddleware(lgr), RecoveryMiddleware(lgr))
}
