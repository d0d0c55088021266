package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/tagmytrophy/internal/adapter/logger"
	"github.com/YelzhanWeb/tagmytrophy/internal/app/security"
	"github.com/YelzhanWeb/tagmytrophy/internal/config"
	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
	"github.com/YelzhanWeb/tagmytrophy/internal/testutil"
)

func TestLoggingMiddlewareRequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(requestIDHeader))
	})

	t.Run("reused", func(t *testing.T) {
		const id = "3f1c8f0e-6a55-4c3b-9a07-5b0d2c0b9e11"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, id)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, id, seen)
	})

	t.Run("garbage replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "<script>")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.NotEqual(t, "<script>", seen)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestRateLimitReturns429AfterBurst(t *testing.T) {
	env := newTestEnv(t, config.RateLimitConfig{RequestsPerMinute: 1, Burst: 2, IdleTTL: time.Minute})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/slugs/brave-otter-k3x9", nil)
		req.RemoteAddr = "198.51.100.7:5123"
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}, codes)

	events := env.store.SecurityEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventRateLimited, events[0].Type)
	assert.Equal(t, "198.51.100.7", events[0].Source)

	// Another client has its own bucket; health checks are never limited.
	req := httptest.NewRequest(http.MethodGet, "/api/slugs/brave-otter-k3x9", nil)
	req.RemoteAddr = "198.51.100.8:5123"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "198.51.100.7:5123"
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	store := testutil.NewMemStore()
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 1, IdleTTL: time.Minute},
		security.NewService(store, logger.Nop()), logger.Nop())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Len())

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("c"))
	assert.Equal(t, 1, rl.Len())
	assert.True(t, rl.Allow("a"), "evicted client starts with a full bucket")
}
