package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)

	for i := range 3 {
		result := l.Allow("10.0.0.1")
		assert.True(t, result.Allowed, "request %d should be allowed", i)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result := l.Allow("10.0.0.1")
	assert.False(t, result.Allowed)
	assert.GreaterOrEqual(t, result.RetryAfter, 1)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	assert.True(t, l.Allow("10.0.0.1").Allowed)
	assert.False(t, l.Allow("10.0.0.1").Allowed)
	assert.True(t, l.Allow("10.0.0.2").Allowed)
}

func TestLimiter_WindowSlides(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	require.True(t, l.Allow("k").Allowed)
	current = current.Add(30 * time.Second)
	require.True(t, l.Allow("k").Allowed)
	require.False(t, l.Allow("k").Allowed)

	// The first timestamp ages out; one slot opens, not two.
	current = current.Add(31 * time.Second)
	assert.True(t, l.Allow("k").Allowed)
	assert.False(t, l.Allow("k").Allowed)
}

func TestLimiter_SweepDropsIdleBuckets(t *testing.T) {
	l := NewLimiter(5, time.Minute)
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	l.Allow("idle")
	l.Allow("busy")
	current = current.Add(2 * time.Minute)
	l.Allow("busy")

	l.Sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "idle")
	assert.Contains(t, l.buckets, "busy")
}

func TestMiddleware_NilIsNoOp(t *testing.T) {
	var m *Middleware
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestMiddleware_DeniesWithHeaders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewMiddleware(NewLimiter(1, time.Minute), logger)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")
}

func TestMiddleware_UsesForwardedFor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewMiddleware(NewLimiter(1, time.Minute), logger)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	// Same socket, different forwarded clients: both pass.
	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", client+", 10.0.0.1")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}
}
