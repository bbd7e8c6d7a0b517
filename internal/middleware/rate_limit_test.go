package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute, 5)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		d, err := rl.Allow(context.Background(), "auth0|a")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
	}

	d, err := rl.Allow(context.Background(), "auth0|a")
	require.NoError(t, err)
	assert.False(t, d.Allowed, "request 6 should be rate limited")
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 10, d.Limit)
	assert.True(t, d.ResetAt.After(time.Now()))
}

func TestRateLimiter_DifferentKeys(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		d, _ := rl.Allow(context.Background(), "auth0|a")
		assert.True(t, d.Allowed)
	}
	d, _ := rl.Allow(context.Background(), "auth0|a")
	assert.False(t, d.Allowed)

	d, _ = rl.Allow(context.Background(), "auth0|b")
	assert.True(t, d.Allowed, "other callers keep their own bucket")
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute, 3)
	defer rl.Stop()

	_, _ = rl.Allow(context.Background(), "auth0|a")
	rl.evictIdle(time.Now().Add(LimiterTTL + time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.limiters)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute, 3)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

type stubLimiter struct {
	decision Decision
	err      error
}

func (s stubLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	return s.decision, s.err
}

func serveWithLimiter(l Limiter, auth0ID string) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/summary", nil)
	if auth0ID != "" {
		req = req.WithContext(context.WithValue(req.Context(), Auth0IDKey, auth0ID))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	_ = RateLimitMiddleware(l)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, reached
}

func TestRateLimitMiddleware_Allowed(t *testing.T) {
	reset := time.Now().Add(30 * time.Second)
	rec, reached := serveWithLimiter(stubLimiter{decision: Decision{Allowed: true, Limit: 100, Remaining: 99, ResetAt: reset}}, "auth0|a")

	assert.True(t, reached)
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_Rejected(t *testing.T) {
	reset := time.Now().Add(20 * time.Second)
	rec, reached := serveWithLimiter(stubLimiter{decision: Decision{Allowed: false, Limit: 100, ResetAt: reset}}, "auth0|a")

	assert.False(t, reached)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), errorTypeRateLimit)
}

func TestRateLimitMiddleware_SkipsAnonymous(t *testing.T) {
	_, reached := serveWithLimiter(stubLimiter{decision: Decision{Allowed: false}}, "")
	assert.True(t, reached)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	_, reached := serveWithLimiter(stubLimiter{err: errors.New("redis down")}, "auth0|a")
	assert.True(t, reached)
}
