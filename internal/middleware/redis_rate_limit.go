package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter and returns {count, ttl_ms}
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisRateLimiter is a fixed window limiter shared by every API instance
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

var _ Limiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter allows limit requests per window per key
func NewRedisRateLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "cofre:rate_limit"
	}
	if window < time.Second {
		window = time.Second
	}
	return &RedisRateLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow implements Limiter
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	raw, err := fixedWindowScript.Run(ctx, r.client, []string{r.prefix + ":" + key}, r.window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}
	return r.decide(raw, time.Now())
}

func (r *RedisRateLimiter) decide(raw interface{}, now time.Time) (Decision, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = r.window.Milliseconds()
	}

	remaining := r.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) <= r.limit,
		Limit:     r.limit,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(ttlMs) * time.Millisecond),
	}, nil
}
