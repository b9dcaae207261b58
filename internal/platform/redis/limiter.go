package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter keys in a shared Redis.
const DefaultKeyPrefix = "tasks-api:ratelimit:"

// slidingWindowScript trims entries older than the window, then admits the
// request if fewer than limit entries remain. Members are made unique with a
// per-key counter so concurrent requests in the same millisecond all count.
// KEYS[1] is the sorted set and KEYS[2] the counter.
var slidingWindowScript = goredis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', counter_key, expire_seconds)
		return {1, limit - current - 1, 0}
	else
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		local reset_at = 0
		if oldest and #oldest >= 2 then
			reset_at = tonumber(oldest[2]) + window_ms
		end
		return {0, 0, reset_at}
	end
`)

// Result is the outcome of a single rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before retrying,
// rounded up to whole seconds and never less than one second.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	wait := r.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return wait.Round(time.Second)
}

// Limiter implements sliding window rate limiting using Redis.
type Limiter struct {
	client    goredis.Scripter
	keyPrefix string
	now       func() time.Time
}

// NewLimiter creates a rate limiter backed by client. An empty keyPrefix
// uses DefaultKeyPrefix.
func NewLimiter(client goredis.Scripter, keyPrefix string) *Limiter {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Limiter{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Allow records a request for key and reports whether it fits within limit
// requests per window. The check and the insert run atomically in Redis.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := l.now()
	windowStart := now.Add(-window)

	res, err := slidingWindowScript.Run(
		ctx,
		l.client,
		limiterKeys(l.keyPrefix, key),
		now.UnixMilli(),
		windowStart.UnixMilli(),
		limit,
		window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script error: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected redis response length: %d", len(res))
	}

	resetAt := now.Add(window)
	if res[2] > 0 {
		resetAt = time.UnixMilli(res[2])
	}

	return &Result{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		Limit:     limit,
		ResetAt:   resetAt,
	}, nil
}

// limiterKeys returns the sorted set and counter keys for key. The hash tag
// keeps both in the same cluster slot.
func limiterKeys(prefix, key string) []string {
	base := prefix + "{" + key + "}"
	return []string{base, base + ":counter"}
}
