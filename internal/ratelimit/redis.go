package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

// The first INCR of a window sets its expiry, so the key disappears (and the
// count restarts at 1) once the window has elapsed. See windowExpiryMillis.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisOption configures RedisFixedWindow.
type RedisOption func(*RedisFixedWindow)

// WithKeyPrefix namespaces the limiter keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(l *RedisFixedWindow) { l.prefix = strings.Trim(prefix, ":") }
}

// RedisFixedWindow shares fixed-window counters across service instances.
// When Redis is unreachable requests are admitted and the failure is logged.
type RedisFixedWindow struct {
	rdb    *redis.Client
	window time.Duration
	max    int
	prefix string
	log    zerolog.Logger
}

// NewRedisFixedWindow builds a limiter over rdb.
func NewRedisFixedWindow(rdb *redis.Client, window time.Duration, limit int, log zerolog.Logger, opts ...RedisOption) *RedisFixedWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultMax
	}
	l := &RedisFixedWindow{
		rdb:    rdb,
		window: window,
		max:    limit,
		prefix: "ratelimit",
		log:    log.With().Str("component", "ratelimit").Str("backend", "redis").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit counts the request in Redis.
func (l *RedisFixedWindow) Admit(ctx context.Context, clientID, routeKey string) (Decision, error) {
	key := Key(clientID, routeKey)
	now := time.Now()

	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, windowExpiryMillis(l.window)).Int64Slice()
	if err != nil || len(res) != 2 {
		l.log.Error().Err(err).Str("key", key).Msg("rate limit check failed, admitting request")
		return Decision{Limit: l.max, Remaining: l.max, ResetAt: now.Add(l.window)}, nil
	}

	count := int(res[0])
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}
	d := Decision{Limit: l.max, Remaining: l.max - count, ResetAt: now.Add(ttl)}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if count > l.max {
		rejectionsTotal.WithLabelValues(routeKey).Inc()
		l.log.Warn().Str("key", key).Int("count", count).Int("max", l.max).Msg("rate limit exceeded")
		return d, model.RateLimitedError{Key: key, Limit: l.max, RetryAfter: ttl}
	}
	return d, nil
}

// windowExpiryMillis is the key lifetime. FixedWindow still counts a request
// at exactly start+window into the old window and resets only after it, so
// the key has to outlive the window by one millisecond.
func windowExpiryMillis(window time.Duration) int64 {
	return window.Milliseconds() + 1
}

// HealthPing reports whether Redis answers.
func (l *RedisFixedWindow) HealthPing(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}
