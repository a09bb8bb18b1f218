package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rochacaio/pokemon-backend/internal/config"
	"github.com/rochacaio/pokemon-backend/internal/health"
	"github.com/rochacaio/pokemon-backend/internal/ratelimit"
)

// RateLimiter bundles the selected limiter with the resources it owns.
// Pinger is nil for the in-memory backend.
type RateLimiter struct {
	ratelimit.Limiter
	Pinger health.HealthPinger
	Close  func() error
}

// NewRateLimiter builds the limiter selected by cfg.RateLimitBackend. The Redis
// backend is pinged once; an unreachable Redis is logged, not fatal, because
// the limiter admits requests while Redis is down.
func NewRateLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*RateLimiter, error) {
	switch cfg.RateLimitBackend {
	case "", "memory":
		l := ratelimit.NewFixedWindow(ratelimit.Options{
			Window:         cfg.RateLimitWindow,
			Max:            cfg.RateLimitMax,
			Shards:         cfg.RateLimitShards,
			SweepThreshold: cfg.RateLimitSweepThreshold,
		}, log)
		return &RateLimiter{Limiter: l, Close: func() error { return nil }}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		l := ratelimit.NewRedisFixedWindow(rdb, cfg.RateLimitWindow, cfg.RateLimitMax, log)

		pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.HealthProbeTimeoutSeconds)*time.Second)
		defer cancel()
		if err := l.HealthPing(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; rate limiting fails open until it recovers")
		}
		return &RateLimiter{Limiter: l, Pinger: l, Close: rdb.Close}, nil

	default:
		return nil, fmt.Errorf("unknown RATE_LIMIT_BACKEND: %s", cfg.RateLimitBackend)
	}
}
