// Package ratelimit implements a fixed-window request limiter keyed by client
// and route. The in-memory FixedWindow is the default; RedisFixedWindow shares
// the quota across instances.
package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

const (
	DefaultWindow         = 60 * time.Second
	DefaultMax            = 60
	DefaultShards         = 32
	DefaultSweepThreshold = 4096
)

var rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pokemon_rate_limit_rejections_total",
	Help: "Requests rejected by the rate limiter, by route.",
}, []string{"route"})

// Decision describes the quota state after a request was counted.
type Decision struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects one request for clientID on routeKey. A rejected
// request returns a model.RateLimitedError.
type Limiter interface {
	Admit(ctx context.Context, clientID, routeKey string) (Decision, error)
}

// Key is the window key for a client on a route.
func Key(clientID, routeKey string) string {
	return clientID + ":" + routeKey
}

// Options configures FixedWindow. Zero values take the defaults above.
type Options struct {
	Window time.Duration
	Max    int
	Shards int
	// SweepThreshold is the per-shard size above which lapsed windows are
	// dropped before a new key is inserted.
	SweepThreshold int
	Now            func() time.Time
}

type windowEntry struct {
	count int
	start time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

// FixedWindow is an in-process fixed-window limiter. Keys are spread over
// independently locked shards; the reset, increment and check for one key
// happen under its shard lock.
type FixedWindow struct {
	window         time.Duration
	max            int
	sweepThreshold int
	now            func() time.Time
	shards         []*shard
	log            zerolog.Logger
}

// NewFixedWindow builds an in-memory limiter.
func NewFixedWindow(opts Options, log zerolog.Logger) *FixedWindow {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Max <= 0 {
		opts.Max = DefaultMax
	}
	if opts.Shards <= 0 {
		opts.Shards = DefaultShards
	}
	if opts.SweepThreshold <= 0 {
		opts.SweepThreshold = DefaultSweepThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	shards := make([]*shard, opts.Shards)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*windowEntry)}
	}
	return &FixedWindow{
		window:         opts.Window,
		max:            opts.Max,
		sweepThreshold: opts.SweepThreshold,
		now:            opts.Now,
		shards:         shards,
		log:            log.With().Str("component", "ratelimit").Logger(),
	}
}

func (l *FixedWindow) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()%uint32(len(l.shards))]
}

// Admit counts the request and rejects it once the window holds more than
// Max requests. A window is replaced by a fresh one when more than Window has
// elapsed since it started.
func (l *FixedWindow) Admit(_ context.Context, clientID, routeKey string) (Decision, error) {
	key := Key(clientID, routeKey)
	now := l.now()

	s := l.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	switch {
	case !ok:
		if len(s.entries) >= l.sweepThreshold {
			s.sweep(now, l.window)
		}
		e = &windowEntry{start: now}
		s.entries[key] = e
	case now.Sub(e.start) > l.window:
		e.count = 0
		e.start = now
	}
	e.count++
	count, start := e.count, e.start
	s.mu.Unlock()

	d := Decision{Limit: l.max, Remaining: l.max - count, ResetAt: start.Add(l.window)}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if count > l.max {
		rejectionsTotal.WithLabelValues(routeKey).Inc()
		l.log.Warn().Str("key", key).Int("count", count).Int("max", l.max).Msg("rate limit exceeded")
		return d, model.RateLimitedError{Key: key, Limit: l.max, RetryAfter: d.ResetAt.Sub(now)}
	}
	return d, nil
}

// Len returns the number of tracked keys.
func (l *FixedWindow) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// sweep drops windows that have lapsed; those keys would be reset on their
// next request anyway. Caller holds s.mu.
func (s *shard) sweep(now time.Time, window time.Duration) {
	for k, e := range s.entries {
		if now.Sub(e.start) > window {
			delete(s.entries, k)
		}
	}
}
