// Package listcache holds recently computed listing pages keyed by their
// normalized filter. Entries expire a fixed TTL after they are stored and the
// whole cache is dropped on any mutation of the underlying records.
package listcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokemon_list_cache_hits_total",
		Help: "Listing requests served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokemon_list_cache_misses_total",
		Help: "Listing requests that had to query the store.",
	})
	cacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokemon_list_cache_invalidations_total",
		Help: "Full cache invalidations triggered by mutations.",
	})
)

// DefaultTTL is how long a listing page stays valid after it is stored.
const DefaultTTL = 30 * time.Second

// LoadTimeout bounds a shared load once it no longer follows any caller's
// cancellation.
const LoadTimeout = 30 * time.Second

// LoadFunc computes a page on a cache miss.
type LoadFunc func(ctx context.Context) (*model.Page, error)

// Cache is safe for concurrent use.
type Cache struct {
	lru   *expirable.LRU[model.ListFilter, *model.Page]
	group singleflight.Group
	log   zerolog.Logger

	// mu orders stores against invalidations; gen counts invalidations.
	mu  sync.Mutex
	gen atomic.Uint64
}

// New creates a cache holding at most size pages, each for ttl.
func New(size int, ttl time.Duration, log zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		lru: expirable.NewLRU[model.ListFilter, *model.Page](size, nil, ttl),
		log: log.With().Str("component", "listcache").Logger(),
	}
}

// Get returns the page stored for f if it has not expired.
func (c *Cache) Get(f model.ListFilter) (*model.Page, bool) {
	p, ok := c.lru.Get(f)
	if ok {
		cacheHitsTotal.Inc()
		c.log.Debug().Str("key", f.String()).Msg("cache hit")
		return p, true
	}
	cacheMissesTotal.Inc()
	c.log.Debug().Str("key", f.String()).Msg("cache miss")
	return nil, false
}

// Put stores p for f. The TTL starts now.
func (c *Cache) Put(f model.ListFilter, p *model.Page) {
	c.mu.Lock()
	c.lru.Add(f, p)
	c.mu.Unlock()
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.gen.Add(1)
	c.lru.Purge()
	c.mu.Unlock()
	cacheInvalidationsTotal.Inc()
	c.log.Debug().Msg("cache invalidated")
}

// Len returns the number of stored entries, including expired ones not yet
// cleaned up.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// GetOrLoad returns the cached page for f or computes it with load.
// Concurrent misses on the same filter share one load. The load runs detached
// from the caller that started it, so one caller going away does not fail the
// others; each caller stops waiting when its own ctx is done. A page whose
// load overlapped an InvalidateAll is returned to its callers but not stored.
func (c *Cache) GetOrLoad(ctx context.Context, f model.ListFilter, load LoadFunc) (*model.Page, error) {
	if p, ok := c.Get(f); ok {
		return p, nil
	}

	gen := c.gen.Load()
	key := fmt.Sprintf("%d|%s", gen, f.String())
	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()

		p, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.putIfCurrent(f, p, gen)
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Page), nil
	}
}

func (c *Cache) putIfCurrent(f model.ListFilter, p *model.Page, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen.Load() != gen {
		c.log.Debug().Str("key", f.String()).Msg("discarding page loaded across invalidation")
		return
	}
	c.lru.Add(f, p)
}
