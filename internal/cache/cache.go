// Package cache provides time-bounded memoization of resolved metadata.
package cache

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/logger"
	"github.com/jonesrussell/shopsearch/internal/metrics"
)

// Default cache behavior.
const (
	// DefaultTTL is how long a resolved entry stays valid.
	DefaultTTL = 5 * time.Minute

	// defaultSweepSpec runs the eviction sweep once a minute.
	defaultSweepSpec = "@every 1m"
)

// entry pairs a resolved record with its insertion time.
type entry struct {
	meta     domain.Metadata
	storedAt time.Time
}

// MetadataCache memoizes resolved Metadata per exact URL string. Reads of
// expired entries miss immediately; physical removal happens on the periodic
// sweep. A single instance is shared across all enrichment calls for the
// process lifetime.
type MetadataCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	ttl     time.Duration
	now     func() time.Time
	sweeper *cron.Cron
	log     logger.Interface
	metrics *metrics.Metrics
}

// Option configures a MetadataCache.
type Option func(*MetadataCache)

// WithTTL overrides the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *MetadataCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source, for deterministic expiry tests.
func WithClock(now func() time.Time) Option {
	return func(c *MetadataCache) {
		c.now = now
	}
}

// WithMetrics attaches lookup instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *MetadataCache) {
		c.metrics = m
	}
}

// New creates a MetadataCache. Call Start to begin the periodic sweep and
// Stop on shutdown.
func New(log logger.Interface, opts ...Option) *MetadataCache {
	c := &MetadataCache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
		log:     log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the cached Metadata for url when present and unexpired.
func (c *MetadataCache) Get(url string) (domain.Metadata, bool) {
	c.mu.RLock()
	e, ok := c.entries[url]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		c.metrics.RecordCacheLookup(false)
		return domain.Metadata{}, false
	}

	c.metrics.RecordCacheLookup(true)
	return e.meta, true
}

// Put stores meta under the exact url key. Concurrent writers racing on the
// same URL overwrite each other; last write wins.
func (c *MetadataCache) Put(url string, meta domain.Metadata) {
	c.mu.Lock()
	c.entries[url] = entry{meta: meta, storedAt: c.now()}
	c.mu.Unlock()
}

// Sweep removes every entry older than the TTL and returns how many were
// evicted. It runs on the periodic schedule but is safe to call directly.
func (c *MetadataCache) Sweep() int {
	cutoff := c.now().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for url, e := range c.entries {
		if e.storedAt.Before(cutoff) || e.storedAt.Equal(cutoff) {
			delete(c.entries, url)
			evicted++
		}
	}

	return evicted
}

// Len returns the number of physically stored entries, expired or not.
func (c *MetadataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Start launches the periodic sweep.
func (c *MetadataCache) Start() error {
	if c.sweeper != nil {
		return nil
	}

	c.sweeper = cron.New()
	_, err := c.sweeper.AddFunc(defaultSweepSpec, func() {
		if evicted := c.Sweep(); evicted > 0 {
			c.log.Debug("cache sweep", "evicted", evicted, "remaining", c.Len())
		}
	})
	if err != nil {
		return err
	}

	c.sweeper.Start()
	return nil
}

// Stop halts the periodic sweep. Entries are retained.
func (c *MetadataCache) Stop() {
	if c.sweeper == nil {
		return
	}

	ctx := c.sweeper.Stop()
	<-ctx.Done()
	c.sweeper = nil
}
