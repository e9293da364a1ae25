// SPDX-License-Identifier: MIT

// Package cache stores successful command responses keyed by destination and URI.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/blip-sdk-go/internal/metrics"
	"github.com/rs/zerolog"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendNone   = "none"
)

// Cache provides thread-safe caching of encoded command responses.
type Cache interface {
	// Get retrieves a value. The second result is false when absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores a value with the specified TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes a value.
	Delete(ctx context.Context, key string)
	// Stats returns cache statistics.
	Stats() Stats
	// Close releases backend resources.
	Close() error
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of explicit deletes and expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

// Config selects and configures a backend.
type Config struct {
	Backend         string
	CleanupInterval time.Duration // memory
	Redis           RedisConfig
	BadgerPath      string
}

// New builds the backend named by cfg.Backend.
func New(cfg Config, logger zerolog.Logger) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NewNoOpCache(), nil
	case BackendMemory:
		return NewMemoryCache(cfg.CleanupInterval), nil
	case BackendRedis:
		return NewRedisCache(cfg.Redis, logger)
	case BackendBadger:
		return NewBadgerCache(cfg.BadgerPath, logger)
	default:
		return nil, fmt.Errorf("unsupported cache backend %q (supported: memory, redis, badger, none)", cfg.Backend)
	}
}

// Key builds the cache key for a command addressed to `to` with `uri`.
func Key(to, uri string) string {
	return to + "|" + uri
}

// Scope returns the collection a URI belongs to: the first path segment,
// keeping any lime:// authority and dropping the query. Writes anywhere in a
// scope invalidate every cached read in it.
func Scope(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	prefix := ""
	if i := strings.Index(uri, "://"); i >= 0 {
		rest := uri[i+3:]
		j := strings.IndexByte(rest, '/')
		if j < 0 {
			return uri
		}
		prefix, uri = uri[:i+3+j], rest[j:]
	}
	segment := strings.TrimPrefix(uri, "/")
	if j := strings.IndexByte(segment, '/'); j >= 0 {
		segment = segment[:j]
	}
	return prefix + "/" + segment
}

// GenerationKey is the key holding the current generation of the scope that
// uri belongs to. Entry keys embed the generation, so replacing it orphans
// every entry of the scope at once; orphans age out with their TTL.
func GenerationKey(to, uri string) string {
	return Key(to, Scope(uri)) + "#gen"
}

// EntryKey builds the key of a cached response within a scope generation.
func EntryKey(to, uri, generation string) string {
	return Key(to, uri) + "#" + generation
}

type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64
}

func (c *counters) hit(backend string) {
	c.hits.Add(1)
	metrics.RecordCacheLookup(backend, "hit")
}

func (c *counters) miss(backend string) {
	c.misses.Add(1)
	metrics.RecordCacheLookup(backend, "miss")
}

func (c *counters) evict(backend string, n int) {
	if n <= 0 {
		return
	}
	c.evictions.Add(int64(n))
	for range n {
		metrics.RecordCacheLookup(backend, "evict")
	}
}

func (c *counters) snapshot(size int) Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

// entry represents a cached value with expiration time.
type entry struct {
	value      []byte
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// memoryCache is an in-memory implementation of Cache.
type memoryCache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	stats    counters
	janitor  *janitor
	stopOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache with automatic cleanup.
// The cleanupInterval determines how often expired entries are removed.
func NewMemoryCache(cleanupInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]*entry),
	}

	if cleanupInterval > 0 {
		c.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
		}
		go c.janitor.run(c)
	}

	return c
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || e.isExpired(time.Now()) {
		c.stats.miss(BackendMemory)
		return nil, false
	}

	c.stats.hit(BackendMemory)
	return e.value, true
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	buf := make([]byte, len(value))
	copy(buf, value)

	c.mu.Lock()
	c.entries[key] = &entry{value: buf, expiration: time.Now().Add(ttl)}
	c.mu.Unlock()
	c.stats.sets.Add(1)
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	_, found := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()
	if found {
		c.stats.evict(BackendMemory, 1)
	}
}

func (c *memoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats.snapshot(len(c.entries))
}

// deleteExpired removes all expired entries and returns how many were dropped.
func (c *memoryCache) deleteExpired() int {
	now := time.Now()
	c.mu.Lock()
	count := 0
	for key, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.mu.Unlock()

	c.stats.evict(BackendMemory, count)
	return count
}

// Close stops the background cleanup goroutine.
func (c *memoryCache) Close() error {
	if c.janitor != nil {
		c.stopOnce.Do(func() {
			close(c.janitor.stop)
			<-c.janitor.done
		})
	}
	return nil
}

// janitor performs periodic cleanup of expired entries.
type janitor struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func (j *janitor) run(c *memoryCache) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-j.stop:
			return
		}
	}
}

// noOpCache disables caching.
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noOpCache) Set(context.Context, string, []byte, time.Duration) {}
func (noOpCache) Delete(context.Context, string) {}
func (noOpCache) Stats() Stats { return Stats{} }
func (noOpCache) Close() error { return nil }
