// Package permit caches signed payment permits until shortly before their deadline.
package permit

import (
	"strings"
	"sync"
	"time"

	"github.com/port402/x402-router/internal/x402"
)

// ClockSkewSeconds is subtracted from every deadline before a permit is reused.
const ClockSkewSeconds = 5

// Store is the permit storage consumed by the payment transport.
type Store interface {
	Get(network, asset, payTo, maxValue string) (x402.CachedPermit, bool)
	Set(p x402.CachedPermit)
	Invalidate(network, asset, payTo, maxValue string)
	Clear()
}

// Clock returns the current time in unix seconds.
type Clock func() int64

// Cache maps a payment scope and cap to the last permit signed for it.
//
// Cache does no locking. Callers sharing one Cache across goroutines must
// serialize access themselves, for example with NewSyncCache.
type Cache struct {
	now     Clock
	entries map[string]x402.CachedPermit
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock used for expiry checks.
func WithClock(now Clock) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an empty Cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		now:     func() int64 { return time.Now().Unix() },
		entries: make(map[string]x402.CachedPermit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for a scope and cap. The scope is case-insensitive,
// the cap is compared verbatim.
func Key(network, asset, payTo, maxValue string) string {
	return strings.ToLower(network) + "::" + strings.ToLower(asset) + "::" + strings.ToLower(payTo) + "::" + maxValue
}

// Get returns the permit for the scope and cap. A permit whose deadline falls
// within the clock skew window is removed and reported as absent.
func (c *Cache) Get(network, asset, payTo, maxValue string) (x402.CachedPermit, bool) {
	key := Key(network, asset, payTo, maxValue)
	p, ok := c.entries[key]
	if !ok {
		return x402.CachedPermit{}, false
	}
	if p.Deadline <= c.now()+ClockSkewSeconds {
		delete(c.entries, key)
		return x402.CachedPermit{}, false
	}
	return p, true
}

// Set stores p under its own scope and cap, replacing any previous entry.
func (c *Cache) Set(p x402.CachedPermit) {
	c.entries[Key(p.Network, p.Asset, p.PayTo, p.MaxValue)] = p
}

// Invalidate removes the entry for the scope and cap, if present.
func (c *Cache) Invalidate(network, asset, payTo, maxValue string) {
	delete(c.entries, Key(network, asset, payTo, maxValue))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	clear(c.entries)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	return len(c.entries)
}

// SyncCache serializes access to a Cache for callers that share it between
// concurrent requests. Two requests missing on the same scope may still both
// sign; the later Set wins.
type SyncCache struct {
	mu    sync.Mutex
	cache *Cache
}

// NewSyncCache wraps c with a mutex.
func NewSyncCache(c *Cache) *SyncCache {
	return &SyncCache{cache: c}
}

func (s *SyncCache) Get(network, asset, payTo, maxValue string) (x402.CachedPermit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(network, asset, payTo, maxValue)
}

func (s *SyncCache) Set(p x402.CachedPermit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(p)
}

func (s *SyncCache) Invalidate(network, asset, payTo, maxValue string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Invalidate(network, asset, payTo, maxValue)
}

func (s *SyncCache) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear()
}
