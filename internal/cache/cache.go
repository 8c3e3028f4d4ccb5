// Package cache provides the short-TTL search result cache. It is an explicit
// object owned by the search service, never a process-wide singleton.
package cache

import (
	"container/list"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Defaults for the search result cache.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 500
)

type entry[T any] struct {
	key       string
	data      T
	timestamp time.Time
}

// TTL is a bounded time-to-live cache. Expired entries are evicted lazily on
// Get; a full cache evicts its oldest-inserted entry on Set (FIFO, not LRU).
// Safe for concurrent use.
type TTL[T any] struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]*list.Element
	order      *list.List // front = oldest inserted
	now        func() time.Time
}

// NewTTL creates a TTL cache. Non-positive ttl or maxEntries fall back to the
// defaults.
func NewTTL[T any](ttl time.Duration, maxEntries int) *TTL[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &TTL[T]{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// WithClock overrides the time source (test-only).
func (c *TTL[T]) WithClock(now func() time.Time) *TTL[T] {
	c.now = now
	return c
}

// Get returns the cached value. An expired entry is evicted and reported as a
// miss.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[T])
	if c.now().Sub(e.timestamp) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return zero, false
	}
	return e.data, true
}

// Set stores a value. When the cache is full, the oldest-inserted entry is
// evicted first.
func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[T])
		e.data = value
		e.timestamp = c.now()
		return
	}

	if c.order.Len() >= c.maxEntries {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry[T]).key)
		}
	}

	c.entries[key] = c.order.PushBack(&entry[T]{key: key, data: value, timestamp: c.now()})
}

// Clear drops every entry.
func (c *TTL[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the current entry count.
func (c *TTL[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Key builds a deterministic cache key from the search inputs. Identical
// inputs always produce the same key.
func Key(kind, query, filters string, limit int, threshold float64) string {
	composite := kind + "\x00" + query + "\x00" + filters +
		"\x00" + strconv.Itoa(limit) +
		"\x00" + strconv.FormatFloat(threshold, 'g', -1, 64)
	return fmt.Sprintf("%s:%016x", kind, xxhash.Sum64String(composite))
}
