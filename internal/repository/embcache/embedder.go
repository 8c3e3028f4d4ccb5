// Package embcache decorates an Embedder with a bounded in-memory cache so
// repeated queries and re-checked documents do not spend provider tokens.
package embcache

import (
	"container/list"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// DefaultMaxEntries bounds the cache when no size is configured.
const DefaultMaxEntries = 1024

// CachedEmbedder caches embeddings in memory, keyed by text and model version.
// A full cache evicts its oldest entry (FIFO). Safe for concurrent use.
type CachedEmbedder struct {
	inner        domain.Embedder
	modelVersion string
	cacheTotal   *prometheus.CounterVec
	logger       *zap.Logger

	mu         sync.Mutex
	maxEntries int
	entries    map[string]*list.Element
	order      *list.List // front = oldest inserted
}

type entry struct {
	key    string
	vector []float32
}

// New creates a caching decorator. modelVersion is part of every cache key so
// a model switch never serves vectors from the previous model.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	modelVersion string,
	maxEntries int,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &CachedEmbedder{
		inner:        inner,
		modelVersion: modelVersion,
		cacheTotal:   cacheTotal,
		logger:       logger,
		maxEntries:   maxEntries,
		entries:      make(map[string]*list.Element),
		order:        list.New(),
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss: full EmbeddingResult from inner.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.get(key); ok {
		c.incCache("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.put(key, result.Embedding)
	return result, nil
}

// Clear drops every cached vector.
func (c *CachedEmbedder) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.order.Len()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	if c.logger != nil && n > 0 {
		c.logger.Info("Embedding cache cleared", zap.Int("entries", n))
	}
	return n
}

// Len returns the current entry count.
func (c *CachedEmbedder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 16) + ":" + c.modelVersion
}

func (c *CachedEmbedder) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry).vector, true
}

func (c *CachedEmbedder) put(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).vector = vec
		return
	}

	if c.order.Len() >= c.maxEntries {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).key)
		}
	}

	c.entries[key] = c.order.PushBack(&entry{key: key, vector: vec})
}
