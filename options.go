package docdex

import (
	"time"

	"go.uber.org/zap"
)

// clientConfig collects functional option state before wiring.
type clientConfig struct {
	addrs    []string
	password string
	embedder Embedder
	model    string
	workers  int
	logger   *zap.Logger

	hybridVector float64
	hybridText   float64

	cacheTTL        time.Duration
	cacheMaxEntries int
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis sets the Redis addresses to connect to.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithPassword sets the database password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithEmbedder sets the text vectorizer. Without one, vector and hybrid
// searches degrade: vector mode errors, hybrid falls back to keyword-only.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithModel sets the active embedding model version used to tag stored
// embeddings.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithDetectionWorkers sizes the similarity detection worker pool.
func WithDetectionWorkers(n int) Option {
	return func(c *clientConfig) { c.workers = n }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

// WithHybridWeights sets the vector/text blend for hybrid search.
// The weights must sum to 1.0.
func WithHybridWeights(vector, text float64) Option {
	return func(c *clientConfig) {
		c.hybridVector = vector
		c.hybridText = text
	}
}

// WithResultCache sets the search result cache TTL and capacity.
func WithResultCache(ttl time.Duration, maxEntries int) Option {
	return func(c *clientConfig) {
		c.cacheTTL = ttl
		c.cacheMaxEntries = maxEntries
	}
}
