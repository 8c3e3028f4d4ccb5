// Package docdex is the in-process SDK: the same search, ingestion, and
// similarity services the HTTP server exposes, wired over a Redis store.
package docdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/db"
	dbRedis "github.com/kailas-cloud/docdex/internal/db/redis"
	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
	"github.com/kailas-cloud/docdex/internal/domain/search/request"
	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
	documentrepo "github.com/kailas-cloud/docdex/internal/repository/document"
	embeddingrepo "github.com/kailas-cloud/docdex/internal/repository/embedding"
	similarityrepo "github.com/kailas-cloud/docdex/internal/repository/similarity"
	documentuc "github.com/kailas-cloud/docdex/internal/usecase/document"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
	similarityuc "github.com/kailas-cloud/docdex/internal/usecase/similarity"
	statsuc "github.com/kailas-cloud/docdex/internal/usecase/stats"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultRetention        = 720 * time.Hour
)

// Client is the docdex SDK entry point.
type Client struct {
	store     db.Store
	docSvc    *documentuc.Service
	searchSvc *searchuc.Service
	simSvc    *similarityuc.Service
	statsSvc  *statsuc.Service
}

// New creates a docdex Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		model:           "default",
		logger:          zap.NewNop(),
		hybridVector:    0.65,
		hybridText:      0.35,
		cacheTTL:        5 * time.Minute,
		cacheMaxEntries: 500,
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("docdex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("docdex: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("docdex: database not ready: %w", err)
	}

	return wireClient(store, cfg)
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	docRepo := documentrepo.New(store)
	embRepo := embeddingrepo.New(store)
	simRepo := similarityrepo.New(store)

	// Embedder: noop when not configured (keyword search works, vector errors)
	var domEmb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}

	statsSvc := statsuc.New()
	searchSvc := searchuc.New(docRepo, embRepo, domEmb, searchuc.Config{
		Weights: domain.HybridWeights{Vector: cfg.hybridVector, Text: cfg.hybridText},
		FieldWeights: domain.FieldWeights{
			Title:         0.30,
			Description:   0.20,
			Summary:       0.20,
			KeyPoints:     0.15,
			Tags:          0.10,
			SuggestedTags: 0.05,
		},
		VectorThreshold:  0.5,
		KeywordThreshold: 0.3,
		HybridThreshold:  0.35,
		CacheTTL:         cfg.cacheTTL,
		CacheMaxEntries:  cfg.cacheMaxEntries,
	}, statsSvc)

	simSvc, err := similarityuc.New(docRepo, embRepo, simRepo,
		domsim.Weights{Hash: 0.4, Text: 0.3, Embedding: 0.3},
		domsim.Thresholds{HashMatch: 0.95, Detection: 0.85, EmbeddingMatch: 0.90, HashInclude: 0.30},
		defaultRetention, cfg.workers, cfg.logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("docdex: create similarity service: %w", err)
	}

	docSvc := documentuc.New(docRepo, embRepo, domEmb, simSvc, cfg.model)

	return &Client{
		store:     store,
		docSvc:    docSvc,
		searchSvc: searchSvc,
		simSvc:    simSvc,
		statsSvc:  statsSvc,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.simSvc != nil {
		c.simSvc.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// UpsertDocument stores a document, generates its embedding, and schedules
// duplicate detection. Returns true if created.
func (c *Client) UpsertDocument(ctx context.Context, doc Document) (bool, error) {
	d, err := documentToDomain(doc)
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return c.docSvc.Upsert(ctx, &d)
}

// DeleteDocument removes a document and its embedding.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.docSvc.Delete(ctx, id)
}

// Search executes a search and returns one page of ranked results.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchPage, error) {
	filters, err := filter.New(
		req.Category, req.Tags, domain.Visibility(req.Visibility),
		req.MinRating, req.CreatedAfter, req.CreatedBefore,
	)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}

	r, err := request.New(
		req.Query, mode.Mode(req.Mode), filters,
		req.Page, req.Limit, request.Sort(req.Sort),
	)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}

	results, total, err := c.searchSvc.Search(ctx, &r)
	if err != nil {
		return SearchPage{}, err
	}

	page := SearchPage{Total: total, Results: make([]SearchResult, len(results))}
	for i := range results {
		page.Results[i] = resultFromDomain(&results[i])
	}
	return page, nil
}

// CheckSimilarity scores a document against the rest of the corpus.
func (c *Client) CheckSimilarity(ctx context.Context, documentID string) ([]SimilarityCandidate, error) {
	candidates, err := c.simSvc.CheckDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out := make([]SimilarityCandidate, len(candidates))
	for i, cand := range candidates {
		out[i] = candidateFromDomain(cand)
	}
	return out, nil
}

// PendingSimilarity returns unresolved similarity records, newest first.
func (c *Client) PendingSimilarity(ctx context.Context) ([]SimilarityRecord, error) {
	records, err := c.simSvc.Pending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SimilarityRecord, len(records))
	for i := range records {
		out[i] = recordFromDomain(&records[i])
	}
	return out, nil
}

// ResolveSimilarity applies a terminal moderation decision ("confirmed" or
// "dismissed") to a record.
func (c *Client) ResolveSimilarity(ctx context.Context, recordID, decision string) (SimilarityRecord, error) {
	resolved, err := c.simSvc.Resolve(ctx, recordID, domsim.Decision(decision))
	if err != nil {
		return SimilarityRecord{}, err
	}
	return recordFromDomain(&resolved), nil
}

// Stats returns the accumulated search counters.
func (c *Client) Stats() Stats {
	return statsFromDomain(c.statsSvc.Snapshot())
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"docdex: embedder not configured (use WithEmbedder for vector search)",
	)
}
