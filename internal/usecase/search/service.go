// Package search implements vector, keyword, and hybrid document search over
// the in-memory scored corpus, with a short-TTL result cache in front.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docdex/internal/cache"
	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/query"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
	"github.com/kailas-cloud/docdex/internal/domain/search/request"
	"github.com/kailas-cloud/docdex/internal/domain/search/result"
	"github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// Config holds the scoring weights and thresholds, validated at startup.
type Config struct {
	Weights          domain.HybridWeights
	FieldWeights     domain.FieldWeights
	VectorThreshold  float64
	KeywordThreshold float64
	HybridThreshold  float64
	CacheTTL         time.Duration
	CacheMaxEntries  int
}

// Service handles document search across vector, keyword, and hybrid modes.
type Service struct {
	docs  DocumentReader
	embs  EmbeddingReader
	embed Embedder
	cfg   Config
	cache *cache.TTL[[]result.Result]
	stats Recorder
}

// New creates a search service. stats may be nil.
func New(docs DocumentReader, embs EmbeddingReader, embed Embedder, cfg Config, stats Recorder) *Service {
	return &Service{
		docs:  docs,
		embs:  embs,
		embed: embed,
		cfg:   cfg,
		cache: cache.NewTTL[[]result.Result](cfg.CacheTTL, cfg.CacheMaxEntries),
		stats: stats,
	}
}

// Search executes a search and returns one page of ranked results plus the
// total match count. An empty query returns no results and no error without
// touching storage or the embedding provider.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, int, error) {
	start := time.Now()
	m := string(req.Mode())

	variants := query.Prepare(req.Query())
	if variants.IsEmpty() {
		s.observe(m, time.Since(start), false)
		return nil, 0, nil
	}

	key := s.cacheKey(req, &variants)
	if ranked, ok := s.cache.Get(key); ok {
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		s.observe(m, time.Since(start), true)
		return paginate(ranked, req), len(ranked), nil
	}
	metrics.SearchCacheTotal.WithLabelValues("miss").Inc()

	candidates, err := s.loadCandidates(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	ranked, degraded, err := s.rank(ctx, req, &variants, candidates)
	if err != nil {
		return nil, 0, err
	}

	if req.Sort() == request.SortRecent {
		sortByRecency(ranked, candidates)
	}

	// Degraded rankings are transient; caching them would pin the fallback
	// past provider recovery.
	if !degraded {
		s.cache.Set(key, ranked)
	}

	s.observe(m, time.Since(start), false)
	return paginate(ranked, req), len(ranked), nil
}

// ClearCache drops every cached result set and returns how many were dropped.
func (s *Service) ClearCache() int {
	n := s.cache.Len()
	s.cache.Clear()
	return n
}

// rank runs the scoring pipeline for the requested mode. The degraded flag is
// set when a hybrid query fell back to keyword-only scoring.
func (s *Service) rank(
	ctx context.Context, req *request.Request, variants *query.Variants,
	candidates map[string]*domain.Document,
) ([]result.Result, bool, error) {
	switch req.Mode() {
	case mode.Vector:
		vecScores, err := s.vectorScores(ctx, variants, candidates)
		if err != nil {
			return nil, false, err
		}
		return buildVectorResults(vecScores, s.cfg.VectorThreshold), false, nil

	case mode.Keyword:
		kwHits := scoreKeywordAll(candidates, variants.LowerTokens(), s.cfg.FieldWeights)
		return buildKeywordResults(kwHits, s.cfg.KeywordThreshold), false, nil

	case mode.Hybrid:
		return s.rankHybrid(ctx, variants, candidates)

	default:
		return nil, false, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}
}

// rankHybrid runs the vector and keyword branches concurrently and blends
// them. An embedding failure degrades the query to keyword-only instead of
// failing it.
func (s *Service) rankHybrid(
	ctx context.Context, variants *query.Variants, candidates map[string]*domain.Document,
) ([]result.Result, bool, error) {
	var (
		vecScores map[string]float64
		kwHits    map[string]keywordHit
		vecErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Failure here is captured, not returned: it must not cancel the
		// keyword branch.
		vecScores, vecErr = s.vectorScores(gctx, variants, candidates)
		return nil
	})
	g.Go(func() error {
		kwHits = scoreKeywordAll(candidates, variants.LowerTokens(), s.cfg.FieldWeights)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	if vecErr != nil {
		logger.FromContext(ctx).Warn("Hybrid search degraded to keyword-only",
			zap.Error(vecErr))
		metrics.SearchDegradedTotal.Inc()
		return buildKeywordResults(kwHits, s.cfg.KeywordThreshold), true, nil
	}

	return combineHybrid(vecScores, kwHits, s.cfg.Weights, s.cfg.HybridThreshold), false, nil
}

// vectorScores embeds the query and scores it against stored embeddings.
func (s *Service) vectorScores(
	ctx context.Context, variants *query.Variants, candidates map[string]*domain.Document,
) (map[string]float64, error) {
	embResult, err := s.embed.Embed(ctx, variants.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	recs, err := s.embs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}

	return scoreVector(embResult.Embedding, recs, candidates), nil
}

// loadCandidates loads the corpus and applies the request filters.
func (s *Service) loadCandidates(ctx context.Context, req *request.Request) (map[string]*domain.Document, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	filters := req.Filters()
	candidates := make(map[string]*domain.Document, len(docs))
	for i := range docs {
		doc := &docs[i]
		if !filters.Matches(doc) {
			continue
		}
		candidates[doc.ID()] = doc
	}
	return candidates, nil
}

func (s *Service) cacheKey(req *request.Request, variants *query.Variants) string {
	filters := req.Filters()
	composite := filters.CanonicalString() + "|sort=" + string(req.Sort())
	return cache.Key(string(req.Mode()), variants.LowerNormalized(), composite, 0, s.threshold(req.Mode()))
}

func (s *Service) threshold(m mode.Mode) float64 {
	switch m {
	case mode.Vector:
		return s.cfg.VectorThreshold
	case mode.Keyword:
		return s.cfg.KeywordThreshold
	default:
		return s.cfg.HybridThreshold
	}
}

func (s *Service) observe(m string, duration time.Duration, cacheHit bool) {
	metrics.SearchesTotal.WithLabelValues(m).Inc()
	metrics.SearchDuration.WithLabelValues(m).Observe(duration.Seconds())
	if s.stats != nil {
		s.stats.RecordSearch(m, duration, cacheHit)
	}
}

// sortByRecency reorders ranked results by document creation time, newest
// first. Ties fall back to the existing relevance order.
func sortByRecency(results []result.Result, docs map[string]*domain.Document) {
	sort.SliceStable(results, func(i, j int) bool {
		a, ok1 := docs[results[i].DocumentID()]
		b, ok2 := docs[results[j].DocumentID()]
		if !ok1 || !ok2 {
			return ok1
		}
		return a.CreatedAt().After(b.CreatedAt())
	})
}

func paginate(ranked []result.Result, req *request.Request) []result.Result {
	offset := req.Offset()
	if offset >= len(ranked) {
		return nil
	}
	end := offset + req.Limit()
	if end > len(ranked) {
		end = len(ranked)
	}
	page := make([]result.Result, end-offset)
	copy(page, ranked[offset:end])
	return page
}
