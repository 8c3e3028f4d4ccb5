package docdex

import (
	"context"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/result"
	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
	similarityuc "github.com/kailas-cloud/docdex/internal/usecase/similarity"
	statsuc "github.com/kailas-cloud/docdex/internal/usecase/stats"
)

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text. Implement this to plug in a provider.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Document is the searchable view of a shared document.
type Document struct {
	ID            string
	Title         string
	Description   string
	Summary       string
	KeyPoints     []string
	Tags          []string
	SuggestedTags []string
	Category      string
	Visibility    string
	Rating        float64
	FileHash      string
	Content       string
	CreatedAt     time.Time
}

// SearchRequest selects and ranks documents.
// Zero values fall back to defaults: mode hybrid, page 1, limit 10,
// sort by relevance.
type SearchRequest struct {
	Query         string
	Mode          string
	Category      string
	Tags          []string
	Visibility    string
	MinRating     float64
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Page          int
	Limit         int
	Sort          string
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	DocumentID    string
	VectorScore   float64
	TextScore     float64
	CombinedScore float64
	FieldScores   map[string]float64
}

// SearchPage is one page of ranked results plus the total match count.
type SearchPage struct {
	Results []SearchResult
	Total   int
}

// SimilarityCandidate is one scored pair from an explicit similarity check.
type SimilarityCandidate struct {
	DocumentID     string
	HashScore      float64
	TextScore      float64
	EmbeddingScore float64
	CombinedScore  float64
	Flagged        bool
}

// SimilarityRecord is a persisted near-duplicate verdict.
type SimilarityRecord struct {
	ID             string
	DocumentA      string
	DocumentB      string
	HashScore      float64
	TextScore      float64
	EmbeddingScore float64
	CombinedScore  float64
	IsProcessed    bool
	Decision       string
	CreatedAt      time.Time
}

// Stats is a point-in-time view of the search counters.
type Stats struct {
	TotalSearches   int64
	VectorSearches  int64
	KeywordSearches int64
	HybridSearches  int64
	CacheHits       int64
	CacheHitRate    float64
	AvgLatencyMs    float64
}

func documentToDomain(d Document) (domain.Document, error) {
	return domain.NewDocument(
		d.ID, d.Title, d.Description, d.Summary,
		d.KeyPoints, d.Tags, d.SuggestedTags,
		d.Category, domain.Visibility(d.Visibility), d.Rating,
		d.FileHash, d.Content, d.CreatedAt,
	)
}

func resultFromDomain(r *result.Result) SearchResult {
	return SearchResult{
		DocumentID:    r.DocumentID(),
		VectorScore:   r.VectorScore(),
		TextScore:     r.TextScore(),
		CombinedScore: r.CombinedScore(),
		FieldScores:   r.FieldScores(),
	}
}

func candidateFromDomain(c similarityuc.Candidate) SimilarityCandidate {
	return SimilarityCandidate{
		DocumentID:     c.DocumentID,
		HashScore:      c.Scores.Hash,
		TextScore:      c.Scores.Text,
		EmbeddingScore: c.Scores.Embedding,
		CombinedScore:  c.CombinedScore,
		Flagged:        c.Flagged,
	}
}

func recordFromDomain(r *domsim.Record) SimilarityRecord {
	return SimilarityRecord{
		ID:             r.ID(),
		DocumentA:      r.DocumentA(),
		DocumentB:      r.DocumentB(),
		HashScore:      r.Scores().Hash,
		TextScore:      r.Scores().Text,
		EmbeddingScore: r.Scores().Embedding,
		CombinedScore:  r.CombinedScore(),
		IsProcessed:    r.IsProcessed(),
		Decision:       string(r.Decision()),
		CreatedAt:      r.CreatedAt(),
	}
}

func statsFromDomain(s statsuc.Snapshot) Stats {
	return Stats{
		TotalSearches:   s.TotalSearches,
		VectorSearches:  s.VectorSearches,
		KeywordSearches: s.KeywordSearches,
		HybridSearches:  s.HybridSearches,
		CacheHits:       s.CacheHits,
		CacheHitRate:    s.CacheHitRate,
		AvgLatencyMs:    s.AvgLatencyMs,
	}
}
