package chi

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
	"github.com/kailas-cloud/docdex/internal/domain/search/request"
	"github.com/kailas-cloud/docdex/internal/domain/search/result"
	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/docdex/internal/usecase/migration"
	similarityuc "github.com/kailas-cloud/docdex/internal/usecase/similarity"
	statsuc "github.com/kailas-cloud/docdex/internal/usecase/stats"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type searchFilters struct {
	Category      string     `json:"category,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Visibility    string     `json:"visibility,omitempty"`
	MinRating     float64    `json:"min_rating,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}

type searchRequest struct {
	Query   string         `json:"query"`
	Mode    string         `json:"mode,omitempty"`
	Filters *searchFilters `json:"filters,omitempty"`
	Page    int            `json:"page,omitempty"`
	Limit   int            `json:"limit,omitempty"`
	Sort    string         `json:"sort,omitempty"`
}

type searchResultItem struct {
	DocumentID    string             `json:"document_id"`
	VectorScore   float64            `json:"vector_score"`
	TextScore     float64            `json:"text_score"`
	CombinedScore float64            `json:"combined_score"`
	FieldScores   map[string]float64 `json:"field_scores,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type upsertDocumentRequest struct {
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	KeyPoints     []string   `json:"key_points,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	SuggestedTags []string   `json:"suggested_tags,omitempty"`
	Category      string     `json:"category,omitempty"`
	Visibility    string     `json:"visibility,omitempty"`
	Rating        float64    `json:"rating,omitempty"`
	FileHash      string     `json:"file_hash,omitempty"`
	Content       string     `json:"content,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

type upsertDocumentResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

type similarityCheckRequest struct {
	DocumentID string `json:"document_id"`
}

type similarityCandidate struct {
	DocumentID     string  `json:"document_id"`
	HashScore      float64 `json:"hash_score"`
	TextScore      float64 `json:"text_score"`
	EmbeddingScore float64 `json:"embedding_score"`
	CombinedScore  float64 `json:"combined_score"`
	Flagged        bool    `json:"flagged"`
}

type similarityCheckResponse struct {
	DocumentID string                `json:"document_id"`
	Candidates []similarityCandidate `json:"candidates"`
}

type similarityRecord struct {
	ID             string    `json:"id"`
	DocumentA      string    `json:"document_a"`
	DocumentB      string    `json:"document_b"`
	HashScore      float64   `json:"hash_score"`
	TextScore      float64   `json:"text_score"`
	EmbeddingScore float64   `json:"embedding_score"`
	CombinedScore  float64   `json:"combined_score"`
	IsProcessed    bool      `json:"is_processed"`
	Decision       string    `json:"decision"`
	CreatedAt      time.Time `json:"created_at"`
}

type pendingSimilarityResponse struct {
	Items []similarityRecord `json:"items"`
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

type statsResponse struct {
	TotalSearches   int64   `json:"total_searches"`
	VectorSearches  int64   `json:"vector_searches"`
	KeywordSearches int64   `json:"keyword_searches"`
	HybridSearches  int64   `json:"hybrid_searches"`
	CacheHits       int64   `json:"cache_hits"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
}

type clearCachesResponse struct {
	SearchEntries    int `json:"search_entries"`
	EmbeddingEntries int `json:"embedding_entries"`
}

type migrationStartResponse struct {
	Scheduled int `json:"scheduled"`
}

type migrationProgressResponse struct {
	Running   bool `json:"running"`
	Total     int  `json:"total"`
	Processed int  `json:"processed"`
	Failed    int  `json:"failed"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func searchRequestFromDTO(req searchRequest) (request.Request, error) {
	filters, err := filtersFromDTO(req.Filters)
	if err != nil {
		return request.Request{}, fmt.Errorf("parse filters: %w", err)
	}

	r, err := request.New(
		req.Query, mode.Mode(req.Mode), filters,
		req.Page, req.Limit, request.Sort(req.Sort),
	)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return r, nil
}

func filtersFromDTO(f *searchFilters) (filter.Filter, error) {
	if f == nil {
		return filter.Filter{}, nil
	}

	var after, before time.Time
	if f.CreatedAfter != nil {
		after = *f.CreatedAfter
	}
	if f.CreatedBefore != nil {
		before = *f.CreatedBefore
	}

	return filter.New(
		f.Category, f.Tags, domain.Visibility(f.Visibility),
		f.MinRating, after, before,
	)
}

func documentFromUpsert(id string, req upsertDocumentRequest) (domain.Document, error) {
	var createdAt time.Time
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}

	return domain.NewDocument(
		id, req.Title, req.Description, req.Summary,
		req.KeyPoints, req.Tags, req.SuggestedTags,
		req.Category, domain.Visibility(req.Visibility), req.Rating,
		req.FileHash, req.Content, createdAt,
	)
}

func searchResultToDTO(r *result.Result) searchResultItem {
	return searchResultItem{
		DocumentID:    r.DocumentID(),
		VectorScore:   r.VectorScore(),
		TextScore:     r.TextScore(),
		CombinedScore: r.CombinedScore(),
		FieldScores:   r.FieldScores(),
	}
}

func candidateToDTO(c similarityuc.Candidate) similarityCandidate {
	return similarityCandidate{
		DocumentID:     c.DocumentID,
		HashScore:      c.Scores.Hash,
		TextScore:      c.Scores.Text,
		EmbeddingScore: c.Scores.Embedding,
		CombinedScore:  c.CombinedScore,
		Flagged:        c.Flagged,
	}
}

func recordToDTO(r *domsim.Record) similarityRecord {
	return similarityRecord{
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

func statsToDTO(s statsuc.Snapshot) statsResponse {
	return statsResponse{
		TotalSearches:   s.TotalSearches,
		VectorSearches:  s.VectorSearches,
		KeywordSearches: s.KeywordSearches,
		HybridSearches:  s.HybridSearches,
		CacheHits:       s.CacheHits,
		CacheHitRate:    s.CacheHitRate,
		AvgLatencyMs:    s.AvgLatencyMs,
	}
}

func progressToDTO(p migrationuc.Progress) migrationProgressResponse {
	return migrationProgressResponse{
		Running:   p.Running,
		Total:     p.Total,
		Processed: p.Processed,
		Failed:    p.Failed,
	}
}

func healthToDTO(r healthuc.Report) healthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return healthResponse{Status: string(r.Status), Checks: checks}
}
