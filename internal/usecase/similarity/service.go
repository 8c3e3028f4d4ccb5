// Package similarity implements near-duplicate detection: pairwise scoring of
// a document against the corpus over three signals, persisted moderation
// records, and the retention sweep.
package similarity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// DefaultWorkers sizes the detection pool when no count is configured.
const DefaultWorkers = 4

// Candidate is one scored pair from a similarity check, ordered by combined
// score descending in the response.
type Candidate struct {
	DocumentID    string
	Scores        domsim.Scores
	CombinedScore float64
	Flagged       bool
}

// Service scores documents against the corpus and manages similarity records.
type Service struct {
	docs       DocumentReader
	embs       EmbeddingReader
	records    Repository
	weights    domsim.Weights
	thresholds domsim.Thresholds
	retention  time.Duration
	pool       *ants.Pool
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a similarity service with its own detection worker pool.
func New(
	docs DocumentReader, embs EmbeddingReader, records Repository,
	weights domsim.Weights, thresholds domsim.Thresholds,
	retention time.Duration, workers int, logger *zap.Logger,
) (*Service, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create detection pool: %w", err)
	}

	return &Service{
		docs:       docs,
		embs:       embs,
		records:    records,
		weights:    weights,
		thresholds: thresholds,
		retention:  retention,
		pool:       pool,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Close releases the detection worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// CheckDocument scores a document against every other document in the corpus.
// Candidates are ordered by combined score descending.
func (s *Service) CheckDocument(ctx context.Context, documentID string) ([]Candidate, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	corpus, err := s.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	vectors, err := s.loadVectors(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(corpus))
	for i := range corpus {
		other := &corpus[i]
		if other.ID() == doc.ID() {
			continue
		}

		scores := domsim.Scores{
			Hash:      hashScore(doc.FileHash(), doc.Content(), other.FileHash(), other.Content()),
			Text:      textScore(doc.Content(), other.Content()),
			Embedding: embeddingScore(vectors[doc.ID()], vectors[other.ID()]),
		}
		combined := domsim.Combine(scores, s.weights)

		candidates = append(candidates, Candidate{
			DocumentID:    other.ID(),
			Scores:        scores,
			CombinedScore: combined,
			Flagged:       domsim.Flagged(scores, combined, s.thresholds),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		return candidates[i].DocumentID < candidates[j].DocumentID
	})
	return candidates, nil
}

// Detect runs duplicate detection for a freshly ingested document on the
// worker pool. Fire-and-forget: failures are logged and counted, never
// surfaced to the ingestion path.
func (s *Service) Detect(documentID string) {
	err := s.pool.Submit(func() {
		ctx := context.Background()
		if err := s.detect(ctx, documentID); err != nil {
			metrics.SimilarityChecksTotal.WithLabelValues("failed").Inc()
			s.logger.Error("Similarity detection failed",
				zap.String("document_id", documentID), zap.Error(err))
		}
	})
	if err != nil {
		s.logger.Error("Failed to schedule similarity detection",
			zap.String("document_id", documentID), zap.Error(err))
	}
}

func (s *Service) detect(ctx context.Context, documentID string) error {
	candidates, err := s.CheckDocument(ctx, documentID)
	if err != nil {
		return err
	}

	flagged := 0
	for _, c := range candidates {
		if !c.Flagged {
			continue
		}
		flagged++

		rec := domsim.NewRecord(uuid.NewString(), documentID, c.DocumentID,
			c.Scores, c.CombinedScore, s.now())
		if err := s.records.Save(ctx, &rec); err != nil {
			// One unsaved pair must not drop the remaining flagged pairs.
			metrics.SimilarityChecksTotal.WithLabelValues("failed").Inc()
			s.logger.Error("Failed to persist similarity record",
				zap.String("document_id", documentID),
				zap.String("candidate_id", c.DocumentID),
				zap.Error(err))
			continue
		}

		metrics.SimilarityChecksTotal.WithLabelValues("flagged").Inc()
		s.logger.Info("Near-duplicate flagged",
			zap.String("document_id", documentID),
			zap.String("candidate_id", c.DocumentID),
			zap.Float64("combined_score", c.CombinedScore))
	}

	if flagged == 0 {
		metrics.SimilarityChecksTotal.WithLabelValues("clean").Inc()
	}
	return nil
}

// Pending returns unresolved records for moderation, newest first.
func (s *Service) Pending(ctx context.Context) ([]domsim.Record, error) {
	return s.records.ListPending(ctx)
}

// Resolve applies a terminal moderation decision to a record.
func (s *Service) Resolve(ctx context.Context, recordID string, decision domsim.Decision) (domsim.Record, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return domsim.Record{}, fmt.Errorf("get record: %w", err)
	}

	resolved, err := rec.Resolve(decision)
	if err != nil {
		return domsim.Record{}, err
	}

	if err := s.records.Save(ctx, &resolved); err != nil {
		return domsim.Record{}, fmt.Errorf("save record: %w", err)
	}
	return resolved, nil
}

// Sweep deletes unprocessed records older than the retention window.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	swept, err := s.records.SweepExpired(ctx, s.now(), s.retention)
	if err != nil {
		return swept, fmt.Errorf("sweep expired records: %w", err)
	}
	if swept > 0 {
		metrics.SimilarityRecordsSwept.Add(float64(swept))
		s.logger.Info("Swept expired similarity records", zap.Int("count", swept))
	}
	return swept, nil
}

func (s *Service) loadVectors(ctx context.Context) (map[string][]float32, error) {
	recs, err := s.embs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	vectors := make(map[string][]float32, len(recs))
	for i := range recs {
		vectors[recs[i].DocumentID()] = recs[i].Vector()
	}
	return vectors, nil
}
