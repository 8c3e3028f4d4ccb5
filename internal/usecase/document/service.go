// Package document handles document ingestion: persisting the searchable
// view, generating the embedding, and kicking off duplicate detection.
package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/logger"
)

// Service handles document ingestion and removal.
type Service struct {
	repo        Repository
	embs        EmbeddingWriter
	embed       Embedder
	detector    Detector
	activeModel string
}

// New creates a document service. detector may be nil.
func New(repo Repository, embs EmbeddingWriter, embed Embedder, detector Detector, activeModel string) *Service {
	return &Service{
		repo:        repo,
		embs:        embs,
		embed:       embed,
		detector:    detector,
		activeModel: activeModel,
	}
}

// Upsert stores the document, regenerates its embedding, and schedules
// duplicate detection. Returns true when the document was created.
//
// Detection is scheduled only after the embedding is persisted so the
// detector sees the fresh vector. When the embedding cannot be stored it
// still runs on the hash and text signals; its outcome never affects
// ingestion.
func (s *Service) Upsert(ctx context.Context, doc *domain.Document) (bool, error) {
	created, err := s.repo.Upsert(ctx, doc)
	if err != nil {
		return false, fmt.Errorf("upsert document: %w", err)
	}

	result, err := s.embed.Embed(ctx, doc.EmbeddingInput())
	if err != nil {
		logger.FromContext(ctx).Warn("Document saved without embedding",
			zap.String("document_id", doc.ID()), zap.Error(err))
		s.scheduleDetection(doc.ID())
		return created, fmt.Errorf("embed document: %w", err)
	}

	rec := domain.NewEmbeddingRecord(doc.ID(), result.Embedding, s.activeModel)
	if err := s.embs.Save(ctx, &rec); err != nil {
		s.scheduleDetection(doc.ID())
		return created, fmt.Errorf("save embedding: %w", err)
	}

	s.scheduleDetection(doc.ID())
	return created, nil
}

func (s *Service) scheduleDetection(documentID string) {
	if s.detector != nil {
		s.detector.Detect(documentID)
	}
}

// Delete removes the document and its embedding.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.embs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	return nil
}
