package document

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Repository persists the searchable document view.
type Repository interface {
	Upsert(ctx context.Context, doc *domain.Document) (bool, error)
	Delete(ctx context.Context, id string) error
}

// EmbeddingWriter stores and removes document embeddings.
type EmbeddingWriter interface {
	Save(ctx context.Context, rec *domain.EmbeddingRecord) error
	Delete(ctx context.Context, documentID string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Detector schedules asynchronous near-duplicate detection.
type Detector interface {
	Detect(documentID string)
}
