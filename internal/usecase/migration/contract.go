package migration

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// DocumentReader loads documents whose embeddings are regenerated.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domain.Document, error)
}

// EmbeddingStore reads and rewrites stored embeddings.
type EmbeddingStore interface {
	List(ctx context.Context) ([]domain.EmbeddingRecord, error)
	Save(ctx context.Context, rec *domain.EmbeddingRecord) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
