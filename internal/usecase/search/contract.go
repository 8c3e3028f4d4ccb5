package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// DocumentReader loads the searchable corpus.
type DocumentReader interface {
	List(ctx context.Context) ([]domain.Document, error)
}

// EmbeddingReader loads stored document embeddings.
type EmbeddingReader interface {
	List(ctx context.Context) ([]domain.EmbeddingRecord, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Recorder observes finished searches for the stats endpoint.
type Recorder interface {
	RecordSearch(mode string, duration time.Duration, cacheHit bool)
}
