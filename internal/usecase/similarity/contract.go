package similarity

import (
	"context"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
)

// DocumentReader loads documents for pairwise comparison.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}

// EmbeddingReader loads stored document embeddings.
type EmbeddingReader interface {
	List(ctx context.Context) ([]domain.EmbeddingRecord, error)
}

// Repository persists similarity records.
type Repository interface {
	Save(ctx context.Context, rec *domsim.Record) error
	Get(ctx context.Context, id string) (domsim.Record, error)
	ListPending(ctx context.Context) ([]domsim.Record, error)
	SweepExpired(ctx context.Context, now time.Time, retention time.Duration) (int, error)
}
