// Package migration regenerates stored embeddings after an embedding model
// switch. It runs in the background on a worker pool and exposes its progress
// for the admin surface.
package migration

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// DefaultWorkers sizes the regeneration pool when no count is configured.
const DefaultWorkers = 4

// Progress is a point-in-time snapshot of a running or finished migration.
type Progress struct {
	Running   bool
	Total     int
	Processed int
	Failed    int
}

// Service migrates stale embeddings to the active model. One migration runs
// at a time; starting a second one while the first is active is an error.
type Service struct {
	docs        DocumentReader
	embs        EmbeddingStore
	embed       Embedder
	activeModel string
	workers     int
	logger      *zap.Logger

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	progress Progress
}

// New creates a migration service.
func New(docs DocumentReader, embs EmbeddingStore, embed Embedder, activeModel string, workers int, logger *zap.Logger) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{
		docs:        docs,
		embs:        embs,
		embed:       embed,
		activeModel: activeModel,
		workers:     workers,
		logger:      logger,
	}
}

// Start scans for embeddings produced by other model versions and regenerates
// them in the background. Records already on the active model are skipped, so
// rerunning a finished migration is a no-op. Returns the number of stale
// records scheduled.
func (s *Service) Start(ctx context.Context) (int, error) {
	stale, err := s.staleRecords(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return 0, domain.ErrMigrationRunning
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.running = true
	s.cancel = cancel
	s.progress = Progress{Running: true, Total: len(stale)}
	s.mu.Unlock()

	go s.run(runCtx, stale)
	return len(stale), nil
}

// Cancel stops an in-flight migration. Already-regenerated embeddings stay.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Progress returns the current migration snapshot.
func (s *Service) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Service) run(ctx context.Context, stale []domain.EmbeddingRecord) {
	defer s.finish()

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		s.logger.Error("Failed to create migration pool", zap.Error(err))
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range stale {
		if ctx.Err() != nil {
			break
		}

		rec := stale[i]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			s.migrateOne(ctx, &rec)
		})
		if submitErr != nil {
			wg.Done()
			s.recordFailure(rec.DocumentID(), submitErr)
		}
	}
	wg.Wait()

	s.logger.Info("Embedding migration finished",
		zap.String("model", s.activeModel),
		zap.Int("total", len(stale)))
}

// migrateOne regenerates a single document's embedding. Failures are counted
// and logged; the migration continues.
func (s *Service) migrateOne(ctx context.Context, rec *domain.EmbeddingRecord) {
	if ctx.Err() != nil {
		return
	}

	doc, err := s.docs.Get(ctx, rec.DocumentID())
	if err != nil {
		s.recordFailure(rec.DocumentID(), fmt.Errorf("get document: %w", err))
		return
	}

	result, err := s.embed.Embed(ctx, doc.EmbeddingInput())
	if err != nil {
		s.recordFailure(rec.DocumentID(), fmt.Errorf("regenerate embedding: %w", err))
		return
	}

	fresh := domain.NewEmbeddingRecord(rec.DocumentID(), result.Embedding, s.activeModel)
	if err := s.embs.Save(ctx, &fresh); err != nil {
		s.recordFailure(rec.DocumentID(), fmt.Errorf("save embedding: %w", err))
		return
	}

	metrics.MigrationDocumentsTotal.WithLabelValues("regenerated").Inc()
	s.mu.Lock()
	s.progress.Processed++
	s.mu.Unlock()
}

func (s *Service) staleRecords(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	recs, err := s.embs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}

	stale := make([]domain.EmbeddingRecord, 0, len(recs))
	for i := range recs {
		if !recs[i].IsStale(s.activeModel) {
			metrics.MigrationDocumentsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		stale = append(stale, recs[i])
	}
	return stale, nil
}

func (s *Service) recordFailure(documentID string, err error) {
	metrics.MigrationDocumentsTotal.WithLabelValues("failed").Inc()
	s.logger.Warn("Embedding migration failed for document",
		zap.String("document_id", documentID), zap.Error(err))
	s.mu.Lock()
	s.progress.Processed++
	s.progress.Failed++
	s.mu.Unlock()
}

func (s *Service) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.progress.Running = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
