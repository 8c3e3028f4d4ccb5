package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/config"
	dbRedis "github.com/kailas-cloud/docdex/internal/db/redis"
	"github.com/kailas-cloud/docdex/internal/domain"
	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
	logpkg "github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
	documentrepo "github.com/kailas-cloud/docdex/internal/repository/document"
	"github.com/kailas-cloud/docdex/internal/repository/embcache"
	embeddingrepo "github.com/kailas-cloud/docdex/internal/repository/embedding"
	similarityrepo "github.com/kailas-cloud/docdex/internal/repository/similarity"
	chiTransport "github.com/kailas-cloud/docdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/docdex/internal/transport/openai"
	documentuc "github.com/kailas-cloud/docdex/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/docdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/docdex/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
	similarityuc "github.com/kailas-cloud/docdex/internal/usecase/similarity"
	statsuc "github.com/kailas-cloud/docdex/internal/usecase/stats"
	"github.com/kailas-cloud/docdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Build embedder chain — composition root
	base, embedder := buildEmbedder(cfg.Embedding, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Create repositories (domain-native, no adapters)
	docRepo := documentrepo.New(store)
	embRepo := embeddingrepo.New(store)
	simRepo := similarityrepo.New(store)

	// Create use case services
	statsSvc := statsuc.New()
	searchSvc := searchuc.New(docRepo, embRepo, embedder, searchConfig(cfg.Search), statsSvc)

	simSvc, err := similarityuc.New(docRepo, embRepo, simRepo,
		domsim.Weights{
			Hash:      cfg.Similarity.Weights.Hash,
			Text:      cfg.Similarity.Weights.Text,
			Embedding: cfg.Similarity.Weights.Embedding,
		},
		domsim.Thresholds{
			HashMatch:      cfg.Similarity.Thresholds.HashMatch,
			Detection:      cfg.Similarity.Thresholds.Detection,
			EmbeddingMatch: cfg.Similarity.Thresholds.EmbeddingMatch,
			HashInclude:    cfg.Similarity.Thresholds.HashInclude,
		},
		time.Duration(cfg.Similarity.RetentionHrs)*time.Hour,
		cfg.Similarity.Workers, logger)
	if err != nil {
		logger.Fatal("Failed to create similarity service", zap.Error(err))
	}
	defer simSvc.Close()

	docSvc := documentuc.New(docRepo, embRepo, embedder, simSvc, cfg.Embedding.Model)
	migSvc := migrationuc.New(docRepo, embRepo, embedder, cfg.Embedding.Model, 0, logger)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(base))

	// Retention sweep for stale unresolved similarity records
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go runSweeper(sweepCtx, simSvc, time.Duration(cfg.Similarity.SweepHrs)*time.Hour, logger)

	// Create chi server
	server := chiTransport.NewServer(
		docSvc, searchSvc, simSvc, migSvc, statsSvc, healthSvc,
		embedder, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Router())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	migSvc.Cancel()
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached.
// Returns the base provider (for health checks) and the outermost embedder.
func buildEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (*openaiEmb.Embedder, *embcache.CachedEmbedder) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	instrumented := embeddinguc.NewInstrumentedEmbedder(base, cfg.Provider, cfg.Model, logger)
	cached := embcache.New(instrumented, cfg.Model, cfg.CacheSize, metrics.EmbeddingCacheTotal, logger)
	return base, cached
}

func searchConfig(cfg config.SearchConfig) searchuc.Config {
	return searchuc.Config{
		Weights: domain.HybridWeights{
			Vector: cfg.Weights.Vector,
			Text:   cfg.Weights.Text,
		},
		FieldWeights: domain.FieldWeights{
			Title:         cfg.FieldWeights.Title,
			Description:   cfg.FieldWeights.Description,
			Summary:       cfg.FieldWeights.Summary,
			KeyPoints:     cfg.FieldWeights.KeyPoints,
			Tags:          cfg.FieldWeights.Tags,
			SuggestedTags: cfg.FieldWeights.SuggestedTags,
		},
		VectorThreshold:  cfg.Thresholds.Vector,
		KeywordThreshold: cfg.Thresholds.Keyword,
		HybridThreshold:  cfg.Thresholds.Hybrid,
		CacheTTL:         time.Duration(cfg.Cache.TTLSec) * time.Second,
		CacheMaxEntries:  cfg.Cache.MaxEntries,
	}
}

// runSweeper deletes expired similarity records on a fixed interval.
func runSweeper(ctx context.Context, simSvc *similarityuc.Service, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := simSvc.Sweep(ctx); err != nil {
				logger.Error("Similarity retention sweep failed", zap.Error(err))
			}
		}
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
