// Package chi exposes the HTTP API: search, document ingestion, similarity
// moderation, stats, and the admin surface.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chimux "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
	documentuc "github.com/kailas-cloud/docdex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/docdex/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
	similarityuc "github.com/kailas-cloud/docdex/internal/usecase/similarity"
	statsuc "github.com/kailas-cloud/docdex/internal/usecase/stats"
)

// errorCode is the machine-readable error identifier in error responses.
type errorCode string

// Error response codes.
const (
	codeBadRequest             errorCode = "bad_request"
	codeValidationFailed       errorCode = "validation_failed"
	codeUnauthorized           errorCode = "unauthorized"
	codeDocumentNotFound       errorCode = "document_not_found"
	codeRecordNotFound         errorCode = "record_not_found"
	codeInvalidDecision        errorCode = "invalid_decision"
	codeAlreadyProcessed       errorCode = "already_processed"
	codeMigrationRunning       errorCode = "migration_running"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codeInternalError          errorCode = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// EmbeddingCacheClearer drops cached query embeddings.
type EmbeddingCacheClearer interface {
	Clear() int
}

// Server is the HTTP API server.
type Server struct {
	documents     *documentuc.Service
	search        *searchuc.Service
	similarity    *similarityuc.Service
	migration     *migrationuc.Service
	stats         *statsuc.Service
	health        *healthuc.Service
	embedCache    EmbeddingCacheClearer
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. embedCache may be nil.
func NewServer(
	documents *documentuc.Service,
	search *searchuc.Service,
	similarity *similarityuc.Service,
	migration *migrationuc.Service,
	stats *statsuc.Service,
	health *healthuc.Service,
	embedCache EmbeddingCacheClearer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents:  documents,
		search:     search,
		similarity: similarity,
		migration:  migration,
		stats:      stats,
		health:     health,
		embedCache: embedCache,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, codeRecordNotFound),
		sentinelHandler(domain.ErrInvalidDecision, http.StatusBadRequest, codeInvalidDecision),
		sentinelHandler(domain.ErrAlreadyProcessed, http.StatusConflict, codeAlreadyProcessed),
		sentinelHandler(domain.ErrMigrationRunning, http.StatusConflict, codeMigrationRunning),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// Router returns the API route tree. Middleware is applied by the caller.
func (s *Server) Router() chimux.Router {
	r := chimux.NewRouter()

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chimux.Router) {
		r.Post("/search", s.SearchDocuments)
		r.Put("/documents/{id}", s.UpsertDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)

		r.Post("/similarity/check", s.CheckSimilarity)
		r.Get("/similarity/pending", s.PendingSimilarity)
		r.Post("/similarity/{id}/decision", s.ResolveSimilarity)

		r.Get("/stats", s.GetStats)

		r.Route("/admin", func(r chimux.Router) {
			r.Post("/caches/clear", s.ClearCaches)
			r.Post("/embeddings/migrate", s.StartMigration)
			r.Delete("/embeddings/migrate", s.CancelMigration)
			r.Get("/embeddings/migrate/progress", s.MigrationProgress)
		})
	})

	return r
}

// SearchDocuments handles POST /v1/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchReq, err := searchRequestFromDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results, total, err := s.search.Search(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToDTO(&results[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items: items,
		Total: total,
		Page:  searchReq.Page(),
		Limit: searchReq.Limit(),
	})
}

// UpsertDocument handles PUT /v1/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	id := chimux.URLParam(r, "id")

	var req upsertDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, err := documentFromUpsert(id, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	created, err := s.documents.Upsert(r.Context(), &doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/v1/documents/"+id)
	}
	writeJSON(w, status, upsertDocumentResponse{ID: id, Created: created})
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chimux.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckSimilarity handles POST /v1/similarity/check.
func (s *Server) CheckSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "document_id is required")
		return
	}

	candidates, err := s.similarity.CheckDocument(r.Context(), req.DocumentID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]similarityCandidate, len(candidates))
	for i, c := range candidates {
		items[i] = candidateToDTO(c)
	}

	writeJSON(w, http.StatusOK, similarityCheckResponse{
		DocumentID: req.DocumentID,
		Candidates: items,
	})
}

// PendingSimilarity handles GET /v1/similarity/pending.
func (s *Server) PendingSimilarity(w http.ResponseWriter, r *http.Request) {
	records, err := s.similarity.Pending(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]similarityRecord, len(records))
	for i := range records {
		items[i] = recordToDTO(&records[i])
	}

	writeJSON(w, http.StatusOK, pendingSimilarityResponse{Items: items})
}

// ResolveSimilarity handles POST /v1/similarity/{id}/decision.
func (s *Server) ResolveSimilarity(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resolved, err := s.similarity.Resolve(r.Context(), chimux.URLParam(r, "id"), domsim.Decision(req.Decision))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToDTO(&resolved))
}

// GetStats handles GET /v1/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsToDTO(s.stats.Snapshot()))
}

// ClearCaches handles POST /v1/admin/caches/clear.
func (s *Server) ClearCaches(w http.ResponseWriter, r *http.Request) {
	resp := clearCachesResponse{SearchEntries: s.search.ClearCache()}
	if s.embedCache != nil {
		resp.EmbeddingEntries = s.embedCache.Clear()
	}

	s.logger.Info("Caches cleared",
		zap.Int("search_entries", resp.SearchEntries),
		zap.Int("embedding_entries", resp.EmbeddingEntries))
	writeJSON(w, http.StatusOK, resp)
}

// StartMigration handles POST /v1/admin/embeddings/migrate.
func (s *Server) StartMigration(w http.ResponseWriter, r *http.Request) {
	scheduled, err := s.migration.Start(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, migrationStartResponse{Scheduled: scheduled})
}

// CancelMigration handles DELETE /v1/admin/embeddings/migrate.
func (s *Server) CancelMigration(w http.ResponseWriter, r *http.Request) {
	s.migration.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// MigrationProgress handles GET /v1/admin/embeddings/migrate/progress.
func (s *Server) MigrationProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, progressToDTO(s.migration.Progress()))
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToDTO(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrRecordNotFound,
		domain.ErrEmbeddingNotFound,
		domain.ErrInvalidDecision,
		domain.ErrAlreadyProcessed,
		domain.ErrMigrationRunning,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
