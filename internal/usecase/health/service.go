// Package health reports component availability for the readiness endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the embedding provider is down; keyword search
	// still works, vector and hybrid queries fall back or fail.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable; no request can be
	// served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component check names as reported in the /healthz response.
const (
	checkDatabase  = "database"
	checkEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// Check probes every wired component. The database is load-bearing for all
// operations, so its failure marks the service unhealthy; a failing embedding
// provider only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks[checkDatabase] = CheckError
		status = Unhealthy
	} else {
		checks[checkDatabase] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks[checkEmbedding] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks[checkEmbedding] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
