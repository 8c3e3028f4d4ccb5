package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrRecordNotFound signals a missing similarity record.
	ErrRecordNotFound = errors.New("similarity record not found")
	// ErrEmbeddingNotFound signals a missing stored embedding.
	ErrEmbeddingNotFound = errors.New("embedding not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInvalidWeights signals a weight group that does not sum to 1.0.
	ErrInvalidWeights = errors.New("invalid weights")
	// ErrInvalidDecision signals an unknown moderation decision.
	ErrInvalidDecision = errors.New("invalid decision")
	// ErrAlreadyProcessed signals a decision on an already resolved record.
	ErrAlreadyProcessed = errors.New("record already processed")
	// ErrMigrationRunning signals an embedding migration already in progress.
	ErrMigrationRunning = errors.New("migration already running")
)
