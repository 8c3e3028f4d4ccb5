package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingRecord is a stored document embedding tied to the model that produced it.
type EmbeddingRecord struct {
	documentID   string
	vector       []float32
	modelVersion string
	dimension    int
}

// NewEmbeddingRecord creates an embedding record.
func NewEmbeddingRecord(documentID string, vector []float32, modelVersion string) EmbeddingRecord {
	return EmbeddingRecord{
		documentID:   documentID,
		vector:       vector,
		modelVersion: modelVersion,
		dimension:    len(vector),
	}
}

// DocumentID returns the owning document identifier.
func (r *EmbeddingRecord) DocumentID() string { return r.documentID }

// Vector returns the embedding vector.
func (r *EmbeddingRecord) Vector() []float32 { return r.vector }

// ModelVersion returns the model version that produced the vector.
func (r *EmbeddingRecord) ModelVersion() string { return r.modelVersion }

// Dimension returns the vector dimension.
func (r *EmbeddingRecord) Dimension() int { return r.dimension }

// IsStale reports whether the record was produced by a model other than activeModel.
func (r *EmbeddingRecord) IsStale(activeModel string) bool {
	return r.modelVersion != activeModel
}
