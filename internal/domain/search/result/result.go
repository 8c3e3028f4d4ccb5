// Package result defines the ranked search hit returned by the engine.
package result

import "github.com/kailas-cloud/docdex/internal/domain"

// Result is a single search hit. All scores live in [0,1]. Owned by one search
// call; never persisted.
type Result struct {
	documentID    string
	vectorScore   float64
	textScore     float64
	combinedScore float64
	fieldScores   map[string]float64
}

// New creates a search result with all scores clamped to [0,1].
func New(documentID string, vectorScore, textScore, combinedScore float64, fieldScores map[string]float64) Result {
	return Result{
		documentID:    documentID,
		vectorScore:   domain.ClampScore(vectorScore),
		textScore:     domain.ClampScore(textScore),
		combinedScore: domain.ClampScore(combinedScore),
		fieldScores:   fieldScores,
	}
}

// DocumentID returns the matched document identifier.
func (r *Result) DocumentID() string { return r.documentID }

// VectorScore returns the embedding cosine similarity contribution.
func (r *Result) VectorScore() float64 { return r.vectorScore }

// TextScore returns the lexical coverage contribution.
func (r *Result) TextScore() float64 { return r.textScore }

// CombinedScore returns the blended ranking score.
func (r *Result) CombinedScore() float64 { return r.combinedScore }

// FieldScores returns the per-field keyword coverage breakdown (nil for
// vector-only hits).
func (r *Result) FieldScores() map[string]float64 { return r.fieldScores }
