package search

import (
	"math"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// cosineSimilarity returns the cosine of the angle between two vectors,
// clamped to [0,1]. Mismatched dimensions or a zero vector score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return domain.ClampScore(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// scoreVector computes per-document cosine scores for every candidate that has
// a stored embedding. Documents outside the candidate set are skipped.
func scoreVector(queryVec []float32, recs []domain.EmbeddingRecord, candidates map[string]*domain.Document) map[string]float64 {
	scores := make(map[string]float64, len(recs))
	for i := range recs {
		rec := &recs[i]
		if _, ok := candidates[rec.DocumentID()]; !ok {
			continue
		}
		scores[rec.DocumentID()] = cosineSimilarity(queryVec, rec.Vector())
	}
	return scores
}
