package search

import (
	"sort"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/search/result"
)

// combineHybrid blends vector and keyword scores over the union of scored
// documents. A document missing from one branch contributes 0 on that side.
// Results below threshold are dropped.
func combineHybrid(
	vecScores map[string]float64, kwHits map[string]keywordHit,
	w domain.HybridWeights, threshold float64,
) []result.Result {
	ids := make(map[string]struct{}, len(vecScores)+len(kwHits))
	for id := range vecScores {
		ids[id] = struct{}{}
	}
	for id := range kwHits {
		ids[id] = struct{}{}
	}

	results := make([]result.Result, 0, len(ids))
	for id := range ids {
		vec := vecScores[id]
		kw := kwHits[id]
		combined := domain.ClampScore(w.Vector*vec + w.Text*kw.score)
		if combined < threshold {
			continue
		}
		results = append(results, result.New(id, vec, kw.score, combined, kw.fieldScores))
	}

	sortByRelevance(results)
	return results
}

// buildVectorResults converts vector scores into threshold-filtered, ordered results.
func buildVectorResults(vecScores map[string]float64, threshold float64) []result.Result {
	results := make([]result.Result, 0, len(vecScores))
	for id, score := range vecScores {
		if score < threshold {
			continue
		}
		results = append(results, result.New(id, score, 0, score, nil))
	}
	sortByRelevance(results)
	return results
}

// buildKeywordResults converts keyword hits into threshold-filtered, ordered results.
func buildKeywordResults(kwHits map[string]keywordHit, threshold float64) []result.Result {
	results := make([]result.Result, 0, len(kwHits))
	for id, hit := range kwHits {
		if hit.score < threshold {
			continue
		}
		results = append(results, result.New(id, 0, hit.score, hit.score, hit.fieldScores))
	}
	sortByRelevance(results)
	return results
}

// sortByRelevance orders by combined score desc, then vector score desc, then
// document id asc. Deterministic for equal scores.
func sortByRelevance(results []result.Result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.CombinedScore() != b.CombinedScore() {
			return a.CombinedScore() > b.CombinedScore()
		}
		if a.VectorScore() != b.VectorScore() {
			return a.VectorScore() > b.VectorScore()
		}
		return a.DocumentID() < b.DocumentID()
	})
}
