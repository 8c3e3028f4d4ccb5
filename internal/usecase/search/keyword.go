package search

import (
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/domain/query"
)

// scoreKeyword computes the weighted per-field token coverage for one document.
// Returns the blended score and the per-field breakdown.
func scoreKeyword(doc *domain.Document, tokens []string, w domain.FieldWeights) (float64, map[string]float64) {
	fieldScores := map[string]float64{
		"title":          query.TokenCoverage(doc.Title(), tokens),
		"description":    query.TokenCoverage(doc.Description(), tokens),
		"summary":        query.TokenCoverage(doc.Summary(), tokens),
		"key_points":     query.TokenCoverage(strings.Join(doc.KeyPoints(), " "), tokens),
		"tags":           query.TokenCoverage(strings.Join(doc.Tags(), " "), tokens),
		"suggested_tags": query.TokenCoverage(strings.Join(doc.SuggestedTags(), " "), tokens),
	}

	score := w.Title*fieldScores["title"] +
		w.Description*fieldScores["description"] +
		w.Summary*fieldScores["summary"] +
		w.KeyPoints*fieldScores["key_points"] +
		w.Tags*fieldScores["tags"] +
		w.SuggestedTags*fieldScores["suggested_tags"]

	return domain.ClampScore(score), fieldScores
}

// keywordHit pairs a keyword score with its field breakdown.
type keywordHit struct {
	score       float64
	fieldScores map[string]float64
}

// scoreKeywordAll scores every candidate document.
func scoreKeywordAll(candidates map[string]*domain.Document, tokens []string, w domain.FieldWeights) map[string]keywordHit {
	hits := make(map[string]keywordHit, len(candidates))
	for id, doc := range candidates {
		score, fields := scoreKeyword(doc, tokens, w)
		hits[id] = keywordHit{score: score, fieldScores: fields}
	}
	return hits
}
