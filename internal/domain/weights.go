package domain

import (
	"fmt"
	"math"
)

// weightEpsilon is the tolerance for weight-sum validation.
const weightEpsilon = 1e-6

// HybridWeights blends vector and keyword scores into one combined score.
type HybridWeights struct {
	Vector float64
	Text   float64
}

// Validate checks that the weights sum to 1.0.
func (w HybridWeights) Validate() error {
	return validateSum("hybrid", w.Vector+w.Text)
}

// FieldWeights weighs per-field keyword coverage. Must sum to 1.0.
type FieldWeights struct {
	Title         float64
	Description   float64
	Summary       float64
	KeyPoints     float64
	Tags          float64
	SuggestedTags float64
}

// Validate checks that the weights sum to 1.0.
func (w FieldWeights) Validate() error {
	sum := w.Title + w.Description + w.Summary + w.KeyPoints + w.Tags + w.SuggestedTags
	return validateSum("keyword field", sum)
}

func validateSum(group string, sum float64) error {
	if math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("%s weights must sum to 1.0, got %v: %w", group, sum, ErrInvalidWeights)
	}
	return nil
}

// ClampScore clamps a score to [0,1].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
