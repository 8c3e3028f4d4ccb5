// Package similarity defines the near-duplicate scoring model and the
// moderation lifecycle of a flagged document pair.
package similarity

import (
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Decision is the moderation outcome for a flagged pair.
type Decision string

// Moderation decisions.
const (
	// DecisionPending awaits admin review.
	DecisionPending Decision = "pending"
	// DecisionConfirmed marks the pair as a confirmed duplicate (terminal).
	DecisionConfirmed Decision = "confirmed"
	// DecisionDismissed marks the pair as a false positive (terminal).
	DecisionDismissed Decision = "dismissed"
)

// IsValid reports whether the decision is known.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionPending, DecisionConfirmed, DecisionDismissed:
		return true
	}
	return false
}

// IsTerminal reports whether the decision closes the record.
func (d Decision) IsTerminal() bool {
	return d == DecisionConfirmed || d == DecisionDismissed
}

// Scores holds the three per-signal similarity scores, each in [0,1].
type Scores struct {
	Hash      float64
	Text      float64
	Embedding float64
}

// Clamped returns a copy with every score clamped to [0,1].
func (s Scores) Clamped() Scores {
	return Scores{
		Hash:      domain.ClampScore(s.Hash),
		Text:      domain.ClampScore(s.Text),
		Embedding: domain.ClampScore(s.Embedding),
	}
}

// Weights blends the three signals into one combined score. Must sum to 1.0.
type Weights struct {
	Hash      float64
	Text      float64
	Embedding float64
}

// Validate checks that the weights sum to 1.0.
func (w Weights) Validate() error {
	sum := w.Hash + w.Text + w.Embedding
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("similarity weights must sum to 1.0, got %v: %w", sum, domain.ErrInvalidWeights)
	}
	return nil
}

// Thresholds drive the duplicate-flagging policy.
type Thresholds struct {
	// HashMatch flags near-exact fingerprint matches outright.
	HashMatch float64
	// Detection flags on the combined weighted score.
	Detection float64
	// EmbeddingMatch flags on embedding similarity alone, but only when the
	// hash signal clears HashInclude (guards against embedding noise).
	EmbeddingMatch float64
	// HashInclude is the minimum hash score required for the embedding path.
	HashInclude float64
}

// Combine computes the weighted combined score. Pure and deterministic;
// the result is clamped to [0,1].
func Combine(s Scores, w Weights) float64 {
	s = s.Clamped()
	return domain.ClampScore(w.Hash*s.Hash + w.Text*s.Text + w.Embedding*s.Embedding)
}

// Flagged is the duplicate decision policy. A pair is flagged when any holds:
//   - hash score reaches HashMatch (near-exact fast path),
//   - the combined score reaches Detection,
//   - the embedding score reaches EmbeddingMatch while the hash score reaches
//     HashInclude.
func Flagged(s Scores, combined float64, t Thresholds) bool {
	s = s.Clamped()
	if s.Hash >= t.HashMatch {
		return true
	}
	if combined >= t.Detection {
		return true
	}
	if s.Embedding >= t.EmbeddingMatch && s.Hash >= t.HashInclude {
		return true
	}
	return false
}

// Record is a persisted similarity verdict awaiting moderation.
type Record struct {
	id            string
	documentA     string
	documentB     string
	scores        Scores
	combinedScore float64
	isProcessed   bool
	decision      Decision
	createdAt     time.Time
}

// NewRecord creates an unprocessed pending record.
func NewRecord(id, documentA, documentB string, scores Scores, combinedScore float64, createdAt time.Time) Record {
	return Record{
		id:            id,
		documentA:     documentA,
		documentB:     documentB,
		scores:        scores.Clamped(),
		combinedScore: domain.ClampScore(combinedScore),
		decision:      DecisionPending,
		createdAt:     createdAt,
	}
}

// Reconstruct hydrates a record from storage without validation.
func Reconstruct(
	id, documentA, documentB string, scores Scores, combinedScore float64,
	isProcessed bool, decision Decision, createdAt time.Time,
) Record {
	return Record{
		id: id, documentA: documentA, documentB: documentB,
		scores: scores, combinedScore: combinedScore,
		isProcessed: isProcessed, decision: decision, createdAt: createdAt,
	}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// DocumentA returns the newly ingested document id.
func (r *Record) DocumentA() string { return r.documentA }

// DocumentB returns the candidate duplicate document id.
func (r *Record) DocumentB() string { return r.documentB }

// Scores returns the per-signal scores.
func (r *Record) Scores() Scores { return r.scores }

// CombinedScore returns the weighted combined score.
func (r *Record) CombinedScore() float64 { return r.combinedScore }

// IsProcessed reports whether an admin has resolved the record.
func (r *Record) IsProcessed() bool { return r.isProcessed }

// Decision returns the moderation decision.
func (r *Record) Decision() Decision { return r.decision }

// CreatedAt returns the creation timestamp.
func (r *Record) CreatedAt() time.Time { return r.createdAt }

// Resolve applies a terminal admin decision. Resolving an already processed
// record or applying a non-terminal decision is an error.
func (r *Record) Resolve(d Decision) (Record, error) {
	if !d.IsValid() || !d.IsTerminal() {
		return Record{}, fmt.Errorf("decision %q: %w", d, domain.ErrInvalidDecision)
	}
	if r.isProcessed {
		return Record{}, domain.ErrAlreadyProcessed
	}
	resolved := *r
	resolved.decision = d
	resolved.isProcessed = true
	return resolved, nil
}

// IsExpired reports whether an unprocessed record has outlived the retention
// window and should be swept.
func (r *Record) IsExpired(now time.Time, retention time.Duration) bool {
	if r.isProcessed {
		return false
	}
	return now.Sub(r.createdAt) > retention
}
