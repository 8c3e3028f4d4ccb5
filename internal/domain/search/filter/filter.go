// Package filter defines the strongly-typed search filter options.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Filter narrows the candidate corpus before scoring. The zero value matches
// every document.
type Filter struct {
	category      string
	tags          []string
	visibility    domain.Visibility
	minRating     float64
	createdAfter  time.Time
	createdBefore time.Time
}

// New validates and creates a Filter.
func New(
	category string, tags []string, visibility domain.Visibility,
	minRating float64, createdAfter, createdBefore time.Time,
) (Filter, error) {
	if visibility != "" && !visibility.IsValid() {
		return Filter{}, fmt.Errorf("invalid visibility %q", visibility)
	}
	if minRating < 0 || minRating > 5 {
		return Filter{}, fmt.Errorf("min_rating must be between 0 and 5, got %v", minRating)
	}
	if !createdAfter.IsZero() && !createdBefore.IsZero() && createdBefore.Before(createdAfter) {
		return Filter{}, fmt.Errorf("created_before precedes created_after")
	}

	return Filter{
		category:      category,
		tags:          tags,
		visibility:    visibility,
		minRating:     minRating,
		createdAfter:  createdAfter,
		createdBefore: createdBefore,
	}, nil
}

// Category returns the category filter ("" = any).
func (f *Filter) Category() string { return f.category }

// Tags returns required tags (all must be present).
func (f *Filter) Tags() []string { return f.tags }

// Visibility returns the visibility filter ("" = any).
func (f *Filter) Visibility() domain.Visibility { return f.visibility }

// MinRating returns the rating floor (0 = any).
func (f *Filter) MinRating() float64 { return f.minRating }

// CreatedAfter returns the lower creation-time bound (zero = unbounded).
func (f *Filter) CreatedAfter() time.Time { return f.createdAfter }

// CreatedBefore returns the upper creation-time bound (zero = unbounded).
func (f *Filter) CreatedBefore() time.Time { return f.createdBefore }

// IsEmpty reports whether the filter matches everything.
func (f *Filter) IsEmpty() bool {
	return f.category == "" && len(f.tags) == 0 && f.visibility == "" &&
		f.minRating == 0 && f.createdAfter.IsZero() && f.createdBefore.IsZero()
}

// Matches reports whether the document passes every set condition.
func (f *Filter) Matches(doc *domain.Document) bool {
	if f.category != "" && !strings.EqualFold(doc.Category(), f.category) {
		return false
	}
	if f.visibility != "" && doc.Visibility() != f.visibility {
		return false
	}
	if doc.Rating() < f.minRating {
		return false
	}
	if !f.createdAfter.IsZero() && doc.CreatedAt().Before(f.createdAfter) {
		return false
	}
	if !f.createdBefore.IsZero() && doc.CreatedAt().After(f.createdBefore) {
		return false
	}
	for _, want := range f.tags {
		if !hasTag(doc.Tags(), want) {
			return false
		}
	}
	return true
}

// CanonicalString serializes the filter deterministically for cache keys.
// Identical filters always produce identical strings.
func (f *Filter) CanonicalString() string {
	tags := make([]string, len(f.tags))
	for i, t := range f.tags {
		tags[i] = strings.ToLower(t)
	}
	sort.Strings(tags)

	var after, before string
	if !f.createdAfter.IsZero() {
		after = f.createdAfter.UTC().Format(time.RFC3339)
	}
	if !f.createdBefore.IsZero() {
		before = f.createdBefore.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf("cat=%s|tags=%s|vis=%s|rating=%g|after=%s|before=%s",
		strings.ToLower(f.category), strings.Join(tags, ","), f.visibility,
		f.minRating, after, before,
	)
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
