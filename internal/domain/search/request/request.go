// Package request defines the validated search request.
package request

import (
	"fmt"

	"github.com/kailas-cloud/docdex/internal/domain/search/filter"
	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Sort is the result ordering key.
type Sort string

// Supported sort keys.
const (
	// SortRelevance orders by combined score (default).
	SortRelevance Sort = "relevance"
	// SortRecent orders by document creation time.
	SortRecent Sort = "recent"
)

// IsValid reports whether the sort key is supported.
func (s Sort) IsValid() bool { return s == SortRelevance || s == SortRecent }

// Request is a validated search query. An empty query is valid: the pipeline
// short-circuits it to an empty result set.
type Request struct {
	query      string
	searchMode mode.Mode
	filters    filter.Filter
	page       int
	limit      int
	sort       Sort
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, page=1, limit=10, sort=relevance. Limit caps at 100.
func New(query string, m mode.Mode, filters filter.Filter, page, limit int, sort Sort) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if sort == "" {
		sort = SortRelevance
	}
	if !sort.IsValid() {
		return Request{}, fmt.Errorf("invalid sort key: %q", sort)
	}

	return Request{
		query:      query,
		searchMode: m,
		filters:    filters,
		page:       page,
		limit:      limit,
		sort:       sort,
	}, nil
}

// Query returns the raw search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filters returns the typed filter options.
func (r *Request) Filters() filter.Filter { return r.filters }

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Sort returns the result ordering key.
func (r *Request) Sort() Sort { return r.sort }

// Offset returns the number of results to skip for pagination.
func (r *Request) Offset() int { return (r.page - 1) * r.limit }
