// Package mode defines the search ranking strategies.
package mode

// Mode is the search ranking strategy.
type Mode string

// Supported search modes.
const (
	// Vector ranks by embedding cosine similarity only.
	Vector Mode = "vector"
	// Keyword ranks by weighted lexical field coverage only.
	Keyword Mode = "keyword"
	// Hybrid blends vector and keyword scores under configured weights.
	Hybrid Mode = "hybrid"
)

// IsValid reports whether the mode is supported.
func (m Mode) IsValid() bool {
	switch m {
	case Vector, Keyword, Hybrid:
		return true
	}
	return false
}

// String returns the mode name.
func (m Mode) String() string { return string(m) }
