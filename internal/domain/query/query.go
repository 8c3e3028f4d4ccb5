// Package query normalizes raw search input into the canonical variants the
// search pipeline scores against.
package query

import (
	"strings"
	"unicode"
)

// techSuffixes are short technology abbreviations peeled off token tails to
// boost recall ("reactjs" also matches "react" and "js").
var techSuffixes = []string{"js", "ts", "css", "sql", "db", "ai", "ml", "py"}

// Variants holds every canonical form of one raw query (immutable value object).
type Variants struct {
	trimmed             string
	normalized          string
	lowerTrimmed        string
	lowerNormalized     string
	condensedTrimmed    string
	condensedNormalized string
	tokens              []string
	lowerTokens         []string
	embeddingText       string
}

// Trimmed returns the raw query with surrounding whitespace removed.
func (v *Variants) Trimmed() string { return v.trimmed }

// Normalized returns the punctuation-stripped, token-expanded form.
func (v *Variants) Normalized() string { return v.normalized }

// LowerTrimmed returns the lowercased trimmed form.
func (v *Variants) LowerTrimmed() string { return v.lowerTrimmed }

// LowerNormalized returns the lowercased normalized form.
func (v *Variants) LowerNormalized() string { return v.lowerNormalized }

// CondensedTrimmed returns the trimmed form reduced to alphanumerics (fuzzy matching).
func (v *Variants) CondensedTrimmed() string { return v.condensedTrimmed }

// CondensedNormalized returns the normalized form reduced to alphanumerics.
func (v *Variants) CondensedNormalized() string { return v.condensedNormalized }

// Tokens returns the expanded tokens in first-seen order, original case, no duplicates.
func (v *Variants) Tokens() []string { return v.tokens }

// LowerTokens returns the expanded lowercase tokens in first-seen order, no duplicates.
func (v *Variants) LowerTokens() []string { return v.lowerTokens }

// EmbeddingText returns the best available text to embed: normalized, falling
// back to whitespace-normalized, falling back to the raw trimmed query.
func (v *Variants) EmbeddingText() string { return v.embeddingText }

// IsEmpty reports whether the query normalized to nothing searchable.
func (v *Variants) IsEmpty() bool { return v.lowerNormalized == "" }

// Prepare normalizes a raw query into all canonical variants.
// Empty or whitespace-only input yields zero-value Variants, not an error.
func Prepare(raw string) Variants {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Variants{}
	}

	cleaned := replacePunctuation(trimmed)
	rawTokens := strings.Fields(cleaned)

	tokens := expandTokens(rawTokens, false)
	lowerTokens := expandTokens(rawTokens, true)

	normalized := strings.Join(tokens, " ")
	lowerNormalized := strings.Join(lowerTokens, " ")

	embeddingText := normalized
	if embeddingText == "" {
		embeddingText = strings.Join(strings.Fields(trimmed), " ")
	}
	if embeddingText == "" {
		embeddingText = trimmed
	}

	return Variants{
		trimmed:             trimmed,
		normalized:          normalized,
		lowerTrimmed:        strings.ToLower(trimmed),
		lowerNormalized:     lowerNormalized,
		condensedTrimmed:    Condense(trimmed),
		condensedNormalized: Condense(normalized),
		tokens:              tokens,
		lowerTokens:         lowerTokens,
		embeddingText:       embeddingText,
	}
}

// Condense lowercases and strips everything but letters and digits.
// Idempotent: Condense(Condense(x)) == Condense(x).
func Condense(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TokenCoverage returns the fraction of tokens occurring as case-insensitive
// substrings of source. An empty token list yields 0, not NaN.
func TokenCoverage(source string, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	lowerSource := strings.ToLower(source)
	matched := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if strings.Contains(lowerSource, strings.ToLower(tok)) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}

// replacePunctuation maps Unicode punctuation and symbol runes (curly quotes
// and en/em dashes included) to spaces so they act as token boundaries.
func replacePunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
}

// expandTokens applies the recall-boosting expansion to each token and
// deduplicates the output preserving first-seen order. When lower is true the
// tokens are lowercased before expansion.
func expandTokens(rawTokens []string, lower bool) []string {
	seen := make(map[string]struct{}, len(rawTokens)*2)
	out := make([]string, 0, len(rawTokens)*2)

	emit := func(tok string) {
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, tok := range rawTokens {
		if lower {
			tok = strings.ToLower(tok)
		}
		emit(tok)

		lowerTok := strings.ToLower(tok)
		for _, suffix := range techSuffixes {
			if len(lowerTok) > len(suffix) && strings.HasSuffix(lowerTok, suffix) {
				emit(lowerTok[:len(lowerTok)-len(suffix)])
				emit(suffix)
				break
			}
		}

		for _, part := range splitDigitBoundaries(lowerTok) {
			emit(part)
		}
	}

	return out
}

// splitDigitBoundaries splits a token at digit<->letter transitions:
// "web3" -> ["web", "3"], "mp3player" -> ["mp", "3", "player"].
// Returns nil when the token has no such boundary.
func splitDigitBoundaries(tok string) []string {
	runes := []rune(tok)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prevDigit := unicode.IsDigit(runes[i-1])
		curDigit := unicode.IsDigit(runes[i])
		if prevDigit != curDigit {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return append(parts, string(runes[start:]))
}
