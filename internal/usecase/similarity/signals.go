package similarity

import (
	"math"
	"math/bits"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// shingleSize is the token window for content shingling. Shorter texts fall
// back to single-token shingles.
const shingleSize = 3

// hashScore compares content fingerprints. Identical file hashes score an
// exact 1.0; otherwise the score is the simhash similarity of the contents.
func hashScore(fileHashA, contentA, fileHashB, contentB string) float64 {
	if fileHashA != "" && fileHashA == fileHashB {
		return 1.0
	}
	return simhashSimilarity(simhash(contentA), simhash(contentB))
}

// textScore is the Jaccard overlap of the two contents' shingle sets.
func textScore(contentA, contentB string) float64 {
	a := shingleSet(contentA)
	b := shingleSet(contentB)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for s := range a {
		if _, ok := b[s]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// embeddingScore is the cosine similarity of the two vectors, clamped to [0,1].
func embeddingScore(a, b []float32) float64 {
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

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}

// simhash computes a 64-bit locality-sensitive fingerprint over the content's
// shingles. Similar texts produce fingerprints with small Hamming distance.
func simhash(content string) uint64 {
	var counts [64]int
	for s := range shingleSet(content) {
		h := xxhash.Sum64String(s)
		for bit := 0; bit < 64; bit++ {
			if h&(1<<uint(bit)) != 0 {
				counts[bit]++
			} else {
				counts[bit]--
			}
		}
	}

	var fp uint64
	for bit := 0; bit < 64; bit++ {
		if counts[bit] > 0 {
			fp |= 1 << uint(bit)
		}
	}
	return fp
}

// simhashSimilarity maps the Hamming distance of two fingerprints to [0,1].
func simhashSimilarity(a, b uint64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	return 1 - float64(bits.OnesCount64(a^b))/64
}

// shingleSet builds the set of overlapping token windows of the content.
func shingleSet(content string) map[string]struct{} {
	tokens := tokenize(content)
	set := make(map[string]struct{}, len(tokens))
	if len(tokens) == 0 {
		return set
	}

	if len(tokens) < shingleSize {
		for _, t := range tokens {
			set[t] = struct{}{}
		}
		return set
	}

	for i := 0; i+shingleSize <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+shingleSize], " ")] = struct{}{}
	}
	return set
}

// tokenize lowercases and splits the content at non-alphanumeric runes.
func tokenize(content string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, content)
	return strings.Fields(cleaned)
}
