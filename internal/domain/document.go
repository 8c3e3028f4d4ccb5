package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Visibility controls who can find a document through search.
type Visibility string

// Document visibility levels.
const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

// IsValid reports whether the visibility is a known value.
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return true
	}
	return false
}

// Document is the searchable view of a shared document (immutable value object).
// The platform owns the full document lifecycle; the engine only sees the
// text fields it scores on, plus the file fingerprint for duplicate detection.
type Document struct {
	id            string
	title         string
	description   string
	summary       string
	keyPoints     []string
	tags          []string
	suggestedTags []string
	category      string
	visibility    Visibility
	rating        float64
	fileHash      string
	content       string
	createdAt     time.Time
}

// NewDocument validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Title is required.
func NewDocument(
	id, title, description, summary string,
	keyPoints, tags, suggestedTags []string,
	category string, visibility Visibility, rating float64,
	fileHash, content string, createdAt time.Time,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if title == "" {
		return Document{}, fmt.Errorf("title is required")
	}
	if visibility == "" {
		visibility = VisibilityPublic
	}
	if !visibility.IsValid() {
		return Document{}, fmt.Errorf("invalid visibility %q", visibility)
	}
	if rating < 0 || rating > 5 {
		return Document{}, fmt.Errorf("rating must be between 0 and 5, got %v", rating)
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return Document{
		id:            id,
		title:         title,
		description:   description,
		summary:       summary,
		keyPoints:     cloneStrings(keyPoints),
		tags:          cloneStrings(tags),
		suggestedTags: cloneStrings(suggestedTags),
		category:      category,
		visibility:    visibility,
		rating:        rating,
		fileHash:      fileHash,
		content:       content,
		createdAt:     createdAt,
	}, nil
}

// ReconstructDocument creates a Document without validation (storage hydration).
func ReconstructDocument(
	id, title, description, summary string,
	keyPoints, tags, suggestedTags []string,
	category string, visibility Visibility, rating float64,
	fileHash, content string, createdAt time.Time,
) Document {
	return Document{
		id: id, title: title, description: description, summary: summary,
		keyPoints: keyPoints, tags: tags, suggestedTags: suggestedTags,
		category: category, visibility: visibility, rating: rating,
		fileHash: fileHash, content: content, createdAt: createdAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Description returns the author-provided description.
func (d *Document) Description() string { return d.description }

// Summary returns the generated summary.
func (d *Document) Summary() string { return d.summary }

// KeyPoints returns the generated key points.
func (d *Document) KeyPoints() []string { return d.keyPoints }

// Tags returns the user tags.
func (d *Document) Tags() []string { return d.tags }

// SuggestedTags returns the suggested tags.
func (d *Document) SuggestedTags() []string { return d.suggestedTags }

// Category returns the document category.
func (d *Document) Category() string { return d.category }

// Visibility returns the document visibility.
func (d *Document) Visibility() Visibility { return d.visibility }

// Rating returns the average user rating (0-5).
func (d *Document) Rating() float64 { return d.rating }

// FileHash returns the uploaded file content fingerprint.
func (d *Document) FileHash() string { return d.fileHash }

// Content returns the extracted raw text content.
func (d *Document) Content() string { return d.content }

// CreatedAt returns the creation timestamp.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// EmbeddingInput returns the text to vectorize for this document: the full
// content when available, otherwise the title, description, and summary.
func (d *Document) EmbeddingInput() string {
	if d.content != "" {
		return d.content
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{d.title, d.description, d.summary} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
