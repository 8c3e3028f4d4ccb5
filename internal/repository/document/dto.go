package document

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
func buildHashFields(doc *domain.Document) map[string]string {
	return map[string]string{
		"title":          doc.Title(),
		"description":    doc.Description(),
		"summary":        doc.Summary(),
		"key_points":     joinList(doc.KeyPoints()),
		"tags":           joinList(doc.Tags()),
		"suggested_tags": joinList(doc.SuggestedTags()),
		"category":       doc.Category(),
		"visibility":     string(doc.Visibility()),
		"rating":         strconv.FormatFloat(doc.Rating(), 'f', -1, 64),
		"file_hash":      doc.FileHash(),
		"content":        doc.Content(),
		"created_at":     doc.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
}

// parseHashFields converts a flat hash map back into a domain Document.
func parseHashFields(id string, m map[string]string) domain.Document {
	rating, _ := strconv.ParseFloat(m["rating"], 64)
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"])

	return domain.ReconstructDocument(
		id,
		m["title"],
		m["description"],
		m["summary"],
		splitList(m["key_points"]),
		splitList(m["tags"]),
		splitList(m["suggested_tags"]),
		m["category"],
		domain.Visibility(m["visibility"]),
		rating,
		m["file_hash"],
		m["content"],
		createdAt,
	)
}

// joinList serializes a string slice as JSON ("" for empty).
func joinList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	data, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(data)
}

// splitList deserializes a JSON string slice (nil for empty).
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil
	}
	return items
}
