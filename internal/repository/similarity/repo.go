package similarity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/docdex/internal/db"
	"github.com/kailas-cloud/docdex/internal/domain"
	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
)

const keyPrefix = domain.KeyPrefix + "sim:"

// store is the consumer interface for similarity records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists similarity records as one Redis hash per flagged pair.
type Repo struct {
	store store
}

// New creates a similarity repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save writes a record, replacing any previous state under the same id.
func (r *Repo) Save(ctx context.Context, rec *domsim.Record) error {
	key := recordKey(rec.ID())
	if err := r.store.HSet(ctx, key, buildHashFields(rec)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a record by id.
func (r *Repo) Get(ctx context.Context, id string) (domsim.Record, error) {
	key := recordKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsim.Record{}, domain.ErrRecordNotFound
		}
		return domsim.Record{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domsim.Record{}, domain.ErrRecordNotFound
	}
	return parseHashFields(id, m), nil
}

// List returns every stored record.
func (r *Repo) List(ctx context.Context) ([]domsim.Record, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan similarity records: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch similarity records: %w", err)
	}

	recs := make([]domsim.Record, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		recs = append(recs, parseHashFields(idFromKey(keys[i]), m))
	}
	return recs, nil
}

// ListPending returns unprocessed records, newest first.
func (r *Repo) ListPending(ctx context.Context) ([]domsim.Record, error) {
	recs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	pending := recs[:0]
	for _, rec := range recs {
		if !rec.IsProcessed() {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt().After(pending[j].CreatedAt())
	})
	if len(pending) == 0 {
		return nil, nil
	}
	return pending, nil
}

// Delete removes a record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, recordKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", recordKey(id), err)
	}
	return nil
}

// SweepExpired deletes unprocessed records older than the retention window
// and returns how many were removed.
func (r *Repo) SweepExpired(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	recs, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, rec := range recs {
		if !rec.IsExpired(now, retention) {
			continue
		}
		if err := r.Delete(ctx, rec.ID()); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}

func recordKey(id string) string {
	return keyPrefix + id
}

func idFromKey(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}

func buildHashFields(rec *domsim.Record) map[string]string {
	s := rec.Scores()
	return map[string]string{
		"doc_a":           rec.DocumentA(),
		"doc_b":           rec.DocumentB(),
		"hash_score":      formatScore(s.Hash),
		"text_score":      formatScore(s.Text),
		"embedding_score": formatScore(s.Embedding),
		"combined_score":  formatScore(rec.CombinedScore()),
		"processed":       strconv.FormatBool(rec.IsProcessed()),
		"decision":        string(rec.Decision()),
		"created_at":      rec.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
}

func parseHashFields(id string, m map[string]string) domsim.Record {
	scores := domsim.Scores{
		Hash:      parseScore(m["hash_score"]),
		Text:      parseScore(m["text_score"]),
		Embedding: parseScore(m["embedding_score"]),
	}
	processed, _ := strconv.ParseBool(m["processed"])
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"])

	return domsim.Reconstruct(
		id, m["doc_a"], m["doc_b"], scores, parseScore(m["combined_score"]),
		processed, domsim.Decision(m["decision"]), createdAt,
	)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseScore(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
