package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docdex/internal/db"
	"github.com/kailas-cloud/docdex/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "emb:"

// store is the consumer interface for embeddings (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists one embedding record per document as a Redis hash.
type Repo struct {
	store store
}

// New creates an embedding repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save stores a document embedding, replacing any previous vector.
func (r *Repo) Save(ctx context.Context, rec *domain.EmbeddingRecord) error {
	key := embKey(rec.DocumentID())
	fields := map[string]string{
		"vector":        encodeVector(rec.Vector()),
		"model_version": rec.ModelVersion(),
		"dim":           strconv.Itoa(rec.Dimension()),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns the embedding record for a document.
func (r *Repo) Get(ctx context.Context, documentID string) (domain.EmbeddingRecord, error) {
	key := embKey(documentID)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.EmbeddingRecord{}, domain.ErrEmbeddingNotFound
		}
		return domain.EmbeddingRecord{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domain.EmbeddingRecord{}, domain.ErrEmbeddingNotFound
	}
	return parseRecord(documentID, m)
}

// List returns all stored embedding records.
func (r *Repo) List(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan embeddings: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings: %w", err)
	}

	recs := make([]domain.EmbeddingRecord, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		rec, err := parseRecord(idFromKey(keys[i]), m)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Delete removes the embedding for a document.
func (r *Repo) Delete(ctx context.Context, documentID string) error {
	if err := r.store.Del(ctx, embKey(documentID)); err != nil {
		return fmt.Errorf("del %s: %w", embKey(documentID), err)
	}
	return nil
}

func parseRecord(documentID string, m map[string]string) (domain.EmbeddingRecord, error) {
	vec, err := decodeVector(m["vector"])
	if err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("decode vector for %s: %w", documentID, err)
	}
	return domain.NewEmbeddingRecord(documentID, vec, m["model_version"]), nil
}

func embKey(documentID string) string {
	return keyPrefix + documentID
}

func idFromKey(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}
