package embedding

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/docdex/internal/domain"
)

func TestSaveGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	vec := []float32{0.1, -0.25, 0.999, 0}
	rec := domain.NewEmbeddingRecord("doc-1", vec, "text-embedding-3-small")

	var stored map[string]string
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != "docdex:emb:doc-1" {
			t.Errorf("unexpected key: %s", key)
		}
		stored = fields
		return nil
	}

	if err := repo.Save(context.Background(), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored["model_version"] != "text-embedding-3-small" || stored["dim"] != "4" {
		t.Errorf("stored fields = %v", stored)
	}

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return stored, nil
	}

	got, err := repo.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.Vector(), vec) {
		t.Errorf("vector = %v, want %v", got.Vector(), vec)
	}
	if got.Dimension() != 4 {
		t.Errorf("dimension = %d", got.Dimension())
	}
	if got.IsStale("text-embedding-3-small") {
		t.Error("record should not be stale under its own model")
	}
	if !got.IsStale("text-embedding-3-large") {
		t.Error("record should be stale under a different model")
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrEmbeddingNotFound) {
		t.Errorf("expected ErrEmbeddingNotFound, got %v", err)
	}
}

func TestGet_CorruptVector(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{"vector": "abc", "model_version": "m"}, nil
	}

	if _, err := repo.Get(context.Background(), "doc-1"); err == nil {
		t.Fatal("expected error for truncated vector payload")
	}
}

func TestList(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "docdex:emb:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		return []string{"docdex:emb:a", "docdex:emb:b"}, nil
	}
	ms.hgetAllMultFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{
			{"vector": encodeVector([]float32{1, 2}), "model_version": "old", "dim": "2"},
			{},
		}, nil
	}

	recs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].DocumentID() != "a" || recs[0].ModelVersion() != "old" {
		t.Errorf("record = %s/%s", recs[0].DocumentID(), recs[0].ModelVersion())
	}
}

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t)

	var deleted string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}

	if err := repo.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "docdex:emb:doc-1" {
		t.Errorf("deleted key = %q", deleted)
	}
}

func TestCodec_Empty(t *testing.T) {
	vec, err := decodeVector(encodeVector(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec != nil {
		t.Errorf("expected nil, got %v", vec)
	}
}
