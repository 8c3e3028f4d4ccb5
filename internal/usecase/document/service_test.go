package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	upsertCreated bool
	upsertErr     error
	deleted       []string
}

func (m *mockRepo) Upsert(_ context.Context, _ *domain.Document) (bool, error) {
	return m.upsertCreated, m.upsertErr
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockEmbWriter struct {
	saved   []domain.EmbeddingRecord
	deleted []string
	saveErr error
	events  *[]string
}

func (m *mockEmbWriter) Save(_ context.Context, rec *domain.EmbeddingRecord) error {
	if m.events != nil {
		*m.events = append(*m.events, "save_embedding")
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, *rec)
	return nil
}

func (m *mockEmbWriter) Delete(_ context.Context, documentID string) error {
	m.deleted = append(m.deleted, documentID)
	return nil
}

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 2}}, nil
}

type mockDetector struct {
	detected []string
	events   *[]string
}

func (m *mockDetector) Detect(documentID string) {
	if m.events != nil {
		*m.events = append(*m.events, "detect")
	}
	m.detected = append(m.detected, documentID)
}

// --- Tests ---

func testDoc(t *testing.T) domain.Document {
	t.Helper()
	doc, err := domain.NewDocument(
		"doc-1", "A Title", "", "", nil, nil, nil,
		"", "", 0, "abc123", "document body", time.Now(),
	)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func TestUpsert_StoresEmbeddingAndDetects(t *testing.T) {
	repo := &mockRepo{upsertCreated: true}
	embs := &mockEmbWriter{}
	detector := &mockDetector{}
	svc := New(repo, embs, &mockEmbedder{}, detector, "model-v2")
	doc := testDoc(t)

	created, err := svc.Upsert(context.Background(), &doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if len(embs.saved) != 1 || embs.saved[0].ModelVersion() != "model-v2" {
		t.Errorf("saved embeddings = %+v", embs.saved)
	}
	if len(detector.detected) != 1 || detector.detected[0] != "doc-1" {
		t.Errorf("detected = %v", detector.detected)
	}
}

func TestUpsert_DetectionAfterEmbeddingStored(t *testing.T) {
	var events []string
	embs := &mockEmbWriter{events: &events}
	detector := &mockDetector{events: &events}
	svc := New(&mockRepo{}, embs, &mockEmbedder{}, detector, "model-v2")
	doc := testDoc(t)

	if _, err := svc.Upsert(context.Background(), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The detector reads the embedding store, so the vector must be
	// persisted before detection is scheduled.
	want := []string{"save_embedding", "detect"}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("event order = %v, want %v", events, want)
	}
}

func TestUpsert_EmbedFailureKeepsDocument(t *testing.T) {
	repo := &mockRepo{}
	embs := &mockEmbWriter{}
	detector := &mockDetector{}
	svc := New(repo, embs, &mockEmbedder{err: domain.ErrEmbeddingProviderError}, detector, "model-v2")
	doc := testDoc(t)

	_, err := svc.Upsert(context.Background(), &doc)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(embs.saved) != 0 {
		t.Errorf("embedding saved despite failure: %+v", embs.saved)
	}
	// Detection still runs on hash and text signals.
	if len(detector.detected) != 1 {
		t.Errorf("detected = %v", detector.detected)
	}
}

func TestUpsert_SaveFailureStillDetects(t *testing.T) {
	embs := &mockEmbWriter{saveErr: errors.New("store down")}
	detector := &mockDetector{}
	svc := New(&mockRepo{}, embs, &mockEmbedder{}, detector, "model-v2")
	doc := testDoc(t)

	if _, err := svc.Upsert(context.Background(), &doc); err == nil {
		t.Fatal("expected error")
	}
	if len(detector.detected) != 1 {
		t.Errorf("detected = %v", detector.detected)
	}
}

func TestUpsert_RepoFailureSkipsDetection(t *testing.T) {
	repo := &mockRepo{upsertErr: errors.New("store down")}
	detector := &mockDetector{}
	svc := New(repo, &mockEmbWriter{}, &mockEmbedder{}, detector, "model-v2")
	doc := testDoc(t)

	if _, err := svc.Upsert(context.Background(), &doc); err == nil {
		t.Fatal("expected error")
	}
	if len(detector.detected) != 0 {
		t.Errorf("detection scheduled for unsaved document: %v", detector.detected)
	}
}

func TestDelete_RemovesBoth(t *testing.T) {
	repo := &mockRepo{}
	embs := &mockEmbWriter{}
	svc := New(repo, embs, &mockEmbedder{}, nil, "model-v2")

	if err := svc.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "doc-1" {
		t.Errorf("repo deleted = %v", repo.deleted)
	}
	if len(embs.deleted) != 1 || embs.deleted[0] != "doc-1" {
		t.Errorf("embedding deleted = %v", embs.deleted)
	}
}
