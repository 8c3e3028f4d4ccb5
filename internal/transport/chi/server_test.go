package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	domsim "github.com/kailas-cloud/docdex/internal/domain/similarity"
	documentuc "github.com/kailas-cloud/docdex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docdex/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/docdex/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/docdex/internal/usecase/search"
	similarityuc "github.com/kailas-cloud/docdex/internal/usecase/similarity"
	statsuc "github.com/kailas-cloud/docdex/internal/usecase/stats"
)

// --- Mocks ---

type fakeDocs struct {
	mu   sync.Mutex
	docs map[string]domain.Document
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[string]domain.Document)}
}

func (f *fakeDocs) Get(_ context.Context, id string) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeDocs) List(_ context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDocs) Upsert(_ context.Context, doc *domain.Document) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.docs[doc.ID()]
	f.docs[doc.ID()] = *doc
	return !exists, nil
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

type fakeEmbs struct {
	mu   sync.Mutex
	recs map[string]domain.EmbeddingRecord
}

func newFakeEmbs() *fakeEmbs {
	return &fakeEmbs{recs: make(map[string]domain.EmbeddingRecord)}
}

func (f *fakeEmbs) List(_ context.Context) ([]domain.EmbeddingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EmbeddingRecord, 0, len(f.recs))
	for _, r := range f.recs {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeEmbs) Save(_ context.Context, rec *domain.EmbeddingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[rec.DocumentID()] = *rec
	return nil
}

func (f *fakeEmbs) Delete(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recs, documentID)
	return nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 2}, nil
}

type fakeRecords struct {
	mu   sync.Mutex
	recs map[string]domsim.Record
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{recs: make(map[string]domsim.Record)}
}

func (f *fakeRecords) Save(_ context.Context, rec *domsim.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[rec.ID()] = *rec
	return nil
}

func (f *fakeRecords) Get(_ context.Context, id string) (domsim.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok {
		return domsim.Record{}, domain.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeRecords) ListPending(_ context.Context) ([]domsim.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domsim.Record
	for _, r := range f.recs {
		if !r.IsProcessed() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) SweepExpired(_ context.Context, _ time.Time, _ time.Duration) (int, error) {
	return 0, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

// --- Test fixture ---

type fixture struct {
	docs    *fakeDocs
	embs    *fakeEmbs
	records *fakeRecords
	pinger  *fakePinger
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	docs := newFakeDocs()
	embs := newFakeEmbs()
	records := newFakeRecords()
	pinger := &fakePinger{}
	logger := zap.NewNop()

	statsSvc := statsuc.New()
	searchSvc := searchuc.New(docs, embs, fakeEmbedder{}, searchuc.Config{
		Weights:          domain.HybridWeights{Vector: 0.65, Text: 0.35},
		FieldWeights:     domain.FieldWeights{Title: 0.5, Description: 0.2, Summary: 0.1, KeyPoints: 0.1, Tags: 0.05, SuggestedTags: 0.05},
		VectorThreshold:  0.5,
		KeywordThreshold: 0.2,
		HybridThreshold:  0.2,
		CacheTTL:         time.Minute,
		CacheMaxEntries:  10,
	}, statsSvc)

	simSvc, err := similarityuc.New(docs, embs, records,
		domsim.Weights{Hash: 0.4, Text: 0.3, Embedding: 0.3},
		domsim.Thresholds{HashMatch: 0.95, Detection: 0.85, EmbeddingMatch: 0.9, HashInclude: 0.3},
		720*time.Hour, 1, logger)
	if err != nil {
		t.Fatalf("similarity service: %v", err)
	}
	t.Cleanup(simSvc.Close)

	docSvc := documentuc.New(docs, embs, fakeEmbedder{}, simSvc, "model-v1")
	migSvc := migrationuc.New(docs, embs, fakeEmbedder{}, "model-v1", 1, logger)
	healthSvc := healthuc.New(pinger, nil)

	srv := NewServer(docSvc, searchSvc, simSvc, migSvc, statsSvc, healthSvc, nil, logger)
	return &fixture{
		docs:    docs,
		embs:    embs,
		records: records,
		pinger:  pinger,
		handler: srv.Router(),
	}
}

func (f *fixture) seedDocument(t *testing.T, id, title, content string) {
	t.Helper()
	doc, err := domain.NewDocument(
		id, title, "", "", nil, nil, nil, "", "", 0, "hash-"+id, content, time.Now(),
	)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	f.docs.docs[id] = doc
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// --- Tests ---

func TestSearchEndpoint_Keyword(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "go-guide", "Go Tutorial", "learn go step by step")
	f.seedDocument(t, "js-intro", "JavaScript Basics", "intro to javascript")

	rr := f.do(t, "POST", "/v1/search", searchRequest{Query: "go tutorial", Mode: "keyword"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	resp := decode[searchResponse](t, rr)
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Items[0].DocumentID != "go-guide" {
		t.Errorf("top hit = %s", resp.Items[0].DocumentID)
	}
	if resp.Page != 1 || resp.Limit != 10 {
		t.Errorf("pagination defaults: page=%d limit=%d", resp.Page, resp.Limit)
	}
}

func TestSearchEndpoint_InvalidMode_400(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/v1/search", searchRequest{Query: "go", Mode: "fuzzy"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[errorResponse](t, rr)
	if resp.Code != codeValidationFailed {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestSearchEndpoint_InvalidBody_400(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("POST", "/v1/search", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestUpsertDocument_Created(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "PUT", "/v1/documents/doc-1", upsertDocumentRequest{
		Title:    "Go Patterns",
		Content:  "patterns for production go services",
		FileHash: "deadbeef",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/v1/documents/doc-1" {
		t.Errorf("Location = %q", loc)
	}

	resp := decode[upsertDocumentResponse](t, rr)
	if !resp.Created || resp.ID != "doc-1" {
		t.Errorf("resp = %+v", resp)
	}
	if _, ok := f.embs.recs["doc-1"]; !ok {
		t.Error("embedding not stored")
	}
}

func TestUpsertDocument_Update_200(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "doc-1", "Old Title", "old content")

	rr := f.do(t, "PUT", "/v1/documents/doc-1", upsertDocumentRequest{Title: "New Title"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[upsertDocumentResponse](t, rr)
	if resp.Created {
		t.Error("expected created=false on update")
	}
}

func TestUpsertDocument_MissingTitle_400(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "PUT", "/v1/documents/doc-1", upsertDocumentRequest{Content: "body"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestDeleteDocument_204(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "doc-1", "A Title", "content")

	rr := f.do(t, "DELETE", "/v1/documents/doc-1", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if _, ok := f.docs.docs["doc-1"]; ok {
		t.Error("document not deleted")
	}
}

func TestCheckSimilarity_OK(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "a", "Shared Title", "the same exact content here")
	f.seedDocument(t, "b", "Shared Title", "the same exact content here")

	rr := f.do(t, "POST", "/v1/similarity/check", similarityCheckRequest{DocumentID: "a"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	resp := decode[similarityCheckResponse](t, rr)
	if len(resp.Candidates) != 1 {
		t.Fatalf("candidates = %+v", resp.Candidates)
	}
	if resp.Candidates[0].DocumentID != "b" || !resp.Candidates[0].Flagged {
		t.Errorf("candidate = %+v", resp.Candidates[0])
	}
}

func TestCheckSimilarity_MissingID_400(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/v1/similarity/check", similarityCheckRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCheckSimilarity_UnknownDocument_404(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/v1/similarity/check", similarityCheckRequest{DocumentID: "nope"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[errorResponse](t, rr)
	if resp.Code != codeDocumentNotFound {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestPendingSimilarity_OK(t *testing.T) {
	f := newFixture(t)
	rec := domsim.NewRecord("rec-1", "a", "b",
		domsim.Scores{Hash: 1, Text: 0.9, Embedding: 0.8}, 0.92, time.Now())
	f.records.recs["rec-1"] = rec

	rr := f.do(t, "GET", "/v1/similarity/pending", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[pendingSimilarityResponse](t, rr)
	if len(resp.Items) != 1 || resp.Items[0].ID != "rec-1" {
		t.Fatalf("items = %+v", resp.Items)
	}
	if resp.Items[0].Decision != "pending" {
		t.Errorf("decision = %s", resp.Items[0].Decision)
	}
}

func TestResolveSimilarity_Confirmed(t *testing.T) {
	f := newFixture(t)
	rec := domsim.NewRecord("rec-1", "a", "b",
		domsim.Scores{Hash: 1, Text: 0.9, Embedding: 0.8}, 0.92, time.Now())
	f.records.recs["rec-1"] = rec

	rr := f.do(t, "POST", "/v1/similarity/rec-1/decision", decisionRequest{Decision: "confirmed"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[similarityRecord](t, rr)
	if !resp.IsProcessed || resp.Decision != "confirmed" {
		t.Errorf("record = %+v", resp)
	}
}

func TestResolveSimilarity_InvalidDecision_400(t *testing.T) {
	f := newFixture(t)
	rec := domsim.NewRecord("rec-1", "a", "b",
		domsim.Scores{Hash: 1, Text: 0.9, Embedding: 0.8}, 0.92, time.Now())
	f.records.recs["rec-1"] = rec

	rr := f.do(t, "POST", "/v1/similarity/rec-1/decision", decisionRequest{Decision: "maybe"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[errorResponse](t, rr)
	if resp.Code != codeInvalidDecision {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestResolveSimilarity_AlreadyProcessed_409(t *testing.T) {
	f := newFixture(t)
	rec := domsim.NewRecord("rec-1", "a", "b",
		domsim.Scores{Hash: 1, Text: 0.9, Embedding: 0.8}, 0.92, time.Now())
	resolved, err := rec.Resolve(domsim.DecisionDismissed)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	f.records.recs["rec-1"] = resolved

	rr := f.do(t, "POST", "/v1/similarity/rec-1/decision", decisionRequest{Decision: "confirmed"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestResolveSimilarity_NotFound_404(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/v1/similarity/nope/decision", decisionRequest{Decision: "confirmed"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestStatsEndpoint_CountsSearches(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "go-guide", "Go Tutorial", "learn go")

	f.do(t, "POST", "/v1/search", searchRequest{Query: "go tutorial", Mode: "keyword"})

	rr := f.do(t, "GET", "/v1/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[statsResponse](t, rr)
	if resp.TotalSearches != 1 || resp.KeywordSearches != 1 {
		t.Errorf("stats = %+v", resp)
	}
}

func TestClearCaches_OK(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "go-guide", "Go Tutorial", "learn go")
	f.do(t, "POST", "/v1/search", searchRequest{Query: "go tutorial", Mode: "keyword"})

	rr := f.do(t, "POST", "/v1/admin/caches/clear", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[clearCachesResponse](t, rr)
	if resp.SearchEntries != 1 {
		t.Errorf("search_entries = %d", resp.SearchEntries)
	}
}

func TestMigration_StartAndProgress(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/v1/admin/embeddings/migrate", nil)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	start := decode[migrationStartResponse](t, rr)
	if start.Scheduled != 0 {
		t.Errorf("scheduled = %d", start.Scheduled)
	}

	rr = f.do(t, "GET", "/v1/admin/embeddings/migrate/progress", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestMigration_Cancel_204(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "DELETE", "/v1/admin/embeddings/migrate", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHealthz_OK(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "GET", "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[healthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealthz_DatabaseDown_503(t *testing.T) {
	f := newFixture(t)
	f.pinger.err = context.DeadlineExceeded

	rr := f.do(t, "GET", "/healthz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}
