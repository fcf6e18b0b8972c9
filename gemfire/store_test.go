package gemfire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/vecstore"
)

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// staticEmbedder returns canned vectors per text.
type staticEmbedder struct {
	vectors map[string][]float64
}

func (e *staticEmbedder) Embed(_ context.Context, text string) (vecstore.EmbeddingResult, error) {
	v, ok := e.vectors[text]
	if !ok {
		return vecstore.EmbeddingResult{}, fmt.Errorf("no vector for %q", text)
	}
	return vecstore.EmbeddingResult{Embedding: v, PromptTokens: 1, TotalTokens: 1}, nil
}

// fakeVectorService is an in-memory GemFire VectorDB API double.
type fakeVectorService struct {
	mu             sync.Mutex
	requests       int
	indexes        map[string]map[string]uploadEmbedding
	createRequests []createIndexRequest
	deleteRequests []deleteIndexRequest
	srv            *httptest.Server
}

func newFakeVectorService(t *testing.T) *fakeVectorService {
	t.Helper()
	f := &fakeVectorService{indexes: make(map[string]map[string]uploadEmbedding)}

	r := chi.NewRouter()
	r.Route("/gemfire-vectordb/v1/indexes", func(r chi.Router) {
		r.Post("/", f.handleCreateIndex)
		r.Delete("/{index}", f.handleDeleteIndex)
		r.Post("/{index}/embeddings", f.handleUpload)
		r.Delete("/{index}/embeddings", f.handleDeleteEmbeddings)
		r.Post("/{index}/query", f.handleQuery)
	})

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		f.requests++
		f.mu.Unlock()
		r.ServeHTTP(w, req)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeVectorService) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeVectorService) handleCreateIndex(w http.ResponseWriter, r *http.Request) {
	var req createIndexRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		http.Error(w, "invalid create request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createRequests = append(f.createRequests, req)
	if _, ok := f.indexes[req.Name]; !ok {
		f.indexes[req.Name] = make(map[string]uploadEmbedding)
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeVectorService) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	var req deleteIndexRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid delete request", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.indexes[name]; !ok {
		http.Error(w, "index not found", http.StatusNotFound)
		return
	}
	f.deleteRequests = append(f.deleteRequests, req)
	delete(f.indexes, name)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeVectorService) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")

	// The upload body is the bare embedding array; a wrapping object would
	// fail to decode here.
	var batch []uploadEmbedding
	if err := decodeJSON(r, &batch); err != nil {
		http.Error(w, "invalid upload body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.indexes[name]
	if !ok {
		http.Error(w, "index not found", http.StatusNotFound)
		return
	}
	for _, e := range batch {
		idx[e.Key] = e
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeVectorService) handleDeleteEmbeddings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	var keys []string
	if err := decodeJSON(r, &keys); err != nil {
		http.Error(w, "invalid key list", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.indexes[name]
	if !ok {
		http.Error(w, "index not found", http.StatusNotFound)
		return
	}
	for _, k := range keys {
		delete(idx, k)
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeVectorService) handleQuery(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	var q queryRequest
	if err := decodeJSON(r, &q); err != nil || len(q.Vector) == 0 {
		http.Error(w, "invalid query", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.indexes[name]
	if !ok {
		http.Error(w, "index not found", http.StatusNotFound)
		return
	}

	hits := make([]queryResponse, 0, len(idx))
	for _, e := range idx {
		hits = append(hits, queryResponse{
			Key:      e.Key,
			Score:    cosine(q.Vector, e.Vector),
			Metadata: e.Metadata,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}
	writeJSON(w, hits)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// storeFor builds a Store bound to the given base URL (a test server).
func storeFor(t *testing.T, baseURL, index string, embedder vecstore.Embedder) *Store {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	cfg, err := NewConfigBuilder().
		WithHost(u.Hostname()).
		WithPort(port).
		WithIndexName(index).
		Build()
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	return NewStore(cfg, embedder)
}

func TestAdd_UploadsBatch(t *testing.T) {
	f := newFakeVectorService(t)
	emb := &staticEmbedder{vectors: map[string][]float64{
		"alpha text": {1, 0},
		"beta text":  {0, 1},
	}}
	s := storeFor(t, f.srv.URL, "docs", emb)
	ctx := context.Background()

	if err := s.CreateIndex(ctx, ""); err != nil {
		t.Fatalf("create index: %v", err)
	}
	err := s.Add(ctx, []vecstore.Document{
		{ID: "a", Content: "alpha text", Metadata: vecstore.Metadata{"lang": "en"}},
		{ID: "b", Content: "beta text"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.indexes["docs"]
	if len(idx) != 2 {
		t.Fatalf("stored %d embeddings, want 2", len(idx))
	}
	a := idx["a"]
	if a.Metadata["lang"] != "en" {
		t.Errorf("caller metadata lost: %v", a.Metadata)
	}
	if a.Metadata[DefaultDocumentField] != "alpha text" {
		t.Errorf("content not injected under %q: %v", DefaultDocumentField, a.Metadata)
	}
	if len(a.Vector) != 2 {
		t.Errorf("vector = %v", a.Vector)
	}
}

func TestAdd_NarrowsToFloat32(t *testing.T) {
	f := newFakeVectorService(t)
	orig := []float64{0.1234567890123456, 1.0 / 3.0, math.Pi}
	emb := &staticEmbedder{vectors: map[string][]float64{"text": orig}}
	s := storeFor(t, f.srv.URL, "docs", emb)
	ctx := context.Background()

	if err := s.CreateIndex(ctx, ""); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := s.Add(ctx, []vecstore.Document{{ID: "x", Content: "text"}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	got := f.indexes["docs"]["x"].Vector
	if len(got) != len(orig) {
		t.Fatalf("vector length = %d, want %d", len(got), len(orig))
	}
	for i, v := range orig {
		if got[i] != float32(v) {
			t.Errorf("vector[%d] = %v, want float32(%v) = %v", i, got[i], v, float32(v))
		}
	}
}

func TestAdd_EmbedderErrorPropagates(t *testing.T) {
	f := newFakeVectorService(t)
	s := storeFor(t, f.srv.URL, "docs", &staticEmbedder{})
	ctx := context.Background()

	if err := s.CreateIndex(ctx, ""); err != nil {
		t.Fatalf("create index: %v", err)
	}
	before := f.requestCount()
	err := s.Add(ctx, []vecstore.Document{{ID: "x", Content: "unknown"}})
	if err == nil {
		t.Fatal("expected error from embedder")
	}
	if f.requestCount() != before {
		t.Error("no upload request should be sent when embedding fails")
	}
}

func TestAdd_IndexNotFound(t *testing.T) {
	f := newFakeVectorService(t)
	emb := &staticEmbedder{vectors: map[string][]float64{"text": {1, 0}}}
	s := storeFor(t, f.srv.URL, "missing", emb)

	err := s.Add(context.Background(), []vecstore.Document{{ID: "x", Content: "text"}})
	if !errors.Is(err, vecstore.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("error should carry the index name: %v", err)
	}
}

func TestDelete_LenientContract(t *testing.T) {
	f := newFakeVectorService(t)
	emb := &staticEmbedder{vectors: map[string][]float64{"text": {1, 0}}}
	s := storeFor(t, f.srv.URL, "docs", emb)
	ctx := context.Background()

	if err := s.CreateIndex(ctx, ""); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := s.Add(ctx, []vecstore.Document{{ID: "x", Content: "text"}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if ok := s.Delete(ctx, []string{"x"}); !ok {
		t.Error("delete should report true on success")
	}
	f.mu.Lock()
	remaining := len(f.indexes["docs"])
	f.mu.Unlock()
	if remaining != 0 {
		t.Errorf("%d embeddings remain after delete", remaining)
	}

	// Failure path: unknown index. The error is swallowed, only the
	// boolean reports it.
	bad := storeFor(t, f.srv.URL, "missing", emb)
	if ok := bad.Delete(ctx, []string{"x"}); ok {
		t.Error("delete should report false on failure")
	}
}

func TestSimilaritySearch_FilterRejectedBeforeNetwork(t *testing.T) {
	f := newFakeVectorService(t)
	s := storeFor(t, f.srv.URL, "docs", &staticEmbedder{})

	req := vecstore.NewSearchRequest("anything").WithFilters(vecstore.FilterExpression{
		Must: []vecstore.FilterCondition{{Key: "lang", Match: "en"}},
	})
	_, err := s.SimilaritySearch(context.Background(), req)
	if !errors.Is(err, vecstore.ErrFilterNotSupported) {
		t.Fatalf("expected ErrFilterNotSupported, got %v", err)
	}
	if n := f.requestCount(); n != 0 {
		t.Errorf("%d requests sent, want none", n)
	}
}

func TestSimilaritySearch_ThresholdAndDistance(t *testing.T) {
	f := newFakeVectorService(t)
	emb := &staticEmbedder{vectors: map[string][]float64{
		"doc one":   {1, 0},
		"doc two":   {0, 1},
		"doc three": {math.Sqrt2 / 2, math.Sqrt2 / 2},
		"the query": {1, 0},
	}}
	s := storeFor(t, f.srv.URL, "docs", emb)
	ctx := context.Background()

	if err := s.CreateIndex(ctx, ""); err != nil {
		t.Fatalf("create index: %v", err)
	}
	err := s.Add(ctx, []vecstore.Document{
		{ID: "1", Content: "doc one", Metadata: vecstore.Metadata{"k": "v1"}},
		{ID: "2", Content: "doc two", Metadata: vecstore.Metadata{"k": "v2"}},
		{ID: "3", Content: "doc three", Metadata: vecstore.Metadata{"k": "v3"}},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	docs, err := s.SimilaritySearch(ctx,
		vecstore.NewSearchRequest("the query").WithTopK(3).WithSimilarityThreshold(0.5))
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// doc two scores ~0 and is below threshold; remote order (descending
	// score) is preserved.
	if len(docs) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(docs), docs)
	}
	if docs[0].ID != "1" || docs[1].ID != "3" {
		t.Errorf("result order = [%s %s], want [1 3]", docs[0].ID, docs[1].ID)
	}

	first := docs[0]
	if first.Content != "doc one" {
		t.Errorf("content = %q, want the un-embedded original", first.Content)
	}
	if _, ok := first.Metadata[DefaultDocumentField]; ok {
		t.Error("raw content field must be removed from metadata")
	}
	dist, ok := first.Metadata.Distance()
	if !ok {
		t.Fatal("distance missing from metadata")
	}
	if math.Abs(dist-(1-1.0)) > 1e-6 {
		t.Errorf("distance = %v, want 1 - score", dist)
	}
	if first.Metadata["k"] != "v1" {
		t.Errorf("caller metadata lost: %v", first.Metadata)
	}

	dist3, _ := docs[1].Metadata.Distance()
	if math.Abs(dist3-(1-math.Sqrt2/2)) > 1e-6 {
		t.Errorf("distance = %v, want %v", dist3, 1-math.Sqrt2/2)
	}
}

func TestSimilaritySearch_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"bad request", http.StatusBadRequest, vecstore.ErrBadRequest},
		{"not found", http.StatusNotFound, vecstore.ErrIndexNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()

			emb := &staticEmbedder{vectors: map[string][]float64{"q": {1}}}
			s := storeFor(t, srv.URL, "docs", emb)
			_, err := s.SimilaritySearch(context.Background(), vecstore.NewSearchRequest("q"))
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSimilaritySearch_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	emb := &staticEmbedder{vectors: map[string][]float64{"q": {1}}}
	s := storeFor(t, srv.URL, "docs", emb)
	_, err := s.SimilaritySearch(context.Background(), vecstore.NewSearchRequest("q"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, vecstore.ErrBadRequest) || errors.Is(err, vecstore.ErrIndexNotFound) {
		t.Errorf("5xx must map to the unexpected-status error, got %v", err)
	}
}

func TestCreateIndex_NameParameterWins(t *testing.T) {
	f := newFakeVectorService(t)
	s := storeFor(t, f.srv.URL, "configured", &staticEmbedder{})
	ctx := context.Background()

	if err := s.CreateIndex(ctx, "explicit"); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := s.CreateIndex(ctx, ""); err != nil {
		t.Fatalf("create index: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createRequests) != 2 {
		t.Fatalf("recorded %d create requests", len(f.createRequests))
	}
	if f.createRequests[0].Name != "explicit" {
		t.Errorf("first create used %q, want the name parameter", f.createRequests[0].Name)
	}
	if f.createRequests[1].Name != "configured" {
		t.Errorf("empty name should fall back to the configured index, got %q", f.createRequests[1].Name)
	}
	req := f.createRequests[0]
	if req.BeamWidth != DefaultBeamWidth || req.MaxConnections != DefaultMaxConnections ||
		req.VectorSimilarityFunction != DefaultSimilarityFunction {
		t.Errorf("creation parameters not taken from config: %+v", req)
	}
}

func TestDeleteIndex_RemovesData(t *testing.T) {
	f := newFakeVectorService(t)
	s := storeFor(t, f.srv.URL, "docs", &staticEmbedder{})
	ctx := context.Background()

	if err := s.CreateIndex(ctx, ""); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := s.DeleteIndex(ctx, "docs"); err != nil {
		t.Fatalf("delete index: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.deleteRequests) != 1 || !f.deleteRequests[0].DeleteData {
		t.Errorf("delete request should default delete-data to true: %+v", f.deleteRequests)
	}
	if _, ok := f.indexes["docs"]; ok {
		t.Error("index still present after delete")
	}
}

func TestEndToEnd_AddSearchDelete(t *testing.T) {
	f := newFakeVectorService(t)
	emb := &staticEmbedder{vectors: map[string][]float64{
		"go concurrency patterns": {1, 0, 0},
		"french cooking basics":   {0, 1, 0},
		"alpine ski touring":      {0, 0, 1},
		"goroutines and channels": {0.95, 0.05, 0},
	}}
	s := storeFor(t, f.srv.URL, "library", emb)
	ctx := context.Background()

	if err := s.CreateIndex(ctx, ""); err != nil {
		t.Fatalf("create index: %v", err)
	}
	err := s.Add(ctx, []vecstore.Document{
		{ID: "go", Content: "go concurrency patterns", Metadata: vecstore.Metadata{"topic": "programming"}},
		{ID: "fr", Content: "french cooking basics", Metadata: vecstore.Metadata{"topic": "food"}},
		{ID: "ski", Content: "alpine ski touring", Metadata: vecstore.Metadata{"topic": "sport"}},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	docs, err := s.SimilaritySearch(ctx,
		vecstore.NewSearchRequest("goroutines and channels").WithTopK(1).WithSimilarityThreshold(0.5))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d results, want 1", len(docs))
	}
	hit := docs[0]
	if hit.ID != "go" {
		t.Errorf("hit id = %q, want go", hit.ID)
	}
	if hit.Content != "go concurrency patterns" {
		t.Errorf("hit content = %q", hit.Content)
	}
	if hit.Metadata["topic"] != "programming" {
		t.Errorf("original metadata missing: %v", hit.Metadata)
	}
	if _, ok := hit.Metadata.Distance(); !ok {
		t.Error("distance missing from metadata")
	}

	if ok := s.Delete(ctx, []string{"go", "fr", "ski"}); !ok {
		t.Fatal("delete failed")
	}
	docs, err = s.SimilaritySearch(ctx,
		vecstore.NewSearchRequest("goroutines and channels").WithTopK(3).WithSimilarityThreshold(0.5))
	if err != nil {
		t.Fatalf("search after delete: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d results after delete, want 0", len(docs))
	}
}
