package gemfire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecstore"
)

const embeddingsPath = "/embeddings"
const queryPath = "/query"

// Compile-time check: Store implements vecstore.Store.
var _ vecstore.Store = (*Store)(nil)

// Store implements the vecstore contract against a GemFire vector-index
// service. The configuration and HTTP client are fixed at construction;
// concurrent calls are independent and safe.
type Store struct {
	cfg      *Config
	client   *http.Client
	embedder vecstore.Embedder
	logger   *zap.Logger
}

// NewStore binds a Store to cfg and the given embedding capability.
func NewStore(cfg *Config, embedder vecstore.Embedder) *Store {
	return &Store{
		cfg:      cfg,
		client:   cfg.client,
		embedder: embedder,
		logger:   cfg.logger,
	}
}

// Add implements vecstore.Store. Each document missing an embedding is
// vectorized through the embedder; the whole batch is uploaded as one POST.
func (s *Store) Add(ctx context.Context, docs []vecstore.Document) error {
	if len(docs) == 0 {
		return nil
	}

	payload := make([]uploadEmbedding, 0, len(docs))
	for _, doc := range docs {
		vec := doc.Embedding
		if len(vec) == 0 {
			res, err := s.embedder.Embed(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("gemfire: embed document %q: %w", doc.ID, err)
			}
			vec = res.Embedding
		}
		payload = append(payload, uploadEmbedding{
			Key:      doc.ID,
			Vector:   narrow(vec),
			Metadata: doc.Metadata.WithContent(s.cfg.DocumentField, doc.Content),
		})
	}

	s.logger.Debug("uploading embeddings",
		zap.String("index", s.cfg.IndexName),
		zap.Int("count", len(payload)),
	)
	return s.do(ctx, http.MethodPost, "/"+s.cfg.IndexName+embeddingsPath, payload, nil)
}

// Delete implements vecstore.Store. The lenient contract: any failure is
// logged and reported as false, never propagated.
func (s *Store) Delete(ctx context.Context, ids []string) bool {
	err := s.do(ctx, http.MethodDelete, "/"+s.cfg.IndexName+embeddingsPath, ids, nil)
	if err != nil {
		s.logger.Warn("removing embeddings failed",
			zap.String("index", s.cfg.IndexName),
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// SimilaritySearch implements vecstore.Store. GemFire has no metadata filter
// support, so a request carrying filters fails before any network call.
func (s *Store) SimilaritySearch(ctx context.Context, req *vecstore.SearchRequest) ([]vecstore.Document, error) {
	if req.HasFilters() {
		return nil, fmt.Errorf("gemfire: %w", vecstore.ErrFilterNotSupported)
	}
	if req.TopK <= 0 {
		return nil, fmt.Errorf("gemfire: top-k must be positive, got %d", req.TopK)
	}

	emb, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("gemfire: embed query: %w", err)
	}

	// The service has no independent bucket fan-out tuning; k-per-bucket
	// follows top-k.
	q := queryRequest{
		Vector:          narrow(emb.Embedding),
		TopK:            req.TopK,
		KPerBucket:      req.TopK,
		IncludeMetadata: true,
	}

	var hits []queryResponse
	if err := s.do(ctx, http.MethodPost, "/"+s.cfg.IndexName+queryPath, q, &hits); err != nil {
		return nil, err
	}

	docs := make([]vecstore.Document, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < req.SimilarityThreshold {
			continue
		}
		md := hit.Metadata
		if md == nil {
			md = vecstore.Metadata{}
		}
		md[vecstore.DistanceKey] = 1 - hit.Score
		content := md.ExtractContent(s.cfg.DocumentField)
		docs = append(docs, vecstore.Document{
			ID:       hit.Key,
			Content:  content,
			Metadata: md,
		})
	}
	return docs, nil
}

// CreateIndex implements vecstore.Store. The name parameter wins; an empty
// name falls back to the configured index. All other creation parameters
// come from the bound configuration.
func (s *Store) CreateIndex(ctx context.Context, name string) error {
	if name == "" {
		name = s.cfg.IndexName
	}
	body := createIndexRequest{
		Name:                     name,
		BeamWidth:                s.cfg.BeamWidth,
		MaxConnections:           s.cfg.MaxConnections,
		VectorSimilarityFunction: s.cfg.VectorSimilarityFunction,
		Fields:                   s.cfg.Fields,
		Buckets:                  s.cfg.Buckets,
	}
	s.logger.Debug("creating index", zap.String("index", name))
	return s.do(ctx, http.MethodPost, "", body, nil)
}

// DeleteIndex implements vecstore.Store. Underlying data is always removed
// with the index.
func (s *Store) DeleteIndex(ctx context.Context, name string) error {
	if name == "" {
		name = s.cfg.IndexName
	}
	s.logger.Debug("deleting index", zap.String("index", name))
	return s.do(ctx, http.MethodDelete, "/"+name, deleteIndexRequest{DeleteData: true}, nil)
}

// do issues one JSON request and decodes the response into out when non-nil.
// Non-2xx statuses and transport failures are mapped by statusError / wrapped
// as unexpected errors.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("gemfire: encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("gemfire: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemfire: %s %s: unexpected error: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("gemfire: decode response: %w", err)
		}
	}
	return nil
}

// statusError maps a non-2xx response to the error taxonomy: not-found,
// bad-request, or unexpected status. It always returns a non-nil error.
func (s *Store) statusError(resp *http.Response) error {
	msg := readErrorBody(resp.Body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("gemfire: index %q not found: %s: %w", s.cfg.IndexName, msg, vecstore.ErrIndexNotFound)
	case http.StatusBadRequest:
		return fmt.Errorf("gemfire: bad request: %s: %w", msg, vecstore.ErrBadRequest)
	default:
		return fmt.Errorf("gemfire: unexpected HTTP status %d: %s", resp.StatusCode, msg)
	}
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "(empty body)"
	}
	return strings.TrimSpace(string(data))
}
