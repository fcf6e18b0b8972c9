package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecstore"
)

// scoreAlias is the FT.SEARCH alias the KNN distance is returned under.
const scoreAlias = "vector_score"

// Compile-time check: Store implements vecstore.Store.
var _ vecstore.Store = (*Store)(nil)

// Store implements the vecstore contract on an injected rueidis client.
// The client's lifecycle belongs to the caller; Store never closes it.
type Store struct {
	client   rueidis.Client
	embedder vecstore.Embedder
	cfg      Config
	logger   *zap.Logger
}

// NewStore binds a Store to the client and index layout. The client must
// be created with AlwaysRESP2: search result parsing expects the RESP2
// array format.
func NewStore(client rueidis.Client, embedder vecstore.Embedder, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis: client is required")
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Store{
		client:   client,
		embedder: embedder,
		cfg:      cfg,
		logger:   cfg.Logger,
	}, nil
}

// Add implements vecstore.Store. Each document becomes one JSON value at
// {prefix}{id}: the content field, the float32 vector, and the metadata
// keys at the top level. The whole batch goes out in one round trip.
func (s *Store) Add(ctx context.Context, docs []vecstore.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(docs))
	for _, doc := range docs {
		vec := doc.Embedding
		if len(vec) == 0 {
			res, err := s.embedder.Embed(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("redis: embed document %q: %w", doc.ID, err)
			}
			vec = res.Embedding
		}

		body := make(map[string]any, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			body[k] = v
		}
		body[s.cfg.ContentFieldName] = doc.Content
		body[s.cfg.EmbeddingFieldName] = narrow(vec)

		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("redis: encode document %q: %w", doc.ID, err)
		}

		cmd := s.b().Arbitrary("JSON.SET").
			Keys(s.cfg.Prefix + doc.ID).
			Args("$", string(data)).
			Build()
		cmds = append(cmds, cmd)
	}

	s.logger.Debug("storing documents",
		zap.String("index", s.cfg.IndexName),
		zap.Int("count", len(cmds)),
	)
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("redis: store document: %w", err)
		}
	}
	return nil
}

// Delete implements vecstore.Store. The lenient contract: any failure is
// logged and reported as false, never propagated.
func (s *Store) Delete(ctx context.Context, ids []string) bool {
	if len(ids) == 0 {
		return true
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.cfg.Prefix + id
	}

	cmd := s.b().Del().Key(keys...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		s.logger.Warn("removing documents failed",
			zap.String("index", s.cfg.IndexName),
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// SimilaritySearch implements vecstore.Store via an FT.SEARCH KNN query.
// Filters become a pre-filter expression; results come back sorted by
// distance, are threshold-filtered on similarity and carry the distance
// under the reserved metadata key.
func (s *Store) SimilaritySearch(ctx context.Context, req *vecstore.SearchRequest) ([]vecstore.Document, error) {
	if req.TopK <= 0 {
		return nil, fmt.Errorf("redis: top-k must be positive, got %d", req.TopK)
	}

	emb, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("redis: embed query: %w", err)
	}

	knn := fmt.Sprintf("[KNN %d @%s $BLOB AS %s]", req.TopK, s.cfg.EmbeddingFieldName, scoreAlias)
	queryStr := "*=>" + knn
	if filter := buildFilter(req.Filters); filter != "" {
		queryStr = "(" + filter + ")=>" + knn
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(
		s.cfg.IndexName, queryStr,
		"RETURN", "2", "$", scoreAlias,
		"SORTBY", scoreAlias,
		"PARAMS", "2", "BLOB", vectorToBytes(narrow(emb.Embedding)),
		"LIMIT", "0", strconv.Itoa(req.TopK),
		"DIALECT", "2",
	).Build()

	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, fmt.Errorf("redis: index %q not found: %w", s.cfg.IndexName, vecstore.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("redis: search: %w", err)
	}

	return s.parseSearchResult(raw, req.SimilarityThreshold)
}

// parseSearchResult walks the RESP2 reply. 2-stride past the leading
// total: [total, key1, fields1, key2, fields2, ...].
func (s *Store) parseSearchResult(raw []rueidis.RedisMessage, threshold float64) ([]vecstore.Document, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("redis: parse result total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	docs := make([]vecstore.Document, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldMsgs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldMsgs)

		dist, err := strconv.ParseFloat(fields[scoreAlias], 64)
		if err != nil {
			continue
		}
		if 1-dist < threshold {
			continue
		}

		md := vecstore.Metadata{}
		var content string
		if body, ok := fields["$"]; ok {
			var m map[string]any
			if err := json.Unmarshal([]byte(body), &m); err != nil {
				return nil, fmt.Errorf("redis: decode document %q: %w", key, err)
			}
			if c, ok := m[s.cfg.ContentFieldName].(string); ok {
				content = c
			}
			delete(m, s.cfg.ContentFieldName)
			delete(m, s.cfg.EmbeddingFieldName)
			md = m
		}
		md[vecstore.DistanceKey] = dist

		docs = append(docs, vecstore.Document{
			ID:       strings.TrimPrefix(key, s.cfg.Prefix),
			Content:  content,
			Metadata: md,
		})
	}
	return docs, nil
}

// CreateIndex implements vecstore.Store: FT.CREATE ON JSON over the
// configured prefix with the content, vector and metadata fields. With
// InitializeSchema set, an already existing index is not an error.
func (s *Store) CreateIndex(ctx context.Context, name string) error {
	if name == "" {
		name = s.cfg.IndexName
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(s.buildCreateArgs(name)...).Build()
	s.logger.Debug("creating index", zap.String("index", name))
	if err := s.do(ctx, cmd).Error(); err != nil {
		if s.cfg.InitializeSchema && isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("redis: create index %q: %w", name, err)
	}
	return nil
}

// DeleteIndex implements vecstore.Store: FT.DROPINDEX DD, removing the
// indexed documents with the index.
func (s *Store) DeleteIndex(ctx context.Context, name string) error {
	if name == "" {
		name = s.cfg.IndexName
	}

	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name, "DD").Build()
	s.logger.Debug("deleting index", zap.String("index", name))
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return fmt.Errorf("redis: index %q not found: %w", name, vecstore.ErrIndexNotFound)
		}
		return fmt.Errorf("redis: delete index %q: %w", name, err)
	}
	return nil
}

func (s *Store) buildCreateArgs(name string) []string {
	args := []string{
		name,
		"ON", "JSON",
		"PREFIX", "1", s.cfg.Prefix,
		"SCHEMA",
		"$." + s.cfg.ContentFieldName, "AS", s.cfg.ContentFieldName, "TEXT",
		"$." + s.cfg.EmbeddingFieldName, "AS", s.cfg.EmbeddingFieldName,
		"VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.cfg.Dimensions),
		"DISTANCE_METRIC", s.cfg.DistanceMetric,
	}
	for _, f := range s.cfg.MetadataFields {
		args = append(args, "$."+f.Name, "AS", f.Name, string(f.Type))
	}
	return args
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a Redis server error containing
// substr, case-insensitively.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// narrow converts an embedding to the single-precision values the index
// stores.
func narrow(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// vectorToBytes packs a vector into the little-endian FLOAT32 blob the
// KNN PARAMS expect.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
