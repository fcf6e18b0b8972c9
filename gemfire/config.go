// Package gemfire implements the vecstore contract against a GemFire
// vector-index service reached over HTTP.
//
// The remote surface is the GemFire VectorDB REST API rooted at
// /gemfire-vectordb/v1/indexes: index creation and deletion, embedding
// upload/removal, and KNN queries. Ranking and indexing happen entirely on
// the server; this package is a translation layer between the portable store
// contract and the wire records the service expects.
package gemfire

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Builder defaults.
const (
	DefaultHost               = "localhost"
	DefaultPort               = 8080
	DefaultBeamWidth          = 100
	DefaultMaxConnections     = 16
	DefaultBuckets            = 0
	DefaultSimilarityFunction = "COSINE"
	DefaultDocumentField      = "document"
)

// Beam width and max connections are bounded by the service.
const (
	maxBeamWidth      = 3200
	maxMaxConnections = 512
)

const basePath = "/gemfire-vectordb/v1/indexes"

// Config is the immutable bundle of connection and index-creation parameters
// a Store is bound to. Build one with NewConfigBuilder.
type Config struct {
	// IndexName is the remote index all document operations target.
	IndexName string

	// Index-creation parameters, sent verbatim on CreateIndex.
	BeamWidth                int
	MaxConnections           int
	Buckets                  int
	VectorSimilarityFunction string
	Fields                   []string

	// DocumentField is the metadata key the document content travels
	// under on the wire. Reserved: see vecstore.Metadata.
	DocumentField string

	// BaseURL is the constructed service root, e.g.
	// http://localhost:8080/gemfire-vectordb/v1/indexes.
	BaseURL string

	client *http.Client
	logger *zap.Logger
}

// ConfigBuilder assembles a Config. Validation is fail-fast: the first
// invalid argument latches an error at the offending call, observable
// immediately through Err(); later calls and Build() report that same error.
type ConfigBuilder struct {
	host              string
	port              int
	sslEnabled        bool
	connectionTimeout time.Duration
	requestTimeout    time.Duration

	indexName                string
	beamWidth                int
	maxConnections           int
	buckets                  int
	vectorSimilarityFunction string
	fields                   []string
	documentField            string

	logger *zap.Logger

	err error
}

// NewConfigBuilder creates a builder pre-filled with defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		host:                     DefaultHost,
		port:                     DefaultPort,
		beamWidth:                DefaultBeamWidth,
		maxConnections:           DefaultMaxConnections,
		buckets:                  DefaultBuckets,
		vectorSimilarityFunction: DefaultSimilarityFunction,
		fields:                   []string{"vector"},
		documentField:            DefaultDocumentField,
	}
}

func (b *ConfigBuilder) fail(format string, args ...any) *ConfigBuilder {
	if b.err == nil {
		b.err = fmt.Errorf("gemfire: "+format, args...)
	}
	return b
}

// WithHost sets the service host. Must be non-empty.
func (b *ConfigBuilder) WithHost(host string) *ConfigBuilder {
	if host == "" {
		return b.fail("host must have a value")
	}
	b.host = host
	return b
}

// WithPort sets the service port. Must be positive.
func (b *ConfigBuilder) WithPort(port int) *ConfigBuilder {
	if port <= 0 {
		return b.fail("port must be positive, got %d", port)
	}
	b.port = port
	return b
}

// WithSSLEnabled switches the base URL to https.
func (b *ConfigBuilder) WithSSLEnabled(enabled bool) *ConfigBuilder {
	b.sslEnabled = enabled
	return b
}

// WithConnectionTimeout bounds connection establishment. Zero keeps the
// client default.
func (b *ConfigBuilder) WithConnectionTimeout(d time.Duration) *ConfigBuilder {
	if d < 0 {
		return b.fail("connection timeout must be >= 0, got %v", d)
	}
	b.connectionTimeout = d
	return b
}

// WithRequestTimeout bounds a whole request. Zero keeps the client default
// (no timeout).
func (b *ConfigBuilder) WithRequestTimeout(d time.Duration) *ConfigBuilder {
	if d < 0 {
		return b.fail("request timeout must be >= 0, got %v", d)
	}
	b.requestTimeout = d
	return b
}

// WithIndexName sets the index all document operations target. Required.
func (b *ConfigBuilder) WithIndexName(name string) *ConfigBuilder {
	if name == "" {
		return b.fail("index name must have a value")
	}
	b.indexName = name
	return b
}

// WithBeamWidth sets the search-breadth parameter for index creation.
// Bounded to (0, 3200) by the service.
func (b *ConfigBuilder) WithBeamWidth(w int) *ConfigBuilder {
	if w <= 0 {
		return b.fail("beam width must be positive, got %d", w)
	}
	if w >= maxBeamWidth {
		return b.fail("beam width must be less than %d, got %d", maxBeamWidth, w)
	}
	b.beamWidth = w
	return b
}

// WithMaxConnections sets the per-node connection parameter for index
// creation. Bounded to (0, 512].
func (b *ConfigBuilder) WithMaxConnections(n int) *ConfigBuilder {
	if n <= 0 {
		return b.fail("max connections must be positive, got %d", n)
	}
	if n > maxMaxConnections {
		return b.fail("max connections must not exceed %d, got %d", maxMaxConnections, n)
	}
	b.maxConnections = n
	return b
}

// WithBuckets sets the bucket count for index creation. Must be >= 0.
func (b *ConfigBuilder) WithBuckets(n int) *ConfigBuilder {
	if n < 0 {
		return b.fail("buckets must not be negative, got %d", n)
	}
	b.buckets = n
	return b
}

// WithVectorSimilarityFunction sets the similarity function name, e.g.
// COSINE. Must be non-empty.
func (b *ConfigBuilder) WithVectorSimilarityFunction(fn string) *ConfigBuilder {
	if fn == "" {
		return b.fail("vector similarity function must have a value")
	}
	b.vectorSimilarityFunction = fn
	return b
}

// WithFields sets the indexed field list for index creation.
func (b *ConfigBuilder) WithFields(fields ...string) *ConfigBuilder {
	b.fields = fields
	return b
}

// WithDocumentField sets the wire metadata key carrying document content.
// Must be non-empty.
func (b *ConfigBuilder) WithDocumentField(field string) *ConfigBuilder {
	if field == "" {
		return b.fail("document field must have a value")
	}
	b.documentField = field
	return b
}

// WithLogger sets the logger used on the request path. Defaults to a nop
// logger.
func (b *ConfigBuilder) WithLogger(l *zap.Logger) *ConfigBuilder {
	b.logger = l
	return b
}

// Err reports the first validation failure, if any. It is set at the
// offending With* call, not deferred to Build.
func (b *ConfigBuilder) Err() error {
	return b.err
}

// Build assembles the immutable Config, constructing the base URL and the
// owned HTTP client with the configured timeouts.
func (b *ConfigBuilder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.indexName == "" {
		return nil, errors.New("gemfire: index name is required")
	}

	scheme := "http"
	if b.sslEnabled {
		scheme = "https"
	}

	transport := http.DefaultTransport
	if b.connectionTimeout > 0 {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: b.connectionTimeout,
			}).DialContext,
		}
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Config{
		IndexName:                b.indexName,
		BeamWidth:                b.beamWidth,
		MaxConnections:           b.maxConnections,
		Buckets:                  b.buckets,
		VectorSimilarityFunction: b.vectorSimilarityFunction,
		Fields:                   b.fields,
		DocumentField:            b.documentField,
		BaseURL:                  fmt.Sprintf("%s://%s:%d%s", scheme, b.host, b.port, basePath),
		client: &http.Client{
			Timeout:   b.requestTimeout,
			Transport: transport,
		},
		logger: logger,
	}, nil
}
