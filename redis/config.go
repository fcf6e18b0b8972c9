// Package redis implements the vecstore contract on a Redis or Valkey
// instance with the search and JSON modules (Redis 8+), via rueidis.
//
// Documents are stored as JSON under {prefix}{id} and indexed by an FT
// index over the content, embedding and declared metadata fields. Unlike
// the gemfire backend, metadata filters are supported and translated to
// FT.SEARCH pre-filter expressions.
package redis

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Defaults applied by NewStore.
const (
	DefaultPrefix             = "doc:"
	DefaultContentFieldName   = "content"
	DefaultEmbeddingFieldName = "embedding"
	DefaultDistanceMetric     = "COSINE"
)

// FieldType declares how a metadata field is indexed.
type FieldType string

const (
	FieldTypeTag     FieldType = "TAG"
	FieldTypeNumeric FieldType = "NUMERIC"
	FieldTypeText    FieldType = "TEXT"
)

// MetadataField declares one metadata key to index alongside the vector.
// Undeclared metadata keys are still stored but cannot be filtered on.
type MetadataField struct {
	Name string
	Type FieldType
}

// Config carries the index layout a Store is bound to. Zero-value string
// fields fall back to the package defaults; Dimensions is required.
type Config struct {
	// IndexName is the FT index all operations target. Required.
	IndexName string

	// Prefix is the key prefix documents are stored and indexed under.
	Prefix string

	ContentFieldName   string
	EmbeddingFieldName string

	// Dimensions of the embedding vectors. Required, must match the
	// embedder output.
	Dimensions int

	// DistanceMetric is the FT vector metric, e.g. COSINE or L2.
	DistanceMetric string

	MetadataFields []MetadataField

	// InitializeSchema makes CreateIndex a no-op when the index already
	// exists, so wiring code can call it unconditionally at startup.
	InitializeSchema bool

	// Logger used on the request path. Defaults to a nop logger.
	Logger *zap.Logger
}

func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.ContentFieldName == "" {
		c.ContentFieldName = DefaultContentFieldName
	}
	if c.EmbeddingFieldName == "" {
		c.EmbeddingFieldName = DefaultEmbeddingFieldName
	}
	if c.DistanceMetric == "" {
		c.DistanceMetric = DefaultDistanceMetric
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

func (c *Config) validate() error {
	if c.IndexName == "" {
		return errors.New("redis: index name is required")
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("redis: dimensions must be positive, got %d", c.Dimensions)
	}
	for _, f := range c.MetadataFields {
		if f.Name == "" {
			return errors.New("redis: metadata field name is required")
		}
		switch f.Type {
		case FieldTypeTag, FieldTypeNumeric, FieldTypeText:
		default:
			return fmt.Errorf("redis: unknown metadata field type %q", f.Type)
		}
	}
	return nil
}
