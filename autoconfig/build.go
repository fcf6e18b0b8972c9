package autoconfig

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecstore"
	"github.com/kailas-cloud/vecstore/gemfire"
	"github.com/kailas-cloud/vecstore/internal/logger"
	"github.com/kailas-cloud/vecstore/openai"
	"github.com/kailas-cloud/vecstore/redis"
)

// Build wires a store from the configuration: logger, embedding provider,
// the backend selected by store.driver, and instrumentation. The returned
// close function releases backend connections and flushes the logger.
func Build(ctx context.Context, cfg Config) (vecstore.Store, func(), error) {
	log, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}

	embedder := openai.NewEmbedder(&openai.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		User:       cfg.Embedding.User,
		Logger:     log,
	})

	var (
		store   vecstore.Store
		cleanup = func() { _ = log.Sync() }
	)
	switch cfg.Store.Driver {
	case DriverGemFire:
		store, err = buildGemFire(cfg.GemFire, embedder, log)
		if err != nil {
			return nil, nil, err
		}

	case DriverRedis:
		var client rueidis.Client
		store, client, err = buildRedis(ctx, cfg.Redis, embedder, log)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			client.Close()
			_ = log.Sync()
		}

	default:
		return nil, nil, fmt.Errorf("autoconfig: unknown driver %q", cfg.Store.Driver)
	}

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
	}
	instrumented, err := vecstore.Instrument(store, slog.Default(), reg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return instrumented, cleanup, nil
}

func buildGemFire(cfg GemFireConfig, embedder vecstore.Embedder, log *zap.Logger) (*gemfire.Store, error) {
	b := gemfire.NewConfigBuilder().
		WithIndexName(cfg.IndexName).
		WithSSLEnabled(cfg.SSL).
		WithLogger(log)

	if cfg.Host != "" {
		b = b.WithHost(cfg.Host)
	}
	if cfg.Port != 0 {
		b = b.WithPort(cfg.Port)
	}
	if cfg.BeamWidth != 0 {
		b = b.WithBeamWidth(cfg.BeamWidth)
	}
	if cfg.MaxConnections != 0 {
		b = b.WithMaxConnections(cfg.MaxConnections)
	}
	if cfg.Buckets != 0 {
		b = b.WithBuckets(cfg.Buckets)
	}
	if cfg.SimilarityFunction != "" {
		b = b.WithVectorSimilarityFunction(cfg.SimilarityFunction)
	}
	if len(cfg.Fields) > 0 {
		b = b.WithFields(cfg.Fields...)
	}
	if cfg.DocumentField != "" {
		b = b.WithDocumentField(cfg.DocumentField)
	}
	if cfg.ConnectionTimeoutSec > 0 {
		b = b.WithConnectionTimeout(time.Duration(cfg.ConnectionTimeoutSec) * time.Second)
	}
	if cfg.RequestTimeoutSec > 0 {
		b = b.WithRequestTimeout(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	}

	built, err := b.Build()
	if err != nil {
		return nil, err
	}
	return gemfire.NewStore(built, embedder), nil
}

func buildRedis(ctx context.Context, cfg RedisConfig, embedder vecstore.Embedder, log *zap.Logger) (*redis.Store, rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, nil, fmt.Errorf("autoconfig: create redis client: %w", err)
	}

	fields := make([]redis.MetadataField, 0, len(cfg.MetadataFields))
	for _, f := range cfg.MetadataFields {
		fields = append(fields, redis.MetadataField{
			Name: f.Name,
			Type: redis.FieldType(f.Type),
		})
	}

	store, err := redis.NewStore(client, embedder, redis.Config{
		IndexName:          cfg.IndexName,
		Prefix:             cfg.Prefix,
		ContentFieldName:   cfg.ContentField,
		EmbeddingFieldName: cfg.EmbeddingField,
		Dimensions:         cfg.Dimensions,
		DistanceMetric:     cfg.DistanceMetric,
		MetadataFields:     fields,
		InitializeSchema:   cfg.InitializeSchema,
		Logger:             log,
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	if cfg.InitializeSchema {
		if err := store.CreateIndex(ctx, ""); err != nil {
			client.Close()
			return nil, nil, err
		}
	}
	return store, client, nil
}
