package vecstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// storeMetrics holds prometheus metrics registered for store operations.
type storeMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newStoreMetrics(reg prometheus.Registerer) (*storeMetrics, error) {
	m := &storeMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecstore",
			Name:      "operations_total",
			Help:      "Total store operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vecstore",
			Name:      "operation_duration_seconds",
			Help:      "Store operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("vecstore: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("vecstore: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for store operations.
type observer struct {
	logger  *slog.Logger
	metrics *storeMetrics
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				"op", op,
				"duration", dur,
				"error", err,
			)
		} else {
			o.logger.Debug("operation completed",
				"op", op,
				"duration", dur,
			)
		}
	}
}

// instrumentedStore decorates a Store with the observer.
type instrumentedStore struct {
	next Store
	obs  *observer
}

// Instrument wraps store so every operation is counted, timed and logged.
// Pass a nil logger to disable logging, a nil registerer to disable metrics.
func Instrument(store Store, logger *slog.Logger, reg prometheus.Registerer) (Store, error) {
	var m *storeMetrics
	if reg != nil {
		var err error
		m, err = newStoreMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &instrumentedStore{
		next: store,
		obs:  &observer{logger: logger, metrics: m},
	}, nil
}

func (s *instrumentedStore) Add(ctx context.Context, docs []Document) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("add", start, err) }()
	return s.next.Add(ctx, docs)
}

func (s *instrumentedStore) Delete(ctx context.Context, ids []string) bool {
	start := time.Now()
	ok := s.next.Delete(ctx, ids)
	var err error
	if !ok {
		err = errors.New("delete reported failure")
	}
	s.obs.observe("delete", start, err)
	return ok
}

func (s *instrumentedStore) SimilaritySearch(ctx context.Context, req *SearchRequest) (docs []Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("similarity_search", start, err) }()
	return s.next.SimilaritySearch(ctx, req)
}

func (s *instrumentedStore) CreateIndex(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("create_index", start, err) }()
	return s.next.CreateIndex(ctx, name)
}

func (s *instrumentedStore) DeleteIndex(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("delete_index", start, err) }()
	return s.next.DeleteIndex(ctx, name)
}
