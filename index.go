package vecstore

import (
	"context"
	"fmt"
)

// TypedIndex is a generic, schema-first view of a Store. The mapping between
// T and Document is inferred from T's struct tags at construction time.
type TypedIndex[T any] struct {
	store Store
	meta  *schemaMeta
}

// Hit is a typed search result.
type Hit[T any] struct {
	Item     T
	Score    float64
	Distance float64
}

// NewIndex creates a typed view over store. T must be a struct with vecstore
// tags: exactly one id field, one content field, and any number of metadata
// fields. The schema is parsed once and cached.
func NewIndex[T any](store Store) (*TypedIndex[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, err
	}
	return &TypedIndex[T]{store: store, meta: meta}, nil
}

// Add uploads items as documents in a single batch.
func (idx *TypedIndex[T]) Add(ctx context.Context, items []T) error {
	docs := make([]Document, len(items))
	for i, item := range items {
		docs[i] = idx.meta.toDocument(item)
	}
	if err := idx.store.Add(ctx, docs); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// Delete removes items by ID. It carries the Store.Delete contract: true on
// success, false on any (logged) failure.
func (idx *TypedIndex[T]) Delete(ctx context.Context, ids []string) bool {
	return idx.store.Delete(ctx, ids)
}

// Search runs a similarity search and maps results back to typed hits.
func (idx *TypedIndex[T]) Search(ctx context.Context, req *SearchRequest) ([]Hit[T], error) {
	docs, err := idx.store.SimilaritySearch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit[T], 0, len(docs))
	for _, doc := range docs {
		item, ok := idx.meta.fromDocument(doc).(T)
		if !ok {
			continue
		}
		hit := Hit[T]{Item: item}
		if d, ok := doc.Metadata.Distance(); ok {
			hit.Distance = d
			hit.Score = 1 - d
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// CreateIndex creates the backing remote index.
func (idx *TypedIndex[T]) CreateIndex(ctx context.Context, name string) error {
	return idx.store.CreateIndex(ctx, name)
}

// DeleteIndex removes the backing remote index and its data.
func (idx *TypedIndex[T]) DeleteIndex(ctx context.Context, name string) error {
	return idx.store.DeleteIndex(ctx, name)
}
