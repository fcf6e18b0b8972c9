package vecstore

import "context"

// Store is the common contract for vector-database backends. A Store is bound
// to a single remote index at construction time and is safe for concurrent
// use: implementations hold no mutable state beyond their injected client.
//
// Every operation performs one logical network round trip and blocks until
// the remote call completes or fails.
type Store interface {
	// Add vectorizes each document through the configured Embedder and
	// uploads the whole batch in a single request. The call is
	// all-or-nothing from the caller's viewpoint: there is no
	// partial-success reporting.
	Add(ctx context.Context, docs []Document) error

	// Delete removes documents by ID. The contract is deliberately
	// lenient: it returns true on success and false on any failure,
	// which is logged but never propagated. Callers cannot distinguish
	// "nothing to delete" from "delete failed".
	Delete(ctx context.Context, ids []string) bool

	// SimilaritySearch embeds the request query and returns the documents
	// whose score is at or above the request threshold, in the order the
	// remote service returned them. Each result's metadata carries the
	// reserved DistanceKey entry; the stored content is returned as the
	// document content, not as metadata. Backends that do not support
	// metadata filters fail with ErrFilterNotSupported before any
	// network call is made.
	SimilaritySearch(ctx context.Context, req *SearchRequest) ([]Document, error)

	// CreateIndex creates the remote index named name using the
	// index-creation parameters the store was configured with. An empty
	// name falls back to the configured index name.
	CreateIndex(ctx context.Context, name string) error

	// DeleteIndex removes the remote index named name together with its
	// underlying data.
	DeleteIndex(ctx context.Context, name string) error
}
