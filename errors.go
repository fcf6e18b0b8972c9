package vecstore

import "errors"

// Sentinel errors shared by all backends. Use errors.Is() to check.
var (
	// ErrIndexNotFound marks a request against a remote index that does
	// not exist.
	ErrIndexNotFound = errors.New("vecstore: index not found")

	// ErrBadRequest marks a request the remote service rejected as
	// malformed.
	ErrBadRequest = errors.New("vecstore: bad request")

	// ErrFilterNotSupported is returned before any network call when a
	// search carries a filter expression the backend cannot honor.
	ErrFilterNotSupported = errors.New("vecstore: metadata filter expressions not supported")

	// ErrEmbeddingProvider wraps failures of the embedding capability.
	ErrEmbeddingProvider = errors.New("vecstore: embedding provider error")
)
