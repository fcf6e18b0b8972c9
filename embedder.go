package vecstore

import "context"

// Embedder converts text to a vector embedding. Stores call it once per
// document on upload and once per query on search.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage reported by
// the provider. Vectors are double precision; backends narrow to float32 at
// their wire or storage boundary.
type EmbeddingResult struct {
	Embedding    []float64
	PromptTokens int
	TotalTokens  int
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) (EmbeddingResult, error)

// Embed implements Embedder.
func (f EmbedderFunc) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return f(ctx, text)
}
