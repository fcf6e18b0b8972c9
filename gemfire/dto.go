package gemfire

import "github.com/kailas-cloud/vecstore"

// Wire records of the GemFire VectorDB REST API. The upload body is the bare
// embedding array, not an {"embeddings": [...]} wrapper.

type uploadEmbedding struct {
	Key      string            `json:"key"`
	Vector   []float32         `json:"vector"`
	Metadata vecstore.Metadata `json:"metadata,omitempty"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"top-k"`
	KPerBucket      int       `json:"k-per-bucket"`
	IncludeMetadata bool      `json:"include-metadata"`
}

type queryResponse struct {
	Key      string            `json:"key"`
	Score    float64           `json:"score"`
	Metadata vecstore.Metadata `json:"metadata"`
}

type createIndexRequest struct {
	Name                     string   `json:"name"`
	BeamWidth                int      `json:"beam-width"`
	MaxConnections           int      `json:"max-connections"`
	VectorSimilarityFunction string   `json:"vector-similarity-function"`
	Fields                   []string `json:"fields"`
	Buckets                  int      `json:"buckets"`
}

type deleteIndexRequest struct {
	DeleteData bool `json:"delete-data"`
}

// narrow converts an embedding to the single-precision values the wire
// carries. Plain conversion: values are truncated, never re-rounded.
func narrow(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
