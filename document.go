package vecstore

// DistanceKey is the reserved metadata key under which backends report the
// distance of a search hit, computed as 1 - score.
const DistanceKey = "distance"

// Document is a unit of content with metadata and an optional embedding.
// The embedding is assigned lazily: when empty, Store.Add computes it from
// Content through the configured Embedder.
type Document struct {
	ID        string
	Content   string
	Metadata  Metadata
	Embedding []float64
}

// Metadata is a string-keyed map of document attributes.
//
// Two keys are reserved: DistanceKey, injected into search results, and the
// backend's configured content field, under which the document content
// travels on the wire. The helpers below copy-on-write so that adapters never
// mutate caller-supplied maps in place.
type Metadata map[string]any

// Clone returns a shallow copy of the metadata. A nil map clones to an empty
// non-nil map so callers can assign into the result.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WithContent returns a copy with content injected under field.
func (m Metadata) WithContent(field, content string) Metadata {
	out := m.Clone()
	out[field] = content
	return out
}

// ExtractContent removes field from the metadata and returns its string
// value. The map is mutated: result metadata must not retain the content
// under its wire key.
func (m Metadata) ExtractContent(field string) string {
	content, _ := m[field].(string)
	delete(m, field)
	return content
}

// Distance reports the reserved distance entry, if present.
func (m Metadata) Distance() (float64, bool) {
	switch v := m[DistanceKey].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}
