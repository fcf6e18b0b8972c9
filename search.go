package vecstore

// DefaultTopK is the number of results a search requests when not overridden.
const DefaultTopK = 4

// SearchRequest describes a similarity query: the text to embed, the number
// of nearest results to return, and the minimum acceptable score. Construct
// with NewSearchRequest and the fluent With* methods.
type SearchRequest struct {
	// Query is the text to vectorize and search for.
	Query string

	// TopK is the requested number of nearest results.
	TopK int

	// SimilarityThreshold excludes hits scoring below it. Zero accepts
	// everything.
	SimilarityThreshold float64

	// Filters restricts candidates by metadata. Backends without filter
	// support fail fast with ErrFilterNotSupported.
	Filters FilterExpression
}

// NewSearchRequest creates a request for query with default TopK and no
// threshold.
func NewSearchRequest(query string) *SearchRequest {
	return &SearchRequest{Query: query, TopK: DefaultTopK}
}

// WithTopK sets the requested result count.
func (r *SearchRequest) WithTopK(k int) *SearchRequest {
	r.TopK = k
	return r
}

// WithSimilarityThreshold sets the minimum acceptable score in [0, 1].
func (r *SearchRequest) WithSimilarityThreshold(t float64) *SearchRequest {
	r.SimilarityThreshold = t
	return r
}

// WithFilters sets the metadata filter expression.
func (r *SearchRequest) WithFilters(f FilterExpression) *SearchRequest {
	r.Filters = f
	return r
}

// HasFilters reports whether the request carries any filter condition.
func (r *SearchRequest) HasFilters() bool {
	return !r.Filters.IsEmpty()
}
