package vecstore

// FilterExpression is a set of must/should/must_not filter conditions over
// document metadata. Whether filters are honored is backend-specific: the
// Redis backend translates them into index prefilters, the GemFire backend
// rejects any non-empty expression before issuing a request.
type FilterExpression struct {
	Must    []FilterCondition
	Should  []FilterCondition
	MustNot []FilterCondition
}

// IsEmpty reports whether the expression carries no conditions.
func (f FilterExpression) IsEmpty() bool {
	return len(f.Must) == 0 && len(f.Should) == 0 && len(f.MustNot) == 0
}

// FilterCondition is a single filter clause: a tag match when Match is
// non-empty, a numeric range when Range is non-nil.
type FilterCondition struct {
	Key   string
	Match string
	Range *RangeFilter
}

// RangeFilter defines numeric range boundaries. Nil bounds are open.
type RangeFilter struct {
	GT  *float64
	GTE *float64
	LT  *float64
	LTE *float64
}
