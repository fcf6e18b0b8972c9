package redis

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecstore"
)

// buildFilter translates a filter expression into an FT.SEARCH pre-filter
// query string. An empty expression yields "".
func buildFilter(expr vecstore.FilterExpression) string {
	if expr.IsEmpty() {
		return ""
	}

	var parts []string

	for _, cond := range expr.Must {
		parts = append(parts, buildCondition(cond))
	}

	if should := buildShouldGroup(expr.Should); should != "" {
		parts = append(parts, should)
	}

	for _, cond := range expr.MustNot {
		parts = append(parts, "-"+buildCondition(cond))
	}

	return strings.Join(parts, " ")
}

func buildCondition(cond vecstore.FilterCondition) string {
	if cond.Range != nil {
		return buildNumericFilter(cond.Key, cond.Range)
	}
	return buildTagFilter(cond.Key, cond.Match)
}

func buildShouldGroup(conditions []vecstore.FilterCondition) string {
	if len(conditions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conditions))
	for _, cond := range conditions {
		parts = append(parts, buildCondition(cond))
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

func buildNumericFilter(key string, r *vecstore.RangeFilter) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GT != nil {
		minBound = fmt.Sprintf("(%g", *r.GT)
	} else if r.GTE != nil {
		minBound = fmt.Sprintf("%g", *r.GTE)
	}

	if r.LT != nil {
		maxBound = fmt.Sprintf("(%g", *r.LT)
	} else if r.LTE != nil {
		maxBound = fmt.Sprintf("%g", *r.LTE)
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

// tagEscaper escapes the characters the query syntax treats specially
// inside TAG values.
var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
