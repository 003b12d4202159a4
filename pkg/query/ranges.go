package query

import "strings"

const (
	FromSuffix = ".from"
	ToSuffix   = ".to"
)

// range bounds are packed into a single term while merged, never encoded that way
const rangeSeparator = "\x1f"

type Range struct {
	From string
	To   string
}

func (r Range) term() string {
	return r.From + rangeSeparator + r.To
}

func parseRangeTerm(term string) (Range, bool) {
	from, to, ok := strings.Cut(term, rangeSeparator)
	return Range{From: from, To: to}, ok
}

func rangeBase(field string) (string, bool, bool) {
	if base, ok := strings.CutSuffix(field, FromSuffix); ok && base != "" {
		return base, true, true
	}
	if base, ok := strings.CutSuffix(field, ToSuffix); ok && base != "" {
		return base, false, true
	}
	return field, false, false
}

func (q *Query) markRange(field string) {
	if q.ranges == nil {
		q.ranges = make(map[string]struct{})
	}
	q.ranges[field] = struct{}{}
}

// IsRange reports whether field holds a merged from/to constraint.
func (q *Query) IsRange(field string) bool {
	_, ok := q.ranges[field]
	return ok
}

// Range returns the merged constraint for field.
func (q *Query) Range(field string) (Range, bool) {
	if !q.IsRange(field) {
		return Range{}, false
	}
	terms := q.terms[field]
	if len(terms) != 1 {
		return Range{}, false
	}
	return parseRangeTerm(terms[0])
}

// MergeRanges folds "field.from" / "field.to" pairs into a single logical
// constraint on "field". Fields whose bounds are ambiguous (repeated bounds or
// a clash with a plain field of the same name) are left out of the result and
// returned in dropped.
func MergeRanges(q *Query) (merged *Query, dropped []string) {
	type bounds struct {
		from []string
		to   []string
	}
	collected := make(map[string]*bounds)
	for _, field := range q.fields {
		base, isFrom, ok := rangeBase(field)
		if !ok {
			continue
		}
		b, found := collected[base]
		if !found {
			b = &bounds{}
			collected[base] = b
		}
		if isFrom {
			b.from = append(b.from, q.terms[field]...)
		} else {
			b.to = append(b.to, q.terms[field]...)
		}
	}

	merged = New()
	emitted := make(map[string]struct{})
	for _, field := range q.fields {
		base, _, ok := rangeBase(field)
		if !ok {
			for _, term := range q.terms[field] {
				merged.Add(field, term)
			}
			continue
		}
		if _, done := emitted[base]; done {
			continue
		}
		emitted[base] = struct{}{}
		b := collected[base]
		if len(b.from) > 1 || len(b.to) > 1 || q.Has(base) {
			dropped = append(dropped, base)
			continue
		}
		r := Range{}
		if len(b.from) == 1 {
			r.From = b.from[0]
		}
		if len(b.to) == 1 {
			r.To = b.to[0]
		}
		merged.Add(base, r.term())
		merged.markRange(base)
	}
	return merged, dropped
}

// ExpandRanges is the inverse of MergeRanges.
func ExpandRanges(q *Query) *Query {
	expanded := New()
	for _, field := range q.fields {
		if !q.IsRange(field) {
			for _, term := range q.terms[field] {
				expanded.Add(field, term)
			}
			continue
		}
		for _, term := range q.terms[field] {
			r, ok := parseRangeTerm(term)
			if !ok {
				continue
			}
			if r.From != "" {
				expanded.Add(field+FromSuffix, r.From)
			}
			if r.To != "" {
				expanded.Add(field+ToSuffix, r.To)
			}
		}
	}
	return expanded
}
