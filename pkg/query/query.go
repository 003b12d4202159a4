package query

import (
	"net/url"
	"slices"
	"strings"
)

// Query is an ordered multimap of field -> terms decoded from a query string.
// Field order is the order of first appearance, term order is preserved per field.
type Query struct {
	fields []string
	terms  map[string][]string
	ranges map[string]struct{}
}

type Pair struct {
	Field string
	Term  string
}

func New() *Query {
	return &Query{
		fields: make([]string, 0),
		terms:  make(map[string][]string),
	}
}

// Parse decodes a query string. A leading "?" is ignored and "+" decodes to a space.
// Malformed escapes yield an empty query rather than an error.
func Parse(raw string) *Query {
	q := New()
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return q
	}
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		field, err := url.QueryUnescape(key)
		if err != nil {
			return New()
		}
		term, err := url.QueryUnescape(value)
		if err != nil {
			return New()
		}
		if field == "" {
			continue
		}
		q.Add(field, term)
	}
	return q
}

// FromPairs builds a query from an ordered list of field/term pairs.
func FromPairs(pairs []Pair) *Query {
	q := New()
	for _, p := range pairs {
		q.Add(p.Field, p.Term)
	}
	return q
}

func (q *Query) Add(field, term string) {
	if q.terms == nil {
		q.terms = make(map[string][]string)
	}
	if _, ok := q.terms[field]; !ok {
		q.fields = append(q.fields, field)
	}
	q.terms[field] = append(q.terms[field], term)
}

func (q *Query) Get(field string) []string {
	return q.terms[field]
}

func (q *Query) Has(field string) bool {
	_, ok := q.terms[field]
	return ok
}

func (q *Query) Del(field string) {
	if _, ok := q.terms[field]; !ok {
		return
	}
	delete(q.terms, field)
	delete(q.ranges, field)
	q.fields = slices.DeleteFunc(q.fields, func(f string) bool {
		return f == field
	})
}

// RemoveOne removes the first occurrence of term from field. The field
// disappears once its last term is removed.
func (q *Query) RemoveOne(field, term string) bool {
	terms, ok := q.terms[field]
	if !ok {
		return false
	}
	idx := slices.Index(terms, term)
	if idx == -1 {
		return false
	}
	terms = slices.Delete(terms, idx, idx+1)
	if len(terms) == 0 {
		q.Del(field)
	} else {
		q.terms[field] = terms
	}
	return true
}

func (q *Query) Fields() []string {
	return slices.Clone(q.fields)
}

func (q *Query) Len() int {
	return len(q.fields)
}

func (q *Query) IsEmpty() bool {
	return len(q.fields) == 0
}

// Pairs flattens the query into field/term pairs in field order.
func (q *Query) Pairs() []Pair {
	pairs := make([]Pair, 0, len(q.fields))
	for _, field := range q.fields {
		for _, term := range q.terms[field] {
			pairs = append(pairs, Pair{Field: field, Term: term})
		}
	}
	return pairs
}

func (q *Query) Clone() *Query {
	c := New()
	for _, field := range q.fields {
		c.fields = append(c.fields, field)
		c.terms[field] = slices.Clone(q.terms[field])
	}
	for field := range q.ranges {
		c.markRange(field)
	}
	return c
}

// Encode serializes the query. Spaces are written as "+" so that repeated
// Parse/Encode round trips produce the same string.
func (q *Query) Encode() string {
	var sb strings.Builder
	for _, field := range q.fields {
		for _, term := range q.terms[field] {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(field))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(term))
		}
	}
	return sb.String()
}

func (q *Query) String() string {
	return q.Encode()
}

// Equal compares two queries ignoring field order. Terms within a field are
// compared in order.
func (q *Query) Equal(other *Query) bool {
	if q == nil || other == nil {
		return q == other
	}
	if len(q.fields) != len(other.fields) {
		return false
	}
	for field, terms := range q.terms {
		otherTerms, ok := other.terms[field]
		if !ok || !slices.Equal(terms, otherTerms) {
			return false
		}
	}
	return true
}

// EqualStrings reports whether two raw query strings decode to equal queries.
func EqualStrings(a, b string) bool {
	return Parse(a).Equal(Parse(b))
}

// Normalize returns the canonical encoding of a raw query string.
func Normalize(raw string) string {
	return Parse(raw).Encode()
}
