package types

import "strings"

// NegationMarker terminates a field name to negate its terms, as in "status!=closed".
const NegationMarker = "!"

// ActiveFilter is a filter the search backend reports as in force.
type ActiveFilter struct {
	Field string `json:"field"`
	Term  string `json:"term"`
}

func (f ActiveFilter) BaseField() string {
	return strings.TrimSuffix(f.Field, NegationMarker)
}

func (f ActiveFilter) IsNegated() bool {
	return strings.HasSuffix(f.Field, NegationMarker)
}

// SearchContext is the echo of the latest search response.
type SearchContext struct {
	Href       string         `json:"@id"`
	Total      int            `json:"total"`
	Filters    []ActiveFilter `json:"filters"`
	SearchType SearchType     `json:"search_type,omitempty"`
}

// WithOut returns the filters whose base field is not in fields.
func (c *SearchContext) WithOut(fields ...string) []ActiveFilter {
	result := make([]ActiveFilter, 0, len(c.Filters))
	for _, filter := range c.Filters {
		excluded := false
		base := filter.BaseField()
		for _, field := range fields {
			if base == field {
				excluded = true
				break
			}
		}
		if !excluded {
			result = append(result, filter)
		}
	}
	return result
}
