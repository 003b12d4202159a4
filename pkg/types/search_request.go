package types

// CompoundBlock is one filter block inside a compound search.
type CompoundBlock struct {
	Query        string   `json:"query"`
	FlagsApplied []string `json:"flags_applied"`
}

// CompoundRequest asks the backend for the union, or with Intersect the
// intersection, of several filter blocks.
type CompoundRequest struct {
	SearchType   SearchType      `json:"search_type"`
	GlobalFlags  string          `json:"global_flags,omitempty"`
	Intersect    bool            `json:"intersect"`
	FilterBlocks []CompoundBlock `json:"filter_blocks"`
}

// NavigationTarget is either a plain search href or a compound request.
type NavigationTarget struct {
	Href     string           `json:"href,omitempty"`
	Compound *CompoundRequest `json:"compound,omitempty"`
}

func (t NavigationTarget) IsCompound() bool {
	return t.Compound != nil
}

type NavigateOptions struct {
	Replace        bool `json:"replace"`
	KeepScrollSpot bool `json:"keep_scroll"`
}

// NavigateResult is handed to the completion callback exactly once per navigation.
// Context is nil when the navigation failed.
type NavigateResult struct {
	Context *SearchContext
	Err     error
}
