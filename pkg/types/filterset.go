package types

import "slices"

type SearchType string

const (
	VariantSample SearchType = "VariantSample"
	Variant       SearchType = "Variant"
	Case          SearchType = "Case"
)

func (t SearchType) Valid() bool {
	switch t {
	case VariantSample, Variant, Case:
		return true
	}
	return false
}

// FilterBlock is one named query fragment. Query is a query string and may be empty.
type FilterBlock struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// FilterFlag is a named query applied on top of blocks in compound searches.
type FilterFlag struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

type FilterSet struct {
	Id                string        `json:"@id,omitempty"`
	UUID              string        `json:"uuid,omitempty"`
	Title             string        `json:"title"`
	SearchType        SearchType    `json:"search_type"`
	DerivedFromPreset string        `json:"derived_from_preset_filterset,omitempty"`
	Status            string        `json:"status,omitempty"`
	IsPreset          bool          `json:"is_preset,omitempty"`
	Flags             []FilterFlag  `json:"flags,omitempty"`
	Blocks            []FilterBlock `json:"filter_blocks"`
}

// Identity is the reference other documents use to point at this one.
func (fs *FilterSet) Identity() string {
	if fs.UUID != "" {
		return fs.UUID
	}
	return fs.Id
}

func (fs *FilterSet) Clone() *FilterSet {
	c := *fs
	c.Flags = slices.Clone(fs.Flags)
	c.Blocks = slices.Clone(fs.Blocks)
	return &c
}

// WithBlockQuery returns a copy with the query of block index replaced.
// The receiver is not modified.
func (fs *FilterSet) WithBlockQuery(index int, query string) *FilterSet {
	c := fs.Clone()
	c.Blocks[index].Query = query
	return c
}

// SavePayload is the subset of fields accepted by persistence.
type SavePayload struct {
	Id                string        `json:"@id,omitempty"`
	UUID              string        `json:"uuid,omitempty"`
	Title             string        `json:"title"`
	SearchType        SearchType    `json:"search_type"`
	DerivedFromPreset string        `json:"derived_from_preset_filterset,omitempty"`
	Status            string        `json:"status,omitempty"`
	Flags             []FilterFlag  `json:"flags,omitempty"`
	Blocks            []FilterBlock `json:"filter_blocks"`
}

func (fs *FilterSet) SavePayload() SavePayload {
	return SavePayload{
		Id:                fs.Id,
		UUID:              fs.UUID,
		Title:             fs.Title,
		SearchType:        fs.SearchType,
		DerivedFromPreset: fs.DerivedFromPreset,
		Status:            fs.Status,
		Flags:             slices.Clone(fs.Flags),
		Blocks:            slices.Clone(fs.Blocks),
	}
}

func (p SavePayload) Equal(other SavePayload) bool {
	return p.Id == other.Id &&
		p.UUID == other.UUID &&
		p.Title == other.Title &&
		p.SearchType == other.SearchType &&
		p.DerivedFromPreset == other.DerivedFromPreset &&
		p.Status == other.Status &&
		slices.Equal(p.Flags, other.Flags) &&
		slices.Equal(p.Blocks, other.Blocks)
}

func (p SavePayload) ToFilterSet() *FilterSet {
	return &FilterSet{
		Id:                p.Id,
		UUID:              p.UUID,
		Title:             p.Title,
		SearchType:        p.SearchType,
		DerivedFromPreset: p.DerivedFromPreset,
		Status:            p.Status,
		Flags:             slices.Clone(p.Flags),
		Blocks:            slices.Clone(p.Blocks),
	}
}
