package selection

import (
	"maps"
	"slices"
)

// State tracks which filter blocks are selected for evaluation.
// An empty set means every block is selected.
type State struct {
	selected map[int]struct{}
	total    int
}

// Facts is the read-only view of a State handed to renderers.
type Facts struct {
	Indices       []int `json:"indices"`
	SingleIndex   int   `json:"single_index"`
	HasSingle     bool  `json:"has_single"`
	SelectedCount int   `json:"selected_count"`
	AllSelected   bool  `json:"all_selected"`
	Total         int   `json:"total"`
}

func New(total int) *State {
	s := &State{selected: make(map[int]struct{})}
	s.Normalize(total)
	return s
}

// Normalize records the block count and restores the invariants:
// a full explicit set collapses to empty, a lone block is always {0},
// out of range indices are dropped.
func (s *State) Normalize(total int) {
	if total < 0 {
		total = 0
	}
	s.total = total
	for idx := range s.selected {
		if idx < 0 || idx >= total {
			delete(s.selected, idx)
		}
	}
	switch {
	case total == 0:
		clear(s.selected)
	case total == 1:
		clear(s.selected)
		s.selected[0] = struct{}{}
	case len(s.selected) == total:
		clear(s.selected)
	}
}

// SelectSingle toggles index into the selection. Selecting the sole selected
// block reverts to "all selected". With exclusive the selection is replaced,
// otherwise index is added to it.
func (s *State) SelectSingle(index int, exclusive bool) bool {
	if s.total < 2 || index < 0 || index >= s.total {
		return false
	}
	before := s.Clone()
	if _, ok := s.selected[index]; ok && len(s.selected) == 1 {
		clear(s.selected)
	} else if exclusive {
		clear(s.selected)
		s.selected[index] = struct{}{}
	} else {
		s.selected[index] = struct{}{}
	}
	s.Normalize(s.total)
	return !before.Equal(s)
}

func (s *State) SelectAll() bool {
	if len(s.selected) == 0 {
		return false
	}
	clear(s.selected)
	s.Normalize(s.total)
	return true
}

// Reset replaces the selection with indices against a new block count.
func (s *State) Reset(total int, indices ...int) {
	clear(s.selected)
	for _, idx := range indices {
		s.selected[idx] = struct{}{}
	}
	s.Normalize(total)
}

// RemoveIndex drops index k and shifts higher indices down by one.
func (s *State) RemoveIndex(k int) {
	next := make(map[int]struct{}, len(s.selected))
	for idx := range s.selected {
		switch {
		case idx < k:
			next[idx] = struct{}{}
		case idx > k:
			next[idx-1] = struct{}{}
		}
	}
	s.selected = next
	s.Normalize(s.total - 1)
}

func (s *State) Total() int {
	return s.total
}

// Indices returns the explicit selection, sorted. Empty means all.
func (s *State) Indices() []int {
	return slices.Sorted(maps.Keys(s.selected))
}

// Effective returns every block index taking part in evaluation.
func (s *State) Effective() []int {
	if len(s.selected) == 0 {
		all := make([]int, s.total)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return s.Indices()
}

func (s *State) IsSelected(index int) bool {
	if index < 0 || index >= s.total {
		return false
	}
	if len(s.selected) == 0 {
		return true
	}
	_, ok := s.selected[index]
	return ok
}

func (s *State) SelectedCount() int {
	if len(s.selected) == 0 {
		return s.total
	}
	return len(s.selected)
}

func (s *State) IsAllSelected() bool {
	return s.total > 0 && s.SelectedCount() == s.total
}

// SingleSelectedIndex is defined when exactly one block is in effect.
func (s *State) SingleSelectedIndex() (int, bool) {
	if len(s.selected) == 1 {
		for idx := range s.selected {
			return idx, true
		}
	}
	if len(s.selected) == 0 && s.total == 1 {
		return 0, true
	}
	return -1, false
}

func (s *State) Clone() *State {
	return &State{selected: maps.Clone(s.selected), total: s.total}
}

func (s *State) Equal(other *State) bool {
	if s.total != other.total || len(s.selected) != len(other.selected) {
		return false
	}
	for idx := range s.selected {
		if _, ok := other.selected[idx]; !ok {
			return false
		}
	}
	return true
}

func (s *State) Facts() Facts {
	single, ok := s.SingleSelectedIndex()
	return Facts{
		Indices:       s.Indices(),
		SingleIndex:   single,
		HasSingle:     ok,
		SelectedCount: s.SelectedCount(),
		AllSelected:   s.IsAllSelected(),
		Total:         s.total,
	}
}
