package filterset

import (
	"github.com/matst80/slask-filterset/pkg/query"
	"github.com/matst80/slask-filterset/pkg/types"
)

// DuplicateMaps maps a block index to the earliest earlier block it duplicates.
type DuplicateMaps struct {
	Names   map[int]int `json:"names"`
	Queries map[int]int `json:"queries"`
}

// FindDuplicates scans every earlier block for each block and records the first
// match by name and, separately, by parsed query. Block lists are small so the
// quadratic scan is fine and keeps the earliest match as the reported duplicate.
func FindDuplicates(blocks []types.FilterBlock) DuplicateMaps {
	result := DuplicateMaps{
		Names:   make(map[int]int),
		Queries: make(map[int]int),
	}
	parsed := make([]*query.Query, len(blocks))
	for i, block := range blocks {
		parsed[i] = query.Parse(block.Query)
	}
	for i, block := range blocks {
		nameFound, queryFound := false, false
		for j := 0; j < i && !(nameFound && queryFound); j++ {
			if !nameFound && blocks[j].Name == block.Name {
				result.Names[i] = j
				nameFound = true
			}
			if !queryFound && parsed[j].Equal(parsed[i]) {
				result.Queries[i] = j
				queryFound = true
			}
		}
	}
	return result
}
