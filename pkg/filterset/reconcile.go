package filterset

import (
	"log"

	"github.com/matst80/slask-filterset/pkg/query"
	"github.com/matst80/slask-filterset/pkg/types"
)

// DefaultExcludedFields are scoping filters that never belong in a block query.
var DefaultExcludedFields = []string{"type"}

// Reconcile folds the filters reported by ctx back into the query of block
// selectedIndex. When the block query already matches the context the same
// *FilterSet is returned. Otherwise a copy is returned where that block's query
// is rebuilt from the context filters; every other field is left as is.
func Reconcile(selectedIndex int, ctx *types.SearchContext, fs *types.FilterSet, excludedFields []string) *types.FilterSet {
	if ctx == nil || fs == nil || selectedIndex < 0 || selectedIndex >= len(fs.Blocks) {
		return fs
	}

	stored, _ := query.MergeRanges(query.Parse(fs.Blocks[selectedIndex].Query))

	active := ctx.WithOut(excludedFields...)
	pairs := make([]query.Pair, 0, len(active))
	for _, filter := range active {
		pairs = append(pairs, query.Pair{Field: filter.Field, Term: filter.Term})
	}
	fromContext, dropped := query.MergeRanges(query.FromPairs(pairs))
	if len(dropped) > 0 {
		log.Printf("dropping ambiguous range filters %v from block %d", dropped, selectedIndex)
	}

	hasExtra := false
	for _, pair := range fromContext.Pairs() {
		if !stored.RemoveOne(pair.Field, pair.Term) {
			hasExtra = true
		}
	}
	if !hasExtra && stored.IsEmpty() {
		return fs
	}

	rebuilt := query.ExpandRanges(fromContext).Encode()
	return fs.WithBlockQuery(selectedIndex, rebuilt)
}
