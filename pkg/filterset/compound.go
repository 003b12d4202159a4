package filterset

import (
	"strings"

	"github.com/matst80/slask-filterset/pkg/query"
	"github.com/matst80/slask-filterset/pkg/selection"
	"github.com/matst80/slask-filterset/pkg/types"
)

const typeParam = "type"

func splitHref(href string) (string, string) {
	path, raw, _ := strings.Cut(href, "?")
	return path, raw
}

// GlobalFlags returns the query parameters of the base search href without the
// scoping type parameter.
func GlobalFlags(searchHrefBase string) string {
	_, raw := splitHref(searchHrefBase)
	q := query.Parse(raw)
	q.Del(typeParam)
	return q.Encode()
}

// BlockHref appends a block query to the base search href.
func BlockHref(searchHrefBase string, blockQuery string) string {
	if blockQuery == "" {
		return searchHrefBase
	}
	switch {
	case !strings.Contains(searchHrefBase, "?"):
		return searchHrefBase + "?" + blockQuery
	case strings.HasSuffix(searchHrefBase, "?"), strings.HasSuffix(searchHrefBase, "&"):
		return searchHrefBase + blockQuery
	}
	return searchHrefBase + "&" + blockQuery
}

// BuildTarget decides between a compound request and a single search href.
// More than one effective block yields a compound request over the effective
// blocks, otherwise the href of the single effective block is returned.
func BuildTarget(fs *types.FilterSet, sel *selection.State, intersect bool, searchHrefBase string) (types.NavigationTarget, error) {
	if fs == nil || len(fs.Blocks) == 0 {
		return types.NavigationTarget{}, ErrNoBlocks
	}
	sel = sel.Clone()
	sel.Normalize(len(fs.Blocks))

	if sel.SelectedCount() > 1 {
		effective := sel.Effective()
		blocks := make([]types.CompoundBlock, 0, len(effective))
		for _, idx := range effective {
			blocks = append(blocks, types.CompoundBlock{
				Query:        fs.Blocks[idx].Query,
				FlagsApplied: []string{},
			})
		}
		return types.NavigationTarget{
			Compound: &types.CompoundRequest{
				SearchType:   fs.SearchType,
				GlobalFlags:  GlobalFlags(searchHrefBase),
				Intersect:    intersect,
				FilterBlocks: blocks,
			},
		}, nil
	}

	idx, ok := sel.SingleSelectedIndex()
	if !ok {
		return types.NavigationTarget{}, ErrIndexOutOfRange
	}
	return types.NavigationTarget{
		Href: BlockHref(searchHrefBase, fs.Blocks[idx].Query),
	}, nil
}

// SameSearch reports whether href asks for the same path and parameters the
// context was produced for. A trailing slash on the path is ignored.
func SameSearch(href string, ctx *types.SearchContext) bool {
	if ctx == nil || ctx.Href == "" {
		return false
	}
	pathA, a := splitHref(href)
	pathB, b := splitHref(ctx.Href)
	if strings.TrimSuffix(pathA, "/") != strings.TrimSuffix(pathB, "/") {
		return false
	}
	return query.EqualStrings(a, b)
}
