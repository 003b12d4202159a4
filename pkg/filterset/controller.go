package filterset

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/matst80/slask-filterset/pkg/selection"
	"github.com/matst80/slask-filterset/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Navigator loads a search target. onComplete must be called exactly once,
// asynchronously, whether the load succeeded or not.
type Navigator interface {
	Navigate(target types.NavigationTarget, opts types.NavigateOptions, onComplete func(types.NavigateResult))
}

type Saver interface {
	Save(ctx context.Context, payload types.SavePayload) (*types.FilterSet, error)
}

// BlockCounter returns the total number of results for a search href.
type BlockCounter interface {
	CountBlock(ctx context.Context, href string) (int, error)
}

type Config struct {
	SearchHref     string
	ExcludedFields []string
	Saver          Saver
	Counter        BlockCounter
	Context        *types.SearchContext
	// CountConcurrency limits parallel block counts, 4 when zero.
	CountConcurrency int
}

// Controller owns a filter set document together with the block selection and
// keeps them in step with the search results.
type Controller struct {
	mu         sync.Mutex
	doc        *types.FilterSet
	lastSaved  *types.SavePayload
	selection  *selection.State
	counts     Counts
	intersect  bool
	navigating bool
	navGen     uint64
	preset     string
	context    *types.SearchContext

	searchHref string
	excluded   []string
	navigator  Navigator
	saver      Saver
	counter    BlockCounter
	countLimit int
}

// View is a snapshot of the controller state. Nothing in it is shared with the controller.
type View struct {
	FilterSet         *types.FilterSet       `json:"filter_set"`
	Selection         selection.Facts        `json:"selection"`
	Counts            Counts                 `json:"counts"`
	Duplicates        DuplicateMaps          `json:"duplicates"`
	Intersect         bool                   `json:"intersect"`
	Navigating        bool                   `json:"navigating"`
	DerivedFromPreset string                 `json:"derived_from_preset,omitempty"`
	HasUnsavedChanges bool                   `json:"has_unsaved_changes"`
	Target            types.NavigationTarget `json:"target"`
}

type pendingNavigation struct {
	target types.NavigationTarget
	gen    uint64
}

var autoNamePattern = regexp.MustCompile(`^Filter Block (\d+)$`)

func NewController(doc *types.FilterSet, navigator Navigator, cfg Config) (*Controller, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	if navigator == nil {
		return nil, ErrNoNavigator
	}
	c := &Controller{
		doc:        doc.Clone(),
		counts:     Counts{},
		preset:     doc.DerivedFromPreset,
		context:    cfg.Context,
		searchHref: cfg.SearchHref,
		excluded:   cfg.ExcludedFields,
		navigator:  navigator,
		saver:      cfg.Saver,
		counter:    cfg.Counter,
		countLimit: cfg.CountConcurrency,
	}
	if c.excluded == nil {
		c.excluded = DefaultExcludedFields
	}
	if c.countLimit <= 0 {
		c.countLimit = 4
	}
	if c.doc.Id != "" || c.doc.UUID != "" {
		saved := c.doc.SavePayload()
		c.lastSaved = &saved
	}
	if len(c.doc.Blocks) == 0 {
		c.doc.Blocks = []types.FilterBlock{{Name: nextBlockName(nil)}}
	}
	c.selection = selection.New(len(c.doc.Blocks))
	return c, nil
}

func nextBlockName(blocks []types.FilterBlock) string {
	highest := 0
	for _, block := range blocks {
		m := autoNamePattern.FindStringSubmatch(block.Name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("Filter Block %d", highest+1)
}

// Start navigates to the current target unless the results already match it.
func (c *Controller) Start() {
	c.mutate(func() (bool, error) {
		return true, nil
	})
}

// mutate runs fn under the lock and, when fn asks for it, issues a navigation
// once the lock is released.
func (c *Controller) mutate(fn func() (bool, error)) error {
	c.mu.Lock()
	navigate, err := fn()
	var p *pendingNavigation
	if err == nil {
		c.selection.Normalize(len(c.doc.Blocks))
		if navigate {
			p = c.prepareNavigationLocked()
		}
	}
	c.mu.Unlock()
	c.dispatch(p)
	return err
}

func (c *Controller) prepareNavigationLocked() *pendingNavigation {
	target, err := BuildTarget(c.doc, c.selection, c.intersect, c.searchHref)
	if err != nil {
		log.Printf("unable to build navigation target: %v", err)
		return nil
	}
	// a pending response may still overwrite the context, so only skip when idle
	if !c.navigating && !target.IsCompound() && SameSearch(target.Href, c.context) {
		skippedNavigations.Inc()
		log.Printf("skipping navigation to %s, results already match", target.Href)
		return nil
	}
	c.navGen++
	c.navigating = true
	return &pendingNavigation{target: target, gen: c.navGen}
}

func (c *Controller) dispatch(p *pendingNavigation) {
	if p == nil {
		return
	}
	navigationsTotal.Inc()
	opts := types.NavigateOptions{Replace: true, KeepScrollSpot: true}
	c.navigator.Navigate(p.target, opts, func(res types.NavigateResult) {
		c.completeNavigation(p.gen, res)
	})
}

// completeNavigation clears the in flight flag when gen is the latest request.
// Results of superseded requests are discarded.
func (c *Controller) completeNavigation(gen uint64, res types.NavigateResult) {
	c.mu.Lock()
	latest := gen == c.navGen
	if latest {
		c.navigating = false
	}
	c.mu.Unlock()

	if res.Err != nil {
		navigationErrors.Inc()
		log.Printf("navigation failed: %v", res.Err)
		return
	}
	if !latest {
		log.Printf("ignoring superseded navigation %d", gen)
		return
	}
	if res.Context != nil {
		c.ReceiveSearchContext(res.Context)
	}
}

// ReceiveSearchContext takes a fresh search response. Unless a navigation is in
// flight and when exactly one block is in effect, the block query absorbs the
// filters of the response without a new navigation.
func (c *Controller) ReceiveSearchContext(ctx *types.SearchContext) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx == nil || ctx == c.context {
		return false
	}
	c.context = ctx
	c.selection.Normalize(len(c.doc.Blocks))
	if c.navigating {
		return false
	}
	idx, ok := c.selection.SingleSelectedIndex()
	if !ok {
		return false
	}
	c.counts[idx] = ctx.Total
	next := Reconcile(idx, ctx, c.doc, c.excluded)
	if next == c.doc {
		return false
	}
	reconcilesTotal.Inc()
	c.doc = next
	return true
}

// AddBlock appends a block and makes it the only selected one. A nil seed or
// one without a name gets the next free "Filter Block N" name.
func (c *Controller) AddBlock(seed *types.FilterBlock) (int, error) {
	index := -1
	err := c.mutate(func() (bool, error) {
		block := types.FilterBlock{}
		if seed != nil {
			block = *seed
		}
		if block.Name == "" {
			block.Name = nextBlockName(c.doc.Blocks)
		}
		doc := c.doc.Clone()
		doc.Blocks = append(doc.Blocks, block)
		c.doc = doc
		index = len(doc.Blocks) - 1
		c.selection.Reset(len(doc.Blocks), index)
		return true, nil
	})
	return index, err
}

// CopyBlock adds a new block carrying the query of block index.
func (c *Controller) CopyBlock(index int) (int, error) {
	c.mu.Lock()
	if index < 0 || index >= len(c.doc.Blocks) {
		c.mu.Unlock()
		return -1, ErrIndexOutOfRange
	}
	seed := types.FilterBlock{Query: c.doc.Blocks[index].Query}
	c.mu.Unlock()
	return c.AddBlock(&seed)
}

// RemoveBlock deletes block index. Navigation only happens when the set of
// blocks in effect changed.
func (c *Controller) RemoveBlock(index int) error {
	return c.mutate(func() (bool, error) {
		if index < 0 || index >= len(c.doc.Blocks) {
			return false, ErrIndexOutOfRange
		}
		if len(c.doc.Blocks) == 1 {
			return false, ErrLastBlock
		}
		before := c.selection.Effective()
		doc := c.doc.Clone()
		doc.Blocks = slices.Delete(doc.Blocks, index, index+1)
		c.doc = doc
		c.counts = c.counts.WithOut(index)
		c.selection.RemoveIndex(index)

		after := c.selection.Effective()
		for i, idx := range after {
			if idx >= index {
				after[i] = idx + 1
			}
		}
		return !slices.Equal(before, after), nil
	})
}

func (c *Controller) RenameBlock(index int, name string) error {
	return c.mutate(func() (bool, error) {
		if index < 0 || index >= len(c.doc.Blocks) {
			return false, ErrIndexOutOfRange
		}
		doc := c.doc.Clone()
		doc.Blocks[index].Name = name
		c.doc = doc
		return false, nil
	})
}

func (c *Controller) SetTitle(title string) {
	c.mutate(func() (bool, error) {
		doc := c.doc.Clone()
		doc.Title = title
		c.doc = doc
		return false, nil
	})
}

// ToggleIntersect flips between union and intersection of the selected blocks.
func (c *Controller) ToggleIntersect() bool {
	var intersect bool
	c.mutate(func() (bool, error) {
		c.intersect = !c.intersect
		intersect = c.intersect
		return true, nil
	})
	return intersect
}

func (c *Controller) SelectBlock(index int, exclusive bool) error {
	return c.mutate(func() (bool, error) {
		if index < 0 || index >= len(c.doc.Blocks) {
			return false, ErrIndexOutOfRange
		}
		return c.selection.SelectSingle(index, exclusive), nil
	})
}

func (c *Controller) SelectAll() {
	c.mutate(func() (bool, error) {
		return c.selection.SelectAll(), nil
	})
}

// ImportFromPreset replaces the blocks with those of preset while keeping the
// identity of the current document, and remembers where they came from.
func (c *Controller) ImportFromPreset(preset *types.FilterSet) error {
	return c.mutate(func() (bool, error) {
		if preset == nil || len(preset.Blocks) == 0 {
			return false, ErrNoBlocks
		}
		doc := c.doc.Clone()
		doc.Blocks = slices.Clone(preset.Blocks)
		doc.DerivedFromPreset = preset.Identity()
		c.doc = doc
		c.preset = doc.DerivedFromPreset
		c.counts = Counts{}
		c.selection.Reset(len(doc.Blocks))
		return true, nil
	})
}

// Save persists the document and keeps the stored version as the last saved
// snapshot. A first save adopts the identifiers assigned by storage.
func (c *Controller) Save(ctx context.Context) (*types.FilterSet, error) {
	if c.saver == nil {
		return nil, ErrNoSaver
	}
	c.mu.Lock()
	payload := c.doc.SavePayload()
	c.mu.Unlock()

	saved, err := c.saver.Save(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("save filter set: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc.Id == "" && c.doc.UUID == "" || c.doc.Status == "" {
		doc := c.doc.Clone()
		if doc.Id == "" && doc.UUID == "" {
			doc.Id = saved.Id
			doc.UUID = saved.UUID
		}
		if doc.Status == "" {
			doc.Status = saved.Status
		}
		c.doc = doc
	}
	snapshot := saved.SavePayload()
	c.lastSaved = &snapshot
	return saved.Clone(), nil
}

// RefreshCounts loads the result count of every block on its own.
func (c *Controller) RefreshCounts(ctx context.Context) error {
	if c.counter == nil {
		return ErrNoCounter
	}
	c.mu.Lock()
	blocks := slices.Clone(c.doc.Blocks)
	base := c.searchHref
	c.mu.Unlock()

	results := make([]int, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.countLimit)
	for i, block := range blocks {
		g.Go(func() error {
			n, err := c.counter.CountBlock(gctx, BlockHref(base, block.Query))
			if err != nil {
				return fmt.Errorf("count block %d: %w", i, err)
			}
			results[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, block := range blocks {
		// blocks may have moved while counting
		if i < len(c.doc.Blocks) && c.doc.Blocks[i].Query == block.Query {
			c.counts[i] = results[i]
		}
	}
	return nil
}

func (c *Controller) Document() *types.FilterSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

func (c *Controller) IsNavigating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigating
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel := c.selection.Clone()
	sel.Normalize(len(c.doc.Blocks))
	target, err := BuildTarget(c.doc, sel, c.intersect, c.searchHref)
	if err != nil {
		log.Printf("unable to build navigation target: %v", err)
	}
	counts := c.counts.Clone()
	if counts == nil {
		counts = Counts{}
	}
	unsaved := true
	if c.lastSaved != nil {
		unsaved = !c.doc.SavePayload().Equal(*c.lastSaved)
	}
	return View{
		FilterSet:         c.doc.Clone(),
		Selection:         sel.Facts(),
		Counts:            counts,
		Duplicates:        FindDuplicates(c.doc.Blocks),
		Intersect:         c.intersect,
		Navigating:        c.navigating,
		DerivedFromPreset: c.preset,
		HasUnsavedChanges: unsaved,
		Target:            target,
	}
}
