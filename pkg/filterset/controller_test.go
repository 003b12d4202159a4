package filterset

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matst80/slask-filterset/pkg/types"
)

const baseHref = "/search/?type=VariantSample"

type fakeNavigator struct {
	mu        sync.Mutex
	targets   []types.NavigationTarget
	callbacks []func(types.NavigateResult)
}

func (f *fakeNavigator) Navigate(target types.NavigationTarget, opts types.NavigateOptions, onComplete func(types.NavigateResult)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	f.callbacks = append(f.callbacks, onComplete)
}

func (f *fakeNavigator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.targets)
}

func (f *fakeNavigator) last() types.NavigationTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.targets[len(f.targets)-1]
}

// complete answers navigation i with a context echoing its href and filters.
func (f *fakeNavigator) complete(i int, filters ...types.ActiveFilter) *types.SearchContext {
	f.mu.Lock()
	target := f.targets[i]
	cb := f.callbacks[i]
	f.mu.Unlock()
	ctx := &types.SearchContext{Href: target.Href, Total: 7, Filters: filters}
	cb(types.NavigateResult{Context: ctx})
	return ctx
}

func (f *fakeNavigator) fail(i int) {
	f.mu.Lock()
	cb := f.callbacks[i]
	f.mu.Unlock()
	cb(types.NavigateResult{Err: errors.New("boom")})
}

func newTestController(t *testing.T, fs *types.FilterSet, cfg Config) (*Controller, *fakeNavigator) {
	t.Helper()
	nav := &fakeNavigator{}
	if cfg.SearchHref == "" {
		cfg.SearchHref = baseHref
	}
	c, err := NewController(fs, nav, cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return c, nav
}

func TestNewControllerAddsBlankBlock(t *testing.T) {
	c, _ := newTestController(t, &types.FilterSet{SearchType: types.VariantSample}, Config{})
	doc := c.Document()
	if len(doc.Blocks) != 1 || doc.Blocks[0].Name != "Filter Block 1" {
		t.Errorf("Expected one blank block, got %+v", doc.Blocks)
	}
	if _, err := NewController(nil, &fakeNavigator{}, Config{}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Expected ErrNoDocument, got %v", err)
	}
	if _, err := NewController(doc, nil, Config{}); !errors.Is(err, ErrNoNavigator) {
		t.Errorf("Expected ErrNoNavigator, got %v", err)
	}
}

func TestStartSkipsWhenResultsMatch(t *testing.T) {
	fs := makeFilterSet("gene=BRCA1")
	ctx := &types.SearchContext{Href: "/search/?gene=BRCA1&type=VariantSample"}
	c, nav := newTestController(t, fs, Config{Context: ctx})
	c.Start()
	if nav.count() != 0 {
		t.Errorf("Expected no navigation, got %d", nav.count())
	}
	if c.IsNavigating() {
		t.Errorf("Expected not to be navigating")
	}
}

func TestAddBlockNamesAndSelects(t *testing.T) {
	fs := makeFilterSet("a=1")
	fs.Blocks[0].Name = "Filter Block 3"
	c, nav := newTestController(t, fs, Config{})

	idx, err := c.AddBlock(nil)
	if err != nil || idx != 1 {
		t.Fatalf("Expected block at 1, got %d %v", idx, err)
	}
	view := c.View()
	if view.FilterSet.Blocks[1].Name != "Filter Block 4" {
		t.Errorf("Expected Filter Block 4, got %s", view.FilterSet.Blocks[1].Name)
	}
	if !view.Selection.HasSingle || view.Selection.SingleIndex != 1 {
		t.Errorf("Expected new block to be the single selection, got %+v", view.Selection)
	}
	if nav.count() != 1 || nav.last().Href != baseHref {
		t.Errorf("Expected navigation to the blank block, got %+v", nav.targets)
	}
	if !c.IsNavigating() {
		t.Errorf("Expected navigation in flight")
	}

	idx, _ = c.AddBlock(&types.FilterBlock{Name: "Mine", Query: "gene=TP53"})
	if c.Document().Blocks[idx].Name != "Mine" {
		t.Errorf("Expected seeded name to be kept")
	}
	if nav.last().Href != baseHref+"&gene=TP53" {
		t.Errorf("Expected navigation to seeded block, got %s", nav.last().Href)
	}
}

func TestCopyBlock(t *testing.T) {
	c, _ := newTestController(t, makeFilterSet("gene=TP53"), Config{})
	idx, err := c.CopyBlock(0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	view := c.View()
	if view.FilterSet.Blocks[idx].Query != "gene=TP53" {
		t.Errorf("Expected copied query, got %s", view.FilterSet.Blocks[idx].Query)
	}
	if view.Duplicates.Queries[1] != 0 {
		t.Errorf("Expected copy to be flagged as duplicate, got %v", view.Duplicates.Queries)
	}
	if _, err := c.CopyBlock(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestRemoveLastBlockRefused(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1"), Config{})
	if err := c.RemoveBlock(0); !errors.Is(err, ErrLastBlock) {
		t.Errorf("Expected ErrLastBlock, got %v", err)
	}
	if err := c.RemoveBlock(4); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if len(c.Document().Blocks) != 1 || nav.count() != 0 {
		t.Errorf("Expected state untouched")
	}
}

func TestRemoveUnselectedBlockDoesNotNavigate(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1", "b=2", "c=3"), Config{})
	c.SelectBlock(2, true)
	nav.complete(0, types.ActiveFilter{Field: "c", Term: "3"})
	n := nav.count()

	if err := c.RemoveBlock(0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if nav.count() != n {
		t.Errorf("Expected no navigation, got %d", nav.count()-n)
	}
	view := c.View()
	if view.Selection.SingleIndex != 1 || view.FilterSet.Blocks[1].Query != "c=3" {
		t.Errorf("Expected selection to follow the block, got %+v", view.Selection)
	}
}

func TestRemoveSelectedBlockNavigates(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1", "b=2", "c=3"), Config{})
	c.SelectBlock(1, true)
	n := nav.count()
	c.RemoveBlock(1)
	if nav.count() != n+1 {
		t.Errorf("Expected a navigation after removing the selected block")
	}
	if !nav.last().IsCompound() || len(nav.last().Compound.FilterBlocks) != 2 {
		t.Errorf("Expected compound navigation over remaining blocks, got %+v", nav.last())
	}
}

func TestRemoveShiftsCounts(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1", "b=2", "c=3"), Config{})
	for i := 0; i < 3; i++ {
		c.SelectBlock(i, true)
		nav.complete(nav.count()-1, types.ActiveFilter{Field: string(rune('a' + i)), Term: string(rune('1' + i))})
	}
	view := c.View()
	if len(view.Counts) != 3 {
		t.Fatalf("Expected counts for 3 blocks, got %v", view.Counts)
	}
	c.RemoveBlock(1)
	view = c.View()
	if len(view.Counts) != 2 || view.Counts[0] != 7 || view.Counts[1] != 7 {
		t.Errorf("Expected shifted counts, got %v", view.Counts)
	}
}

func TestRenameAndTitleDoNotNavigate(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1", "b=2"), Config{})
	if err := c.RenameBlock(1, "Renamed"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	c.SetTitle("New title")
	if nav.count() != 0 {
		t.Errorf("Expected no navigation, got %d", nav.count())
	}
	doc := c.Document()
	if doc.Blocks[1].Name != "Renamed" || doc.Title != "New title" {
		t.Errorf("Expected metadata updated, got %+v", doc)
	}
	if err := c.RenameBlock(2, "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestToggleIntersectNavigates(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1", "b=2"), Config{})
	if !c.ToggleIntersect() {
		t.Errorf("Expected intersect to be on")
	}
	if nav.count() != 1 || !nav.last().Compound.Intersect {
		t.Errorf("Expected intersecting compound navigation, got %+v", nav.targets)
	}
	c.ToggleIntersect()
	if nav.count() != 2 || nav.last().Compound.Intersect {
		t.Errorf("Expected union compound navigation")
	}
}

func TestImportFromPreset(t *testing.T) {
	fs := makeFilterSet("a=1", "b=2", "c=3")
	fs.Id = "/filter-sets/abc/"
	fs.Flags = []types.FilterFlag{{Name: "flag", Query: "x=1"}}
	c, nav := newTestController(t, fs, Config{})
	c.SelectBlock(2, true)

	preset := &types.FilterSet{
		UUID:     "preset-uuid",
		Title:    "Preset",
		IsPreset: true,
		Blocks: []types.FilterBlock{
			{Name: "P1", Query: "gene=BRCA1"},
			{Name: "P2", Query: "gene=BRCA2"},
		},
	}
	if err := c.ImportFromPreset(preset); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	view := c.View()
	doc := view.FilterSet
	if doc.Title != "test" || doc.Id != "/filter-sets/abc/" || len(doc.Flags) != 1 {
		t.Errorf("Expected identity fields to be kept, got %+v", doc)
	}
	if len(doc.Blocks) != 2 || doc.Blocks[0].Name != "P1" {
		t.Errorf("Expected preset blocks, got %+v", doc.Blocks)
	}
	if doc.DerivedFromPreset != "preset-uuid" || view.DerivedFromPreset != "preset-uuid" {
		t.Errorf("Expected preset identity recorded, got %s", doc.DerivedFromPreset)
	}
	if !view.Selection.AllSelected {
		t.Errorf("Expected selection reset")
	}
	if !nav.last().IsCompound() {
		t.Errorf("Expected navigation to the imported blocks")
	}

	preset.Blocks[0].Name = "changed"
	if c.Document().Blocks[0].Name != "P1" {
		t.Errorf("Expected preset blocks to be copied")
	}
	if err := c.ImportFromPreset(&types.FilterSet{}); !errors.Is(err, ErrNoBlocks) {
		t.Errorf("Expected ErrNoBlocks, got %v", err)
	}
}

func TestReconcileOnlyWhenNotNavigating(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("status=open"), Config{})
	c.Start()
	if !c.IsNavigating() {
		t.Fatalf("Expected navigation in flight")
	}
	stale := &types.SearchContext{Href: "/search/?type=VariantSample&status=closed", Filters: []types.ActiveFilter{{Field: "status", Term: "closed"}}}
	if c.ReceiveSearchContext(stale) {
		t.Errorf("Expected no reconcile while navigating")
	}
	if c.Document().Blocks[0].Query != "status=open" {
		t.Errorf("Expected query untouched while navigating")
	}

	nav.complete(0, types.ActiveFilter{Field: "type", Term: "VariantSample"}, types.ActiveFilter{Field: "status", Term: "open"})
	if c.IsNavigating() {
		t.Errorf("Expected navigation to be finished")
	}
	if c.Document().Blocks[0].Query != "status=open" {
		t.Errorf("Expected matching response not to change the query")
	}
}

func TestSameContextIgnored(t *testing.T) {
	c, _ := newTestController(t, makeFilterSet("status=open"), Config{})
	ctx := &types.SearchContext{Filters: []types.ActiveFilter{{Field: "status", Term: "closed"}}}
	if !c.ReceiveSearchContext(ctx) {
		t.Errorf("Expected first context to reconcile")
	}
	if c.ReceiveSearchContext(ctx) {
		t.Errorf("Expected same context to be ignored")
	}
}

func TestNoReconcileForCompound(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1", "b=2"), Config{})
	c.Start()
	nav.complete(0, types.ActiveFilter{Field: "z", Term: "9"})
	doc := c.Document()
	if doc.Blocks[0].Query != "a=1" || doc.Blocks[1].Query != "b=2" {
		t.Errorf("Expected compound results never to be folded back, got %+v", doc.Blocks)
	}
}

func TestSupersededNavigation(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1", "b=2"), Config{})
	c.SelectBlock(0, true)
	c.SelectBlock(1, true)
	if nav.count() != 2 {
		t.Fatalf("Expected two navigations, got %d", nav.count())
	}
	nav.complete(0, types.ActiveFilter{Field: "a", Term: "changed"})
	if !c.IsNavigating() {
		t.Errorf("Expected newer navigation to still be in flight")
	}
	if c.Document().Blocks[0].Query != "a=1" {
		t.Errorf("Expected superseded response to be ignored")
	}
	nav.complete(1, types.ActiveFilter{Field: "b", Term: "2"})
	if c.IsNavigating() {
		t.Errorf("Expected in flight flag cleared by latest navigation")
	}
}

func TestReselectWhileNavigatingIsNotSkipped(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("status=open", "status=closed"), Config{})
	c.SelectBlock(0, true)
	nav.complete(0, types.ActiveFilter{Field: "status", Term: "open"})
	c.SelectBlock(1, true)
	c.SelectBlock(0, true)
	if nav.count() != 3 {
		t.Fatalf("Expected reselecting during a navigation to navigate again, got %d", nav.count())
	}
	nav.complete(1, types.ActiveFilter{Field: "status", Term: "closed"})
	if !c.IsNavigating() {
		t.Errorf("Expected the newest navigation to still be in flight")
	}
	nav.complete(2, types.ActiveFilter{Field: "status", Term: "open"})
	doc := c.Document()
	if doc.Blocks[0].Query != "status=open" || doc.Blocks[1].Query != "status=closed" {
		t.Errorf("Expected blocks untouched by the stale response, got %+v", doc.Blocks)
	}
	if c.IsNavigating() {
		t.Errorf("Expected in flight flag cleared")
	}
}

func TestFailedNavigationClearsFlag(t *testing.T) {
	c, nav := newTestController(t, makeFilterSet("a=1", "b=2"), Config{})
	c.ToggleIntersect()
	nav.fail(0)
	if c.IsNavigating() {
		t.Errorf("Expected in flight flag cleared after failure")
	}
}

func TestEndToEndDuplicateAndReconcile(t *testing.T) {
	fs := &types.FilterSet{
		Title:      "Case filters",
		SearchType: types.VariantSample,
		Blocks: []types.FilterBlock{
			{Name: "A", Query: "status=open"},
			{Name: "B", Query: "status=open"},
		},
	}
	c, nav := newTestController(t, fs, Config{})
	view := c.View()
	if len(view.Duplicates.Queries) != 1 || view.Duplicates.Queries[1] != 0 {
		t.Errorf("Expected duplicate query map {1: 0}, got %v", view.Duplicates.Queries)
	}

	if err := c.SelectBlock(1, true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	nav.complete(0, types.ActiveFilter{Field: "type", Term: "VariantSample"}, types.ActiveFilter{Field: "status", Term: "open"})

	facetClick := &types.SearchContext{
		Href:    "/search/?type=VariantSample&status=closed",
		Total:   3,
		Filters: []types.ActiveFilter{{Field: "status", Term: "closed"}},
	}
	if !c.ReceiveSearchContext(facetClick) {
		t.Fatalf("Expected facet change to be folded into block 1")
	}
	doc := c.Document()
	if doc.Blocks[1].Query != "status=closed" {
		t.Errorf("Expected status=closed, got %s", doc.Blocks[1].Query)
	}
	if doc.Blocks[0].Query != "status=open" {
		t.Errorf("Expected block 0 untouched, got %s", doc.Blocks[0].Query)
	}
	if nav.count() != 1 {
		t.Errorf("Expected no navigation from reconciliation, got %d", nav.count())
	}
	if c.View().Counts[1] != 3 {
		t.Errorf("Expected count for block 1 recorded, got %v", c.View().Counts)
	}
}

type fakeSaver struct {
	payloads []types.SavePayload
}

func (s *fakeSaver) Save(_ context.Context, payload types.SavePayload) (*types.FilterSet, error) {
	s.payloads = append(s.payloads, payload)
	fs := payload.ToFilterSet()
	if fs.UUID == "" {
		fs.UUID = "new-uuid"
		fs.Id = "/filter-sets/new-uuid/"
	}
	return fs, nil
}

func TestSaveTracksUnsavedChanges(t *testing.T) {
	saver := &fakeSaver{}
	c, _ := newTestController(t, makeFilterSet("a=1"), Config{Saver: saver})
	if !c.View().HasUnsavedChanges {
		t.Errorf("Expected unsaved changes before the first save")
	}
	saved, err := c.Save(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if saved.UUID != "new-uuid" || c.Document().UUID != "new-uuid" {
		t.Errorf("Expected identifiers adopted, got %+v", c.Document())
	}
	if c.View().HasUnsavedChanges {
		t.Errorf("Expected no unsaved changes after save")
	}
	c.SetTitle("other")
	if !c.View().HasUnsavedChanges {
		t.Errorf("Expected unsaved changes after edit")
	}
	if len(saver.payloads) != 1 || saver.payloads[0].Blocks[0].Query != "a=1" {
		t.Errorf("Expected save payload with blocks, got %+v", saver.payloads)
	}

	noSaver, _ := newTestController(t, makeFilterSet("a=1"), Config{})
	if _, err := noSaver.Save(context.Background()); !errors.Is(err, ErrNoSaver) {
		t.Errorf("Expected ErrNoSaver, got %v", err)
	}
}

type fakeCounter struct {
	mu    sync.Mutex
	hrefs map[string]int
}

func (f *fakeCounter) CountBlock(_ context.Context, href string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.hrefs[href]
	if !ok {
		return 0, errors.New("unknown href " + href)
	}
	return n, nil
}

func TestRefreshCounts(t *testing.T) {
	counter := &fakeCounter{hrefs: map[string]int{
		baseHref + "&a=1": 11,
		baseHref + "&b=2": 22,
	}}
	c, _ := newTestController(t, makeFilterSet("a=1", "b=2"), Config{Counter: counter})
	if err := c.RefreshCounts(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	counts := c.View().Counts
	if counts[0] != 11 || counts[1] != 22 {
		t.Errorf("Expected counts 11 and 22, got %v", counts)
	}

	c.AddBlock(&types.FilterBlock{Query: "missing=1"})
	if err := c.RefreshCounts(context.Background()); err == nil {
		t.Errorf("Expected an error for an unknown block")
	}
}
