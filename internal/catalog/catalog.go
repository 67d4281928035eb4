// Package catalog holds the in-memory product list the catalog browser
// renders: an accumulating cache of fetched pages with a movable visible
// window over them.
//
// Pages are fetched forward one at a time (LoadMore) or as a batch for a
// deep link (InitialLoad). Moving the window back (LoadPrevious) never
// evicts a page, so moving forward again is free. The cache lives only as
// long as the view that owns it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/spiffcs/storefront/internal/constants"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
	"golang.org/x/sync/errgroup"
)

// ErrMalformedPage is returned when a fetcher reports success without a page.
var ErrMalformedPage = errors.New("malformed page response")

// PageFetcher fetches one catalog page.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (*model.Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, page int) (*model.Page, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, page int) (*model.Page, error) {
	return f(ctx, page)
}

// Cache is the product list cache. It is safe for concurrent use; at most
// one load operation is in flight at any time.
type Cache struct {
	fetcher PageFetcher

	mu sync.Mutex
	// itemsByPage doubles as the set of loaded pages
	itemsByPage  map[int][]model.Product
	visibleUpper int
	lastPage     int
	fetching     bool
	// initializedTo is the page of the last successful InitialLoad
	initializedTo int
}

// New creates an empty cache backed by fetcher.
func New(fetcher PageFetcher) *Cache {
	return &Cache{
		fetcher:     fetcher,
		itemsByPage: make(map[int][]model.Product),
	}
}

// Snapshot is a consistent view of the cache's read model.
type Snapshot struct {
	Items           []model.Product
	VisiblePage     int
	LastPage        int
	Loading         bool
	CanLoadMore     bool
	CanLoadPrevious bool
}

// LoadMore extends the visible window by one page. Before anything has
// loaded it performs the initial load of the first page.
//
// It is a no-op while another load is in flight and once the window has
// reached the last page. A page that is already cached is shown without a
// network call. On failure the cache is left exactly as it was.
func (c *Cache) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.fetching {
		c.mu.Unlock()
		log.Debug("load more ignored, fetch in flight")
		return nil
	}
	if len(c.itemsByPage) == 0 {
		c.mu.Unlock()
		return c.InitialLoad(ctx, constants.FirstPage)
	}
	if c.visibleUpper >= c.lastPage {
		c.mu.Unlock()
		return nil
	}

	next := c.visibleUpper + 1
	if _, ok := c.itemsByPage[next]; ok {
		c.visibleUpper = next
		c.mu.Unlock()
		log.Debug("page served from cache", "page", next)
		return nil
	}
	c.fetching = true
	c.mu.Unlock()

	page, err := c.fetch(ctx, next)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false
	if err != nil {
		return err
	}

	c.itemsByPage[next] = page.Items
	c.lastPage = page.LastPage
	c.visibleUpper = next
	log.Info("page loaded", "page", next, "lastPage", c.lastPage, "items", len(page.Items))
	return nil
}

// LoadPrevious shrinks the visible window by one page. Cached pages are
// kept. It never fetches and never blocks on an in-flight load.
func (c *Cache) LoadPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.visibleUpper > constants.FirstPage {
		c.visibleUpper--
	}
}

// InitialLoad makes pages 1..requested visible, fetching the ones not yet
// cached concurrently, at most constants.MaxConcurrentPages at a time.
// Pages past a last page the server has already reported are not fetched.
// Results are reduced in ascending page order, so the last page count comes
// from the highest page fetched regardless of the order responses arrive
// in. If any fetch fails nothing is committed.
//
// Repeating InitialLoad for pages already cached only moves the window. A
// requested page below 1 is treated as 1.
func (c *Cache) InitialLoad(ctx context.Context, requested int) error {
	if requested < constants.FirstPage {
		requested = constants.FirstPage
	}

	c.mu.Lock()
	if c.fetching {
		c.mu.Unlock()
		log.Debug("initial load ignored, fetch in flight", "page", requested)
		return nil
	}
	if c.initializedTo == requested {
		c.setWindowLocked(requested)
		c.mu.Unlock()
		return nil
	}

	var missing []int
	for p := constants.FirstPage; p <= c.boundLocked(requested); p++ {
		if _, ok := c.itemsByPage[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		c.setWindowLocked(requested)
		c.mu.Unlock()
		return nil
	}
	var known atomic.Int64
	known.Store(int64(c.lastPage))
	c.fetching = true
	c.mu.Unlock()

	log.Debug("fetching pages", "pages", missing)

	pastEnd := func(p int) bool {
		last := int(known.Load())
		return last >= constants.FirstPage && p > last
	}

	pages := make([]*model.Page, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MaxConcurrentPages)
	for i, p := range missing {
		if pastEnd(p) {
			break
		}
		g.Go(func() error {
			if pastEnd(p) {
				return nil
			}
			page, err := c.fetch(gctx, p)
			if err != nil {
				return err
			}
			pages[i] = page
			raise(&known, int64(max(page.LastPage, constants.FirstPage)))
			return nil
		})
	}
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false
	if err != nil {
		return err
	}

	fetched := 0
	for i, p := range missing {
		if pages[i] == nil {
			continue
		}
		c.itemsByPage[p] = pages[i].Items
		c.lastPage = pages[i].LastPage
		fetched++
	}
	c.setWindowLocked(requested)
	log.Info("catalog initialized", "page", requested, "fetched", fetched, "lastPage", c.lastPage)
	return nil
}

// boundLocked caps requested at the last page already reported, if any.
// c.mu must be held.
func (c *Cache) boundLocked(requested int) int {
	if c.lastPage >= constants.FirstPage && requested > c.lastPage {
		return c.lastPage
	}
	return requested
}

// raise sets v to n if n is larger.
func raise(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n <= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}

// setWindowLocked points the window at requested, clamped to the last page
// the server reported. c.mu must be held.
func (c *Cache) setWindowLocked(requested int) {
	upper := requested
	if c.lastPage >= constants.FirstPage && upper > c.lastPage {
		upper = c.lastPage
	}
	c.visibleUpper = upper
	c.initializedTo = requested
}

func (c *Cache) fetch(ctx context.Context, page int) (*model.Page, error) {
	p, err := c.fetcher.FetchPage(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", page, err)
	}
	if p == nil {
		return nil, fmt.Errorf("load page %d: %w", page, ErrMalformedPage)
	}
	return p, nil
}

// VisibleItems returns the deduplicated products of pages 1..VisiblePage in
// page order, then server order within a page.
func (c *Cache) VisibleItems() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleItemsLocked()
}

func (c *Cache) visibleItemsLocked() []model.Product {
	var items []model.Product
	for p := constants.FirstPage; p <= c.visibleUpper; p++ {
		items = MergeUnique(items, c.itemsByPage[p])
	}
	return items
}

// CanLoadMore reports whether LoadMore would show another page. It is true
// before the first load.
func (c *Cache) CanLoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canLoadMoreLocked()
}

func (c *Cache) canLoadMoreLocked() bool {
	if len(c.itemsByPage) == 0 {
		return true
	}
	return c.visibleUpper < c.lastPage
}

// CanLoadPrevious reports whether the window can shrink.
func (c *Cache) CanLoadPrevious() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleUpper > constants.FirstPage
}

// IsLoading reports whether a load is in flight.
func (c *Cache) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching
}

// VisiblePage returns the highest page in the visible window, or 0 before
// the first load.
func (c *Cache) VisiblePage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleUpper
}

// LastPage returns the most recent page count reported by the server.
func (c *Cache) LastPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPage
}

// LoadedPages returns the cached page numbers in ascending order.
func (c *Cache) LoadedPages() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	pages := make([]int, 0, len(c.itemsByPage))
	for p := range c.itemsByPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// Snapshot returns the whole read model under a single lock.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Items:           c.visibleItemsLocked(),
		VisiblePage:     c.visibleUpper,
		LastPage:        c.lastPage,
		Loading:         c.fetching,
		CanLoadMore:     c.canLoadMoreLocked(),
		CanLoadPrevious: c.visibleUpper > constants.FirstPage,
	}
}
