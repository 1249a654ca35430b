package listing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/models"
)

// ErrNotLoaded is returned by Retry before any load was attempted.
var ErrNotLoaded = errors.New("nothing loaded yet")

// View is everything a listing page renders for the current state.
type View struct {
	Category      string               `json:"category,omitempty"`
	Query         string               `json:"query,omitempty"`
	Title         string               `json:"title"`
	Sort          SortKey              `json:"sort"`
	ActiveFilters int                  `json:"active_filters"`
	TotalLoaded   int                  `json:"total_loaded"`
	Page          Page[models.Product] `json:"page"`
	Facets        Facets               `json:"facets"`
}

// Facets are the filter options present in the loaded set.
type Facets struct {
	Brands      []string `json:"brands"`
	Processors  []string `json:"processors"`
	ScreenSizes []string `json:"screen_sizes"`
}

// Controller drives one listing page: load once, then recompute the
// filtered, sorted and paginated working set on every change. It is not safe
// for concurrent use; each page owns its controller.
type Controller struct {
	source  catalog.Source
	perPage int

	category string
	query    string
	all      []models.Product

	filters *Filters
	sortKey SortKey
	page    int

	reload func(ctx context.Context) error
}

func NewController(source catalog.Source, perPage int) *Controller {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Controller{
		source:  source,
		perPage: perPage,
		filters: NewFilters(),
		sortKey: SortRelevance,
		page:    1,
	}
}

// Load resolves rawCategory and fetches it, replacing the loaded set.
// Aggregate categories fan out to their sub-categories.
func (c *Controller) Load(ctx context.Context, rawCategory string) error {
	category := NormalizeCategory(rawCategory)
	c.reload = func(ctx context.Context) error { return c.loadCategory(ctx, category) }
	return c.reload(ctx)
}

// Search loads the results for a free-text query.
func (c *Controller) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("search query is empty")
	}
	c.reload = func(ctx context.Context) error { return c.loadSearch(ctx, query) }
	return c.reload(ctx)
}

// Retry repeats the last load, for the error panel's retry button.
func (c *Controller) Retry(ctx context.Context) error {
	if c.reload == nil {
		return ErrNotLoaded
	}
	return c.reload(ctx)
}

func (c *Controller) loadCategory(ctx context.Context, category string) error {
	catalog.Progressf(ctx, "Loading %s...", Title(category))
	var (
		products []models.Product
		err      error
	)
	if IsAggregate(category) {
		products, err = c.source.Categories(ctx, Expand(category))
	} else {
		products, err = c.source.Category(ctx, category)
	}
	c.category, c.query = category, ""
	if err != nil {
		c.all = nil
		return err
	}
	c.all = products
	c.page = 1
	return nil
}

func (c *Controller) loadSearch(ctx context.Context, query string) error {
	catalog.Progressf(ctx, "Searching %q...", query)
	products, err := c.source.Search(ctx, query)
	c.category, c.query = "", query
	if err != nil {
		c.all = nil
		return err
	}
	c.all = products
	c.page = 1
	return nil
}

// Filters exposes the committed/temp filter holder. Call ApplyFilters after
// Apply so pagination restarts.
func (c *Controller) Filters() *Filters { return c.filters }

// ApplyFilters commits staged filters and returns to page one.
func (c *Controller) ApplyFilters() {
	c.filters.Apply()
	c.page = 1
}

// ClearFilters drops every filter and returns to page one.
func (c *Controller) ClearFilters() {
	c.filters.Clear()
	c.page = 1
}

func (c *Controller) SetSort(key SortKey) {
	c.sortKey = key
	c.page = 1
}

// GoTo moves to page n, clamped to the available pages.
func (c *Controller) GoTo(n int) int {
	c.page = ClampPage(n, TotalPages(len(c.Filtered()), c.perPage))
	return c.page
}

func (c *Controller) Next() int { return c.GoTo(c.page + 1) }

func (c *Controller) Prev() int { return c.GoTo(c.page - 1) }

// Products is the full loaded set.
func (c *Controller) Products() []models.Product { return c.all }

// Filtered is the committed filters and sort applied to the loaded set.
func (c *Controller) Filtered() []models.Product {
	return Sort(c.filters.Committed().Apply(c.all), c.sortKey)
}

func (c *Controller) View() View {
	committed := c.filters.Committed()
	title := Title(c.category)
	if c.query != "" {
		title = fmt.Sprintf("Results for %q", c.query)
	}
	return View{
		Category:      c.category,
		Query:         c.query,
		Title:         title,
		Sort:          c.sortKey,
		ActiveFilters: committed.Count(),
		TotalLoaded:   len(c.all),
		Page:          Paginate(c.Filtered(), c.page, c.perPage),
		Facets:        c.Facets(),
	}
}

// Facets lists brands, processors and screen sizes found in the loaded set.
func (c *Controller) Facets() Facets {
	brands := make(map[string]string)
	for _, p := range c.all {
		if b := strings.TrimSpace(p.Brand); b != "" {
			brands[strings.ToLower(b)] = b
		}
	}
	f := Facets{Brands: make([]string, 0, len(brands))}
	for _, b := range brands {
		f.Brands = append(f.Brands, b)
	}
	sort.Strings(f.Brands)

	for _, token := range KnownProcessors {
		if anyProduct(c.all, func(p models.Product) bool { return MatchProcessor(p, token) }) {
			f.Processors = append(f.Processors, token)
		}
	}
	for _, token := range KnownScreenSizes {
		if anyProduct(c.all, func(p models.Product) bool { return MatchScreenSize(p, token) }) {
			f.ScreenSizes = append(f.ScreenSizes, token)
		}
	}
	return f
}

func anyProduct(products []models.Product, fn func(models.Product) bool) bool {
	for _, p := range products {
		if fn(p) {
			return true
		}
	}
	return false
}
