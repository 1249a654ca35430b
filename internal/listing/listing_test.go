package listing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource records calls and serves canned products per category.
type fakeSource struct {
	byCategory map[string][]models.Product
	search     []models.Product
	err        error

	CategoryCalls   []string
	CategoriesCalls [][]string
	SearchCalls     []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Category(_ context.Context, c string) ([]models.Product, error) {
	f.CategoryCalls = append(f.CategoryCalls, c)
	if f.err != nil {
		return nil, f.err
	}
	return f.byCategory[c], nil
}

func (f *fakeSource) Categories(_ context.Context, cs []string) ([]models.Product, error) {
	f.CategoriesCalls = append(f.CategoriesCalls, cs)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Product
	for _, c := range cs {
		out = append(out, f.byCategory[c]...)
	}
	return out, nil
}

func (f *fakeSource) Search(_ context.Context, q string) ([]models.Product, error) {
	f.SearchCalls = append(f.SearchCalls, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.search, nil
}

func product(id, brand, title string, price float64, specs map[string]any) models.Product {
	p := models.Product{ID: id, Brand: brand, Title: title, Specs: specs}
	if price > 0 {
		p.Offers = []models.Offer{{Retailer: "Shop", Price: price}}
	}
	return p
}

func manyProducts(n int) []models.Product {
	brands := []string{"Dell", "HP", "Lenovo", "Apple", "ASUS"}
	out := make([]models.Product, n)
	for i := range out {
		out[i] = product(fmt.Sprintf("p%d", i), brands[i%len(brands)], fmt.Sprintf("Laptop %d", i), float64(300+i*37), nil)
	}
	return out
}

// ============================================
// Categories
// ============================================

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "windows-laptops", NormalizeCategory("windows"))
	assert.Equal(t, "macbooks", NormalizeCategory(" MacBook "))
	assert.Equal(t, "gaming-monitors", NormalizeCategory("monitors"))
	assert.Equal(t, CategoryLaptops, NormalizeCategory(""))
	assert.Equal(t, "gaming-laptops", NormalizeCategory("Gaming_Laptops"))
	assert.Equal(t, "tablets", NormalizeCategory("tablets"))
}

func TestExpand(t *testing.T) {
	assert.Len(t, Expand(CategoryGaming), 4)
	assert.Contains(t, Expand(CategoryLaptops), "macbooks")
	assert.Equal(t, []string{"macbooks"}, Expand("macbooks"))
	assert.True(t, IsAggregate(CategoryGaming))
	assert.False(t, IsAggregate("macbooks"))
	assert.Equal(t, "Gaming Monitors", Title("gaming-monitors"))
	assert.Equal(t, "Smart Watches", Title("smart-watches"))
}

// ============================================
// Price ranges
// ============================================

func TestParsePriceRange(t *testing.T) {
	r, ok, err := ParsePriceRange("0-5000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, r.HasMin, "a range from zero is the 'under' sentinel")
	assert.True(t, r.Contains(5000))
	assert.False(t, r.Contains(5000.01))

	r, ok, err = ParsePriceRange("500-1000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.Contains(500))
	assert.True(t, r.Contains(1000))
	assert.False(t, r.Contains(499.99))

	r, _, err = ParsePriceRange("2000+")
	require.NoError(t, err)
	assert.True(t, r.Contains(2000))
	assert.False(t, r.Contains(1999))
	assert.Equal(t, "over-2000", r.String())

	r, _, err = ParsePriceRange("under-300")
	require.NoError(t, err)
	assert.True(t, r.Contains(300))
	assert.False(t, r.Contains(301))

	_, ok, err = ParsePriceRange("")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParsePriceRange("cheap")
	assert.Error(t, err)
}

// ============================================
// Predicates
// ============================================

func TestMatchBrand_CaseInsensitiveSubstring(t *testing.T) {
	p := product("1", "Hewlett-Packard (HP)", "Pavilion", 500, nil)
	assert.True(t, MatchBrand(p, "hp"))
	assert.True(t, MatchBrand(p, "HEWLETT"))
	assert.False(t, MatchBrand(p, "dell"))
}

func TestMatchProcessor_NamingVariants(t *testing.T) {
	intel := product("1", "Dell", "XPS 15", 1500, map[string]any{"processor": "Intel Core i7-13700H"})
	apple := product("2", "Apple", "MacBook Air M2", 1100, nil)
	amd := product("3", "ASUS", "Zenbook", 900, map[string]any{"cpu": "AMD Ryzen7 7730U"})

	assert.True(t, MatchProcessor(intel, "Intel Core i7"))
	assert.True(t, MatchProcessor(intel, "i7"))
	assert.True(t, MatchProcessor(intel, "core i7"))
	assert.False(t, MatchProcessor(intel, "i5"))

	assert.True(t, MatchProcessor(apple, "Apple M2"))
	assert.False(t, MatchProcessor(apple, "Apple M3"))

	assert.True(t, MatchProcessor(amd, "AMD Ryzen 7"))
	assert.True(t, MatchProcessor(amd, "ryzen 7"))

	inspiron := product("4", "Dell", "Dell Inspiron 15 Intel Core i5 8GB RAM 1TB SSD", 650,
		map[string]any{"processor": "Intel Core i5-1235U"})
	assert.True(t, MatchProcessor(inspiron, "Intel Core i5"))
	assert.False(t, MatchProcessor(inspiron, "Apple M1"), "\"RAM 1TB\" is not an M1 chip")
	assert.False(t, MatchProcessor(inspiron, "m1"))
}

func TestController_FacetsIgnoreSpecNoise(t *testing.T) {
	src := &fakeSource{byCategory: map[string][]models.Product{"windows-laptops": {
		product("1", "Dell", "Dell Inspiron 15 Intel Core i5 8GB RAM 1TB SSD", 650,
			map[string]any{"processor": "Intel Core i5-1235U"}),
	}}}
	c := NewController(src, 12)
	require.NoError(t, c.Load(context.Background(), "windows-laptops"))

	facets := c.View().Facets
	assert.Contains(t, facets.Processors, "Intel Core i5")
	assert.NotContains(t, facets.Processors, "Apple M1")
}

func TestMatchScreenSize_WholeNumbers(t *testing.T) {
	p := product("1", "Lenovo", "IdeaPad", 700, map[string]any{
		"display":   "15.6\" FHD IPS",
		"processor": "Intel Core i5-1455U",
	})
	assert.True(t, MatchScreenSize(p, "15.6"))
	assert.True(t, MatchScreenSize(p, "15.6 inch"))
	assert.False(t, MatchScreenSize(p, "15"))
	assert.False(t, MatchScreenSize(p, "14"), "processor model numbers are not screen sizes")

	q := product("2", "Apple", "MacBook Air 13-inch", 999, nil)
	assert.True(t, MatchScreenSize(q, "13"))
}

// ============================================
// Filter state: temp vs committed
// ============================================

func TestFilters_CommittedOnlyChangesOnApply(t *testing.T) {
	f := NewFilters()
	f.Stage()
	f.ToggleBrand("Dell")
	require.NoError(t, f.SetPriceRange("0-1000"))

	assert.True(t, f.Committed().IsEmpty())
	assert.Equal(t, 2, f.Temp().Count())

	f.Apply()
	assert.Equal(t, 2, f.Committed().Count())
	assert.True(t, f.Committed().Brands["Dell"])
}

func TestFilters_CancelRevertsTemp(t *testing.T) {
	f := NewFilters()
	f.Stage()
	f.ToggleBrand("Dell")
	f.Apply()

	f.Stage()
	f.ToggleBrand("Dell") // deselect
	f.ToggleBrand("HP")
	f.Cancel()

	assert.Equal(t, []string{"Dell"}, Sorted(f.Temp().Brands))
	assert.Equal(t, []string{"Dell"}, Sorted(f.Committed().Brands))
}

func TestFilters_InvalidPriceRangeRejected(t *testing.T) {
	f := NewFilters()
	assert.Error(t, f.SetPriceRange("lots"))
	assert.Empty(t, f.Temp().PriceRange)
}

func TestFilterState_DimensionsAndTokens(t *testing.T) {
	products := []models.Product{
		product("1", "Dell", "Inspiron", 600, map[string]any{"processor": "Core i5"}),
		product("2", "Dell", "XPS", 1600, map[string]any{"processor": "Core i7"}),
		product("3", "HP", "Envy", 900, map[string]any{"processor": "Core i7"}),
		product("4", "HP", "Stream", 0, nil),
	}

	s := NewFilterState()
	s.Brands["Dell"] = true
	s.Brands["HP"] = true
	s.Processors["i7"] = true
	got := s.Apply(products)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	s = NewFilterState()
	s.PriceRange = "0-5000"
	got = s.Apply(products)
	assert.Len(t, got, 3, "unpriced products fail an active price filter")
}

// ============================================
// Sort
// ============================================

func TestSort_PriceLowHighAreReverses(t *testing.T) {
	products := manyProducts(30)

	low := Sort(products, SortPriceLow)
	high := Sort(products, SortPriceHigh)

	require.Len(t, high, len(low))
	for i := range low {
		assert.Equal(t, low[i].ID, high[len(high)-1-i].ID)
	}
}

func TestSort_UnpricedLast(t *testing.T) {
	products := []models.Product{
		product("a", "X", "A", 0, nil),
		product("b", "X", "B", 20, nil),
		product("c", "X", "C", 10, nil),
	}
	assert.Equal(t, "a", Sort(products, SortPriceLow)[2].ID)
	assert.Equal(t, "a", Sort(products, SortPriceHigh)[2].ID)
}

func TestSort_NameUsesCollation(t *testing.T) {
	products := []models.Product{
		product("1", "", "zenbook", 1, nil),
		product("2", "", "Aspire 10", 1, nil),
		product("3", "", "Aspire 9", 1, nil),
	}
	got := Sort(products, SortName)
	assert.Equal(t, []string{"3", "2", "1"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSort_RelevanceIsBrandThenPrice(t *testing.T) {
	products := []models.Product{
		product("1", "HP", "a", 500, nil),
		product("2", "Dell", "b", 900, nil),
		product("3", "Dell", "c", 400, nil),
	}
	got := Sort(products, SortRelevance)
	assert.Equal(t, []string{"3", "2", "1"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	products := manyProducts(5)
	first := products[0].ID
	Sort(products, SortPriceHigh)
	assert.Equal(t, first, products[0].ID)
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortRelevance, k)

	k, err = ParseSortKey("price-desc")
	require.NoError(t, err)
	assert.Equal(t, SortPriceHigh, k)

	_, err = ParseSortKey("rating")
	assert.Error(t, err)
}

// ============================================
// Pagination
// ============================================

func TestPaginate_PageSizeAndTotals(t *testing.T) {
	for _, n := range []int{0, 1, 11, 12, 13, 25, 36, 100} {
		items := manyProducts(n)
		pages := TotalPages(n, DefaultPerPage)

		sum := 0
		for pg := 1; pg <= pages; pg++ {
			page := Paginate(items, pg, DefaultPerPage)
			assert.LessOrEqual(t, len(page.Items), DefaultPerPage)
			sum += len(page.Items)
		}
		assert.Equal(t, n, sum, "n=%d", n)
	}
}

func TestPaginate_ClampsPage(t *testing.T) {
	items := manyProducts(30)

	assert.Equal(t, 1, Paginate(items, -4, 12).Number)
	last := Paginate(items, 99, 12)
	assert.Equal(t, 3, last.Number)
	assert.Len(t, last.Items, 6)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrev())

	empty := Paginate([]models.Product{}, 3, 12)
	assert.Equal(t, 1, empty.Number)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Empty(t, empty.Items)
}

// ============================================
// Controller
// ============================================

func TestController_LoadAggregateFansOut(t *testing.T) {
	src := &fakeSource{byCategory: map[string][]models.Product{
		"gaming-consoles": {product("c1", "Sony", "PS5", 499, nil)},
		"gaming-monitors": {product("m1", "LG", "UltraGear 27", 329, map[string]any{"screen_size": "27\""})},
	}}
	c := NewController(src, 12)

	require.NoError(t, c.Load(context.Background(), "gaming"))

	require.Len(t, src.CategoriesCalls, 1)
	assert.Len(t, src.CategoriesCalls[0], 4)
	view := c.View()
	assert.Equal(t, "Gaming", view.Title)
	assert.Equal(t, 2, view.TotalLoaded)
	assert.Equal(t, []string{"27"}, view.Facets.ScreenSizes)
}

func TestController_LoadSingleCategoryUsesSynonym(t *testing.T) {
	src := &fakeSource{byCategory: map[string][]models.Product{}}
	c := NewController(src, 12)

	require.NoError(t, c.Load(context.Background(), "windows"))
	assert.Equal(t, []string{"windows-laptops"}, src.CategoryCalls)
	assert.Equal(t, "windows-laptops", c.View().Category)
}

func TestController_FiltersSortPaginate(t *testing.T) {
	src := &fakeSource{byCategory: map[string][]models.Product{"windows-laptops": manyProducts(40)}}
	c := NewController(src, 12)
	require.NoError(t, c.Load(context.Background(), "windows-laptops"))

	c.Filters().Stage()
	c.Filters().ToggleBrand("dell")
	c.ApplyFilters()
	c.SetSort(SortPriceHigh)

	view := c.View()
	assert.Equal(t, 8, view.Page.TotalItems)
	assert.Equal(t, 1, view.Page.TotalPages)
	assert.Equal(t, 1, view.ActiveFilters)
	for i := 1; i < len(view.Page.Items); i++ {
		prev, _ := view.Page.Items[i-1].LowestPrice()
		cur, _ := view.Page.Items[i].LowestPrice()
		assert.GreaterOrEqual(t, prev, cur)
	}

	c.ClearFilters()
	assert.Equal(t, 4, c.GoTo(10))
	assert.Equal(t, 4, c.Next())
	assert.Equal(t, 3, c.Prev())
}

func TestController_StagedFiltersDoNotAffectView(t *testing.T) {
	src := &fakeSource{byCategory: map[string][]models.Product{"macbooks": manyProducts(10)}}
	c := NewController(src, 12)
	require.NoError(t, c.Load(context.Background(), "macbooks"))

	c.Filters().Stage()
	c.Filters().ToggleBrand("Apple")

	assert.Equal(t, 10, c.View().Page.TotalItems)
	c.Filters().Cancel()
	c.ApplyFilters()
	assert.Equal(t, 10, c.View().Page.TotalItems)
}

func TestController_LoadFailureAndRetry(t *testing.T) {
	src := &fakeSource{err: apperr.TransportError("Unable to load products", 503, errors.New("down"))}
	c := NewController(src, 12)

	assert.ErrorIs(t, c.Retry(context.Background()), ErrNotLoaded)

	err := c.Load(context.Background(), "macbooks")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Transport))
	assert.Empty(t, c.Products())

	src.err = nil
	src.byCategory = map[string][]models.Product{"macbooks": manyProducts(3)}
	require.NoError(t, c.Retry(context.Background()))
	assert.Len(t, c.Products(), 3)
	assert.Equal(t, []string{"macbooks", "macbooks"}, src.CategoryCalls)
}

func TestController_SearchIphoneUnder5000PriceLow(t *testing.T) {
	src := &fakeSource{search: []models.Product{
		product("1", "Apple", "iPhone 15 Pro Max", 7999, nil),
		product("2", "Apple", "iPhone 13", 3999, nil),
		product("3", "Apple", "iPhone SE", 2499, nil),
		product("4", "Apple", "iPhone 15", 4999, nil),
		product("5", "Apple", "iPhone 14 case", 0, nil),
		product("6", "Apple", "iPhone 12 refurbished", 2499, nil),
	}}
	c := NewController(src, 12)
	require.NoError(t, c.Search(context.Background(), "iphone"))

	c.Filters().Stage()
	require.NoError(t, c.Filters().SetPriceRange("0-5000"))
	c.ApplyFilters()
	c.SetSort(SortPriceLow)

	items := c.View().Page.Items
	require.Len(t, items, 4)
	prev := 0.0
	for _, p := range items {
		price, ok := p.LowestPrice()
		require.True(t, ok)
		assert.Less(t, price, 5000.0)
		assert.GreaterOrEqual(t, price, prev)
		prev = price
	}
	assert.Equal(t, `Results for "iphone"`, c.View().Title)
}

func TestController_SearchRejectsEmptyQuery(t *testing.T) {
	c := NewController(&fakeSource{}, 12)
	assert.Error(t, c.Search(context.Background(), "  "))
}

// ============================================
// URL query
// ============================================

func TestQueryFromValues_AndApply(t *testing.T) {
	v, _ := url.ParseQuery("category=windows&brand=dell,hp&brand=lenovo&price=500-1500&sort=price-low&page=2")
	q, err := QueryFromValues(v)
	require.NoError(t, err)

	assert.Equal(t, "windows", q.Category)
	assert.Equal(t, []string{"dell", "hp", "lenovo"}, q.Brands)
	assert.Equal(t, SortPriceLow, q.Sort)
	assert.Equal(t, 2, q.Page)

	src := &fakeSource{byCategory: map[string][]models.Product{"windows-laptops": manyProducts(60)}}
	c := NewController(src, 12)
	require.NoError(t, c.Load(context.Background(), q.Category))
	require.NoError(t, c.ApplyQuery(q))

	view := c.View()
	assert.Equal(t, SortPriceLow, view.Sort)
	assert.Equal(t, 4, view.ActiveFilters)
	for _, p := range view.Page.Items {
		price, _ := p.LowestPrice()
		assert.True(t, price >= 500 && price <= 1500)
	}
}

func TestQueryFromValues_Invalid(t *testing.T) {
	_, err := QueryFromValues(url.Values{"sort": {"random"}})
	assert.Error(t, err)

	_, err = QueryFromValues(url.Values{"price": {"abc"}})
	assert.Error(t, err)
}

func TestController_OpenSearchQuery(t *testing.T) {
	src := &fakeSource{search: manyProducts(30)}
	c := NewController(src, 12)
	v, _ := url.ParseQuery("q=laptop&sort=price-high&page=3")
	q, err := QueryFromValues(v)
	require.NoError(t, err)

	require.NoError(t, c.Open(context.Background(), q))

	view := c.View()
	assert.Equal(t, []string{"laptop"}, src.SearchCalls)
	assert.Empty(t, src.CategoryCalls)
	assert.Equal(t, 3, view.Page.Number)
	assert.Len(t, view.Page.Items, 6)
	assert.Equal(t, SortPriceHigh, view.Sort)
}
