package listing

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Query is the listing state carried in page URL parameters.
type Query struct {
	Category    string
	Search      string
	Brands      []string
	Processors  []string
	ScreenSizes []string
	PriceRange  string
	Sort        SortKey
	Page        int
}

// QueryFromValues reads category/q/brand/processor/screen/price/sort/page.
// Multi-valued parameters may repeat or be comma separated.
func QueryFromValues(v url.Values) (Query, error) {
	q := Query{
		Category:    firstNonEmpty(v.Get("category"), v.Get("type")),
		Search:      strings.TrimSpace(firstNonEmpty(v.Get("q"), v.Get("query"), v.Get("search"))),
		Brands:      splitValues(v["brand"]),
		Processors:  splitValues(v["processor"]),
		ScreenSizes: splitValues(v["screen"]),
		PriceRange:  strings.TrimSpace(v.Get("price")),
		Page:        1,
	}
	sortKey, err := ParseSortKey(v.Get("sort"))
	if err != nil {
		return Query{}, err
	}
	q.Sort = sortKey
	if _, _, err := ParsePriceRange(q.PriceRange); err != nil {
		return Query{}, err
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil {
		q.Page = n
	}
	return q, nil
}

// ApplyQuery replaces the filters with the query's, commits them and applies
// its sort and page. Loading is left to Load or Search.
func (c *Controller) ApplyQuery(q Query) error {
	c.filters.Clear()
	for _, b := range q.Brands {
		c.filters.ToggleBrand(b)
	}
	for _, p := range q.Processors {
		c.filters.ToggleProcessor(p)
	}
	for _, s := range q.ScreenSizes {
		c.filters.ToggleScreenSize(s)
	}
	if err := c.filters.SetPriceRange(q.PriceRange); err != nil {
		c.filters.Cancel()
		return err
	}
	c.ApplyFilters()
	c.SetSort(q.Sort)
	c.GoTo(q.Page)
	return nil
}

// Open loads the query's search or category and then applies the rest of it.
func (c *Controller) Open(ctx context.Context, q Query) error {
	var err error
	if q.Search != "" {
		err = c.Search(ctx, q.Search)
	} else {
		err = c.Load(ctx, q.Category)
	}
	if err != nil {
		return err
	}
	return c.ApplyQuery(q)
}

func splitValues(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
