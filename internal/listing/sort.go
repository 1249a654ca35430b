package listing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lukman83/pricehub/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortName      SortKey = "name"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
)

// ParseSortKey accepts the sort dropdown values; "" is relevance.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortRelevance, nil
	case SortRelevance, SortName, SortPriceLow, SortPriceHigh:
		return k, nil
	case "price-asc", "price_low":
		return SortPriceLow, nil
	case "price-desc", "price_high":
		return SortPriceHigh, nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

// Sort returns a sorted copy. Products without a price sort after priced
// ones for both price orders.
func Sort(products []models.Product, key SortKey) []models.Product {
	out := append([]models.Product(nil), products...)
	col := collate.New(language.English, collate.IgnoreCase, collate.Numeric)

	switch key {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].DisplayName(), out[j].DisplayName()) < 0
		})
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool {
			return priceLess(out[i], out[j], false)
		})
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool {
			return priceLess(out[i], out[j], true)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if c := col.CompareString(out[i].Brand, out[j].Brand); c != 0 {
				return c < 0
			}
			return priceLess(out[i], out[j], false)
		})
	}
	return out
}

func priceLess(a, b models.Product, desc bool) bool {
	pa, okA := a.LowestPrice()
	pb, okB := b.LowestPrice()
	switch {
	case okA && !okB:
		return true
	case !okA:
		return false
	case desc:
		return pa > pb
	default:
		return pa < pb
	}
}
