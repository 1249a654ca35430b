package compare

import (
	"context"
	"strings"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/listing"
	"github.com/lukman83/pricehub/internal/models"
)

// DefaultCategories are searched when a lookup names none.
var DefaultCategories = []string{listing.CategoryLaptops, listing.CategoryGaming}

// Lookup resolves product ids against the given categories, returning the
// products in the order the ids were given.
func Lookup(ctx context.Context, source catalog.Source, categories, ids []string) ([]models.Product, error) {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	seen := make(map[string]bool)
	var fetch []string
	for _, raw := range categories {
		for _, sub := range listing.Expand(listing.NormalizeCategory(raw)) {
			if !seen[sub] {
				seen[sub] = true
				fetch = append(fetch, sub)
			}
		}
	}

	all, err := source.Categories(ctx, fetch)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Product, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}

	out := make([]models.Product, 0, len(ids))
	var missing []string
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return out, apperr.ValidationError("NOT_FOUND", "Products not found: "+strings.Join(missing, ", "))
	}
	return out, nil
}
