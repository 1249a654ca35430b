package catalog

import (
	"context"

	"github.com/lukman83/pricehub/internal/models"
)

// Source fetches product lists from a catalog backend.
type Source interface {
	Name() string
	// Category returns every product in a single category.
	Category(ctx context.Context, category string) ([]models.Product, error)
	// Categories fetches several categories and concatenates the results.
	// A failing sub-category is skipped; only an all-fail is an error.
	Categories(ctx context.Context, categories []string) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
}
