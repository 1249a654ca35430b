package catalogapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/httputil"
	"github.com/lukman83/pricehub/internal/models"
	"golang.org/x/sync/errgroup"
)

const productsPath = "/data/products"

// APISource implements catalog.Source against the catalog REST API.
type APISource struct {
	client        *http.Client
	baseURL       string
	maxConcurrent int
}

// NewAPISource creates a catalog client rooted at baseURL.
func NewAPISource(client *http.Client, baseURL string, maxConcurrent int) *APISource {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &APISource{
		client:        client,
		baseURL:       strings.TrimRight(baseURL, "/"),
		maxConcurrent: maxConcurrent,
	}
}

func (a *APISource) Name() string { return "api" }

func (a *APISource) Category(ctx context.Context, category string) ([]models.Product, error) {
	params := url.Values{}
	params.Set("category", category)
	products, err := a.fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("load category %s: %w", category, err)
	}
	return products, nil
}

func (a *APISource) Search(ctx context.Context, query string) ([]models.Product, error) {
	params := url.Values{}
	params.Set("search", query)
	products, err := a.fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return products, nil
}

// Categories fetches sub-categories concurrently. Results are appended in
// completion order, so the merged order is not stable across calls.
func (a *APISource) Categories(ctx context.Context, categories []string) ([]models.Product, error) {
	if len(categories) == 1 {
		return a.Category(ctx, categories[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)

	var (
		mu       sync.Mutex
		merged   []models.Product
		failures int
		lastErr  error
	)
	for _, cat := range categories {
		g.Go(func() error {
			products, err := a.Category(gctx, cat)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One missing sub-category should not blank the whole page.
				log.Printf("[catalog] skipping %s: %v", cat, err)
				failures++
				lastErr = err
				return nil
			}
			merged = append(merged, products...)
			catalog.Progressf(ctx, "Loaded %d products from %s", len(products), cat)
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(categories) {
		return nil, apperr.TransportError("Unable to load products", 0, lastErr)
	}
	return merged, nil
}

func (a *APISource) fetch(ctx context.Context, params url.Values) ([]models.Product, error) {
	endpoint := a.baseURL + productsPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.JSONHeaders() {
		req.Header[k] = v
	}

	body, err := httputil.Do(a.client, req)
	if err != nil {
		return nil, err
	}
	products, err := DecodeProducts(body)
	if err != nil {
		return nil, apperr.TransportError("unexpected catalog response", http.StatusOK, err)
	}
	return products, nil
}
