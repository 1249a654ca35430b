package catalogapi

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lukman83/pricehub/internal/models"
)

// FileSource serves a product dump from disk, for offline use and demos.
type FileSource struct {
	path string

	once     sync.Once
	products []models.Product
	err      error
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) load() ([]models.Product, error) {
	f.once.Do(func() {
		data, err := os.ReadFile(f.path)
		if err != nil {
			f.err = fmt.Errorf("read product file: %w", err)
			return
		}
		f.products, f.err = DecodeProducts(data)
	})
	return f.products, f.err
}

func (f *FileSource) Category(_ context.Context, category string) ([]models.Product, error) {
	all, err := f.load()
	if err != nil {
		return nil, err
	}
	var out []models.Product
	for _, p := range all {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FileSource) Categories(ctx context.Context, categories []string) ([]models.Product, error) {
	var out []models.Product
	for _, c := range categories {
		products, err := f.Category(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, products...)
	}
	return out, nil
}

func (f *FileSource) Search(_ context.Context, query string) ([]models.Product, error) {
	all, err := f.load()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Product
	for _, p := range all {
		hay := strings.ToLower(strings.Join([]string{p.Brand, p.Model, p.Title, p.Description}, " "))
		if q == "" || strings.Contains(hay, q) {
			out = append(out, p)
		}
	}
	return out, nil
}
