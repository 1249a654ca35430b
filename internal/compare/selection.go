package compare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lukman83/pricehub/internal/listing"
	"github.com/lukman83/pricehub/internal/models"
)

// MaxProducts is the number of comparison slots.
const MaxProducts = 3

var (
	ErrDuplicate       = errors.New("product already in comparison")
	ErrFull            = errors.New("comparison is full")
	ErrMixedCategories = errors.New("gaming monitors compare only with gaming monitors")
)

var toasts = map[error]string{
	ErrDuplicate:       "This product is already in your comparison",
	ErrFull:            fmt.Sprintf("You can compare up to %d products. Remove one to add another", MaxProducts),
	ErrMixedCategories: "Gaming monitors can only be compared with other gaming monitors",
}

// Message returns the toast text for an error from Add.
func Message(err error) string {
	for sentinel, text := range toasts {
		if errors.Is(err, sentinel) {
			return text
		}
	}
	return err.Error()
}

// Selection is the ordered list of products being compared. Rejected adds
// leave it untouched.
type Selection struct {
	products []models.Product
}

func NewSelection() *Selection {
	return &Selection{}
}

func (s *Selection) Add(p models.Product) error {
	for _, existing := range s.products {
		if existing.ID == p.ID {
			return ErrDuplicate
		}
	}
	if len(s.products) >= MaxProducts {
		return ErrFull
	}
	if len(s.products) > 0 && isMonitor(s.products[0]) != isMonitor(p) {
		return ErrMixedCategories
	}
	s.products = append(s.products, p)
	return nil
}

// Remove drops the product with id and reports whether it was present.
func (s *Selection) Remove(id string) bool {
	kept := s.products[:0]
	removed := false
	for _, p := range s.products {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	s.products = kept
	return removed
}

func (s *Selection) Clear() {
	s.products = nil
}

func (s *Selection) Len() int { return len(s.products) }

func (s *Selection) Contains(id string) bool {
	for _, p := range s.products {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Selection) Products() []models.Product {
	return append([]models.Product(nil), s.products...)
}

// Breadcrumb summarizes the selection: "A", "A vs B" or "A vs B vs C".
func (s *Selection) Breadcrumb() string {
	if len(s.products) == 0 {
		return "Compare Products"
	}
	names := make([]string, len(s.products))
	for i, p := range s.products {
		names[i] = p.DisplayName()
	}
	return strings.Join(names, " vs ")
}

func isMonitor(p models.Product) bool {
	return listing.NormalizeCategory(p.Category) == listing.MonitorCategory
}
