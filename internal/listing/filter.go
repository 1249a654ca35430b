package listing

import (
	"sort"
	"strings"

	"github.com/lukman83/pricehub/internal/models"
)

// FilterState is one set of filter selections. Tokens within a dimension are
// OR-ed together; dimensions are AND-ed.
type FilterState struct {
	Brands      map[string]bool
	Processors  map[string]bool
	ScreenSizes map[string]bool
	PriceRange  string
}

func NewFilterState() FilterState {
	return FilterState{
		Brands:      make(map[string]bool),
		Processors:  make(map[string]bool),
		ScreenSizes: make(map[string]bool),
	}
}

func (s FilterState) Clone() FilterState {
	c := NewFilterState()
	for k := range s.Brands {
		c.Brands[k] = true
	}
	for k := range s.Processors {
		c.Processors[k] = true
	}
	for k := range s.ScreenSizes {
		c.ScreenSizes[k] = true
	}
	c.PriceRange = s.PriceRange
	return c
}

func (s FilterState) IsEmpty() bool {
	return len(s.Brands) == 0 && len(s.Processors) == 0 && len(s.ScreenSizes) == 0 && s.PriceRange == ""
}

// Count is the number of active selections, shown on the filter button.
func (s FilterState) Count() int {
	n := len(s.Brands) + len(s.Processors) + len(s.ScreenSizes)
	if s.PriceRange != "" {
		n++
	}
	return n
}

// Match applies every active predicate. A malformed price range is ignored.
func (s FilterState) Match(p models.Product) bool {
	if len(s.Brands) > 0 && !anyToken(s.Brands, func(t string) bool { return MatchBrand(p, t) }) {
		return false
	}
	if len(s.Processors) > 0 && !anyToken(s.Processors, func(t string) bool { return MatchProcessor(p, t) }) {
		return false
	}
	if len(s.ScreenSizes) > 0 && !anyToken(s.ScreenSizes, func(t string) bool { return MatchScreenSize(p, t) }) {
		return false
	}
	if r, ok, err := ParsePriceRange(s.PriceRange); err == nil && ok {
		price, priced := p.LowestPrice()
		if !priced || !r.Contains(price) {
			return false
		}
	}
	return true
}

// Apply returns the products that pass the filters, preserving order.
func (s FilterState) Apply(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if s.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Sorted lists the selected tokens of a dimension for display.
func Sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func anyToken(set map[string]bool, fn func(string) bool) bool {
	for t := range set {
		if fn(t) {
			return true
		}
	}
	return false
}

// Filters holds the committed selections and a temp copy edited in the filter
// panel. The committed copy only changes on Apply or Clear.
type Filters struct {
	committed FilterState
	temp      FilterState
}

func NewFilters() *Filters {
	return &Filters{committed: NewFilterState(), temp: NewFilterState()}
}

// Stage starts an edit session from the committed state.
func (f *Filters) Stage() {
	f.temp = f.committed.Clone()
}

func (f *Filters) ToggleBrand(brand string) bool {
	return toggle(f.temp.Brands, brand)
}

func (f *Filters) ToggleProcessor(token string) bool {
	return toggle(f.temp.Processors, token)
}

func (f *Filters) ToggleScreenSize(token string) bool {
	return toggle(f.temp.ScreenSizes, token)
}

// SetPriceRange selects a single range; "" clears it.
func (f *Filters) SetPriceRange(r string) error {
	r = strings.TrimSpace(r)
	if _, _, err := ParsePriceRange(r); err != nil {
		return err
	}
	f.temp.PriceRange = r
	return nil
}

// Apply commits the temp copy.
func (f *Filters) Apply() {
	f.committed = f.temp.Clone()
}

// Cancel discards staged edits.
func (f *Filters) Cancel() {
	f.temp = f.committed.Clone()
}

// Clear empties both copies.
func (f *Filters) Clear() {
	f.committed = NewFilterState()
	f.temp = NewFilterState()
}

func (f *Filters) Committed() FilterState { return f.committed.Clone() }

func (f *Filters) Temp() FilterState { return f.temp.Clone() }

// toggle flips token in set and reports whether it is now selected.
func toggle(set map[string]bool, token string) bool {
	t := strings.TrimSpace(token)
	if t == "" {
		return false
	}
	if set[t] {
		delete(set, t)
		return false
	}
	set[t] = true
	return true
}
