package compare

import (
	"fmt"
	"sort"
	"strings"
)

// Row is one attribute across the compared products; Values is index-aligned
// with Table.Products and holds "—" where a product lacks the attribute.
type Row struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

type Table struct {
	Products []string `json:"products"`
	Rows     []Row    `json:"rows"`
}

const missing = "—"

// Table lays the selection out side by side: lowest price and retailer
// first, then the union of spec keys in alphabetical order.
func (s *Selection) Table() Table {
	t := Table{Products: make([]string, len(s.products))}
	keys := make(map[string]bool)
	for i, p := range s.products {
		t.Products[i] = p.DisplayName()
		for k := range p.Specs {
			keys[k] = true
		}
	}

	price := Row{Label: "Lowest price", Values: make([]string, len(s.products))}
	retailer := Row{Label: "Retailer", Values: make([]string, len(s.products))}
	for i, p := range s.products {
		if o, ok := p.LowestOffer(); ok {
			price.Values[i] = fmt.Sprintf("%.2f", o.Price)
			retailer.Values[i] = o.Retailer
		} else {
			price.Values[i] = missing
			retailer.Values[i] = missing
		}
	}
	t.Rows = append(t.Rows, price, retailer)

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		row := Row{Label: specLabel(k), Values: make([]string, len(s.products))}
		for i, p := range s.products {
			if v := p.SpecString(k); v != "" {
				row.Values[i] = v
			} else {
				row.Values[i] = missing
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// specLabel turns "screen_size" into "Screen Size".
func specLabel(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
