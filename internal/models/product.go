package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Offer is a single retailer's price and link for a product.
type Offer struct {
	Retailer string  `json:"retailer"`
	Price    float64 `json:"price"`
	URL      string  `json:"url,omitempty"`
}

// Product is the canonical catalog product. Catalog responses disagree on field
// names across categories; UnmarshalJSON folds the variants into this shape so
// nothing downstream repeats the fallback chains.
type Product struct {
	ID          string         `json:"id"`
	Brand       string         `json:"brand"`
	Model       string         `json:"model,omitempty"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Description string         `json:"description,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	Specs       map[string]any `json:"specs,omitempty"`
	Offers      []Offer        `json:"offers,omitempty"`
}

// LowestPrice returns the cheapest offer price.
func (p Product) LowestPrice() (float64, bool) {
	found := false
	var low float64
	for _, o := range p.Offers {
		if o.Price <= 0 {
			continue
		}
		if !found || o.Price < low {
			low = o.Price
			found = true
		}
	}
	return low, found
}

// LowestOffer returns the offer with the lowest price, if any.
func (p Product) LowestOffer() (Offer, bool) {
	low, ok := p.LowestPrice()
	if !ok {
		return Offer{}, false
	}
	for _, o := range p.Offers {
		if o.Price == low {
			return o, true
		}
	}
	return Offer{}, false
}

// DisplayName is "Brand Model" when a model is known, else the title.
func (p Product) DisplayName() string {
	if p.Model != "" {
		if p.Brand != "" && !strings.HasPrefix(strings.ToLower(p.Model), strings.ToLower(p.Brand)) {
			return p.Brand + " " + p.Model
		}
		return p.Model
	}
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}

// SpecString returns a spec value rendered as text, or "" if absent.
func (p Product) SpecString(key string) string {
	v, ok := p.Specs[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode product: %w", err)
	}

	*p = Product{
		ID:          firstString(raw, "product_id", "id", "productId"),
		Brand:       firstString(raw, "brand", "manufacturer"),
		Model:       firstString(raw, "model"),
		Title:       firstString(raw, "title", "name", "product_name"),
		Category:    firstString(raw, "category", "category_slug"),
		Description: firstString(raw, "description", "summary"),
		ImageURL:    firstString(raw, "image_url", "imageUrl", "image"),
	}
	if p.Title == "" {
		p.Title = strings.TrimSpace(p.Brand + " " + p.Model)
	}
	if specs, ok := raw["specs"].(map[string]any); ok {
		p.Specs = specs
	}

	if offers, ok := raw["offers"].([]any); ok {
		for _, o := range offers {
			m, ok := o.(map[string]any)
			if !ok {
				continue
			}
			price, ok := ParsePrice(m["price"])
			if !ok {
				continue
			}
			p.Offers = append(p.Offers, Offer{
				Retailer: firstString(m, "retailer", "store", "retailer_name", "shop"),
				Price:    price,
				URL:      firstString(m, "url", "link"),
			})
		}
	}
	// Some categories carry a bare price instead of an offers list.
	if len(p.Offers) == 0 {
		if price, ok := ParsePrice(raw["price"]); ok {
			p.Offers = []Offer{{Retailer: firstString(raw, "retailer", "store"), Price: price, URL: firstString(raw, "url", "link")}}
		}
	}
	return nil
}

// ParsePrice accepts numbers and price strings such as "KSh 1,299.00".
func ParsePrice(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, t > 0
	case int:
		return float64(t), t > 0
	case int64:
		return float64(t), t > 0
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && f > 0
	case string:
		var b strings.Builder
		for _, r := range t {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		f, err := strconv.ParseFloat(strings.Trim(b.String(), "."), 64)
		return f, err == nil && f > 0
	}
	return 0, false
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
