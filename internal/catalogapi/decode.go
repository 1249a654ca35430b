package catalogapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lukman83/pricehub/internal/models"
	"golang.org/x/net/html"
)

// DecodeProducts accepts a bare array or an object wrapping it under
// "products", "data" or "results", and normalizes every entry.
func DecodeProducts(data []byte) ([]models.Product, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var products []models.Product
	if data[0] == '[' {
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("decode product list: %w", err)
		}
	} else {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("decode product envelope: %w", err)
		}
		for _, key := range []string{"products", "data", "results"} {
			raw, ok := envelope[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &products); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
			break
		}
	}

	out := products[:0]
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if strings.ContainsRune(p.Description, '<') {
			p.Description = htmlToText(p.Description)
		}
		out = append(out, p)
	}
	return out, nil
}

// htmlToText flattens an HTML fragment to whitespace-separated text.
func htmlToText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " ")
}
