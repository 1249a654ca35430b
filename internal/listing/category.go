package listing

import "strings"

// Aggregate categories are fetched as several sub-categories and merged.
const (
	CategoryLaptops = "laptops"
	CategoryGaming  = "gaming"
)

var categorySynonyms = map[string]string{
	"windows":        "windows-laptops",
	"windows-laptop": "windows-laptops",
	"mac":            "macbooks",
	"macbook":        "macbooks",
	"macbooks":       "macbooks",
	"chromebook":     "chromebooks",
	"gaming-laptop":  "gaming-laptops",
	"monitor":        "gaming-monitors",
	"monitors":       "gaming-monitors",
	"gaming-monitor": "gaming-monitors",
	"console":        "gaming-consoles",
	"consoles":       "gaming-consoles",
	"gaming-console": "gaming-consoles",
	"accessories":    "gaming-accessories",
	"laptop":         CategoryLaptops,
	"all-laptops":    CategoryLaptops,
	"games":          CategoryGaming,
	"gaming-all":     CategoryGaming,
	"phones":         "smartphones",
	"phone":          "smartphones",
	"mobile-phones":  "smartphones",
	"tv":             "televisions",
	"tvs":            "televisions",
}

var aggregates = map[string][]string{
	CategoryLaptops: {"windows-laptops", "macbooks", "chromebooks", "gaming-laptops"},
	CategoryGaming:  {"gaming-consoles", "gaming-laptops", "gaming-monitors", "gaming-accessories"},
}

var categoryTitles = map[string]string{
	CategoryLaptops:      "Laptops",
	CategoryGaming:       "Gaming",
	"windows-laptops":    "Windows Laptops",
	"macbooks":           "MacBooks",
	"chromebooks":        "Chromebooks",
	"gaming-laptops":     "Gaming Laptops",
	"gaming-consoles":    "Gaming Consoles",
	"gaming-monitors":    "Gaming Monitors",
	"gaming-accessories": "Gaming Accessories",
	"smartphones":        "Smartphones",
	"televisions":        "Televisions",
}

// MonitorCategory is the one category that may not share a comparison with others.
const MonitorCategory = "gaming-monitors"

// NormalizeCategory maps URL spellings and synonyms onto catalog slugs.
func NormalizeCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	c = strings.ReplaceAll(c, " ", "-")
	c = strings.ReplaceAll(c, "_", "-")
	if c == "" {
		return CategoryLaptops
	}
	if mapped, ok := categorySynonyms[c]; ok {
		return mapped
	}
	return c
}

// Expand returns the categories to fetch for a normalized category.
func Expand(category string) []string {
	if subs, ok := aggregates[category]; ok {
		return append([]string(nil), subs...)
	}
	return []string{category}
}

// IsAggregate reports whether category is assembled from several fetches.
func IsAggregate(category string) bool {
	_, ok := aggregates[category]
	return ok
}

// Title is the display heading for a category slug.
func Title(category string) string {
	if t, ok := categoryTitles[category]; ok {
		return t
	}
	words := strings.Split(category, "-")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
