package listing

import (
	"strings"

	"github.com/lukman83/pricehub/internal/models"
)

var processorFields = []string{"processor", "cpu", "chip", "chipset", "processor_type"}

var screenFields = []string{"display", "screen_size", "screen", "size", "display_size"}

// KnownProcessors and KnownScreenSizes seed the facet lists; only tokens that
// match at least one loaded product are offered.
var KnownProcessors = []string{
	"Intel Core i3", "Intel Core i5", "Intel Core i7", "Intel Core i9",
	"Intel Core Ultra", "Intel Celeron", "Intel Pentium",
	"AMD Ryzen 3", "AMD Ryzen 5", "AMD Ryzen 7", "AMD Ryzen 9",
	"Apple M1", "Apple M2", "Apple M3", "Apple M4",
	"MediaTek", "Snapdragon",
}

var KnownScreenSizes = []string{
	"11.6", "13.3", "13.6", "14", "15.3", "15.6", "16", "17.3", "24", "27", "32",
}

// processorAliases lets shorthand tokens find their long spellings and back.
var processorAliases = map[string][]string{
	"intel core i3": {"i3"},
	"intel core i5": {"i5"},
	"intel core i7": {"i7"},
	"intel core i9": {"i9"},
	"amd ryzen 3":   {"ryzen 3"},
	"amd ryzen 5":   {"ryzen 5"},
	"amd ryzen 7":   {"ryzen 7"},
	"amd ryzen 9":   {"ryzen 9"},
	"apple m1":      {"m1"},
	"apple m2":      {"m2"},
	"apple m3":      {"m3"},
	"apple m4":      {"m4"},
}

// MatchBrand is a case-insensitive substring match on the product brand.
func MatchBrand(p models.Product, brand string) bool {
	b := strings.ToLower(strings.TrimSpace(brand))
	if b == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Brand), b)
}

// MatchProcessor checks several spec fields plus title and description. A
// variant only matches as whole words, so "ram 1tb" never reads as "m1".
func MatchProcessor(p models.Product, token string) bool {
	hay := normalize(haystack(p, processorFields))
	for _, variant := range processorVariants(token) {
		v := normalize(variant)
		if v == "" {
			continue
		}
		if containsWords(hay, v) {
			return true
		}
		// "ryzen 7" also matches "ryzen7"
		if joined := strings.ReplaceAll(v, " ", ""); joined != v && containsWords(hay, joined) {
			return true
		}
	}
	return false
}

// MatchScreenSize matches a size token as a whole number, so "14" does not
// hit "1440p" or "i7-1455U".
func MatchScreenSize(p models.Product, token string) bool {
	size := squash(strings.NewReplacer("inches", "", "inch", "", "\"", "", "”", "").Replace(strings.ToLower(token)))
	if size == "" {
		return false
	}
	return containsNumber(normalize(haystack(p, screenFields)), size)
}

func processorVariants(token string) []string {
	t := strings.ToLower(strings.TrimSpace(token))
	variants := []string{t}
	if aliases, ok := processorAliases[t]; ok {
		variants = append(variants, aliases...)
	}
	// "core i7" → "i7", "ryzen7" stays as is after squashing
	if strings.HasPrefix(t, "core ") {
		variants = append(variants, strings.TrimPrefix(t, "core "))
	}
	return variants
}

func haystack(p models.Product, fields []string) string {
	parts := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		if v := p.SpecString(f); v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, p.Title, p.Model, p.Description)
	return strings.ToLower(strings.Join(parts, " | "))
}

// squash lowercases and drops separators: "15.6\"" → "15.6".
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalize lowercases and turns every run of separators into one space:
// "Core i7-1255U | 8GB RAM" → "core i7 1255u 8gb ram".
func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if !isWordRune(r) {
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.'
}

// containsWords reports whether words occurs in hay starting and ending on
// word boundaries. A trailing full stop counts as a boundary.
func containsWords(hay, words string) bool {
	for i := 0; ; {
		j := strings.Index(hay[i:], words)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(words)
		before := start == 0 || hay[start-1] == ' '
		after := end == len(hay) || hay[end] == ' ' ||
			hay[end] == '.' && (end+1 == len(hay) || !isDigit(hay[end+1]))
		if before && after {
			return true
		}
		i = start + 1
	}
}

func containsNumber(hay, num string) bool {
	for i := 0; ; {
		j := strings.Index(hay[i:], num)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(num)
		before := start == 0 || !isNumeric(hay[start-1])
		after := end == len(hay) || !isDigit(hay[end]) && !(hay[end] == '.' && end+1 < len(hay) && isDigit(hay[end+1]))
		if before && after {
			return true
		}
		i = start + 1
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNumeric(c byte) bool { return isDigit(c) || c == '.' }
