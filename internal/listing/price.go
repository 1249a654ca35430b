package listing

import (
	"fmt"
	"strconv"
	"strings"
)

// PriceRange is an inclusive price window. An open side has no bound.
type PriceRange struct {
	Min, Max       float64
	HasMin, HasMax bool
}

// ParsePriceRange understands "a-b", "under-X", "over-X" and "X+".
// A range starting at zero is the "under X" sentinel. Empty means no filter.
func ParsePriceRange(s string) (PriceRange, bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "all" || s == "any" {
		return PriceRange{}, false, nil
	}

	switch {
	case strings.HasPrefix(s, "under-"), strings.HasPrefix(s, "under "):
		max, err := parseBound(s[len("under-"):])
		if err != nil {
			return PriceRange{}, false, err
		}
		return PriceRange{Max: max, HasMax: true}, true, nil
	case strings.HasPrefix(s, "over-"), strings.HasPrefix(s, "over "):
		min, err := parseBound(s[len("over-"):])
		if err != nil {
			return PriceRange{}, false, err
		}
		return PriceRange{Min: min, HasMin: true}, true, nil
	case strings.HasSuffix(s, "+"):
		min, err := parseBound(strings.TrimSuffix(s, "+"))
		if err != nil {
			return PriceRange{}, false, err
		}
		return PriceRange{Min: min, HasMin: true}, true, nil
	}

	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return PriceRange{}, false, fmt.Errorf("invalid price range %q", s)
	}
	min, err := parseBound(lo)
	if err != nil {
		return PriceRange{}, false, err
	}
	if hi == "" {
		return PriceRange{Min: min, HasMin: true}, true, nil
	}
	max, err := parseBound(hi)
	if err != nil {
		return PriceRange{}, false, err
	}
	if max < min {
		min, max = max, min
	}
	r := PriceRange{Min: min, Max: max, HasMin: min > 0, HasMax: true}
	return r, true, nil
}

// Contains reports whether price falls inside the range, bounds included.
func (r PriceRange) Contains(price float64) bool {
	if r.HasMin && price < r.Min {
		return false
	}
	if r.HasMax && price > r.Max {
		return false
	}
	return true
}

func (r PriceRange) String() string {
	switch {
	case r.HasMin && r.HasMax:
		return fmt.Sprintf("%g-%g", r.Min, r.Max)
	case r.HasMax:
		return fmt.Sprintf("under-%g", r.Max)
	case r.HasMin:
		return fmt.Sprintf("over-%g", r.Min)
	}
	return ""
}

func parseBound(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid price bound %q", s)
	}
	return f, nil
}
