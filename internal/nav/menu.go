package nav

import (
	"github.com/lukman83/pricehub/internal/listing"
)

// Item is one entry of the category menu. Sections carry flyout Children.
type Item struct {
	Label    string `json:"label"`
	Slug     string `json:"slug"`
	Path     string `json:"path"`
	Children []Item `json:"children,omitempty"`
}

type Menu struct {
	Sections []Item `json:"sections"`
}

func category(slug string) Item {
	return Item{Label: listing.Title(slug), Slug: slug, Path: "/category?type=" + slug}
}

func aggregate(slug string) Item {
	it := category(slug)
	for _, sub := range listing.Expand(slug) {
		it.Children = append(it.Children, category(sub))
	}
	return it
}

// DefaultMenu is the storefront's category navigation.
func DefaultMenu() Menu {
	return Menu{Sections: []Item{
		aggregate(listing.CategoryLaptops),
		aggregate(listing.CategoryGaming),
		category("smartphones"),
		category("televisions"),
		{Label: "Compare", Slug: "compare", Path: "/compare"},
		{Label: "Local Businesses", Slug: "businesses", Path: "/businesses"},
	}}
}

// Find returns the first item with slug, searching depth first.
func (m Menu) Find(slug string) (Item, bool) {
	path := m.Trail(slug)
	if len(path) == 0 {
		return Item{}, false
	}
	return path[len(path)-1], true
}

// Trail returns the items from the top-level section down to slug, for
// breadcrumbs and highlighting the active flyout.
func (m Menu) Trail(slug string) []Item {
	slug = listing.NormalizeCategory(slug)
	for _, sec := range m.Sections {
		if trail := trail(sec, slug); trail != nil {
			return trail
		}
	}
	return nil
}

func trail(it Item, slug string) []Item {
	if it.Slug == slug {
		return []Item{it}
	}
	for _, child := range it.Children {
		if t := trail(child, slug); t != nil {
			return append([]Item{it}, t...)
		}
	}
	return nil
}
