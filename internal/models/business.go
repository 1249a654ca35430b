package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

type Business struct {
	ID          string    `json:"businessId"`
	OwnerID     string    `json:"ownerId,omitempty"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Website     string    `json:"website,omitempty"`
	LogoURL     string    `json:"logoUrl,omitempty"`
	Verified    bool      `json:"verified,omitempty"`
	Galleries   []Gallery `json:"galleries,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Gallery is one named service gallery of a business.
type Gallery struct {
	Name        string   `json:"name"`
	Images      []string `json:"images"`
	Description string   `json:"description,omitempty"`
}

const galleryDescriptionSuffix = "_description"

// ParseGalleries turns the serviceGalleries map, where each gallery's description
// lives in a sibling "<name>_description" key, into galleries ordered by name.
func ParseGalleries(raw map[string]json.RawMessage) []Gallery {
	descs := make(map[string]string)
	images := make(map[string][]string)
	for key, val := range raw {
		if name, ok := strings.CutSuffix(key, galleryDescriptionSuffix); ok {
			var d string
			if json.Unmarshal(val, &d) == nil {
				descs[name] = d
			}
			continue
		}
		var imgs []string
		if json.Unmarshal(val, &imgs) == nil {
			images[key] = imgs
		}
	}

	out := make([]Gallery, 0, len(images))
	for name, imgs := range images {
		out = append(out, Gallery{Name: name, Images: imgs, Description: descs[name]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type Review struct {
	ID           string    `json:"id"`
	BusinessID   string    `json:"businessId"`
	AuthorID     string    `json:"userId"`
	AuthorName   string    `json:"userName,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	HelpfulCount int       `json:"helpfulCount"`
	IsAuthor     bool      `json:"isAuthor"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ReviewStats struct {
	Average      float64     `json:"averageRating"`
	Total        int         `json:"totalReviews"`
	Distribution map[int]int `json:"distribution,omitempty"`
}

// Reaction is the like state of one gallery.
type Reaction struct {
	Gallery string `json:"gallery"`
	Likes   int    `json:"likes"`
	Liked   bool   `json:"userLiked"`
}
