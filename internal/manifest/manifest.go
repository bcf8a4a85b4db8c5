// Package manifest serializes an enriched menu into the versioned export
// document that ships inside the result archive.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"importer/internal/domain"
	"importer/internal/slug"
)

// Version identifies the export document format.
const Version = "1.0"

// Manifest is the export document consumed by the downstream menu importer.
type Manifest struct {
	Version       string     `json:"version"`
	ExportedAt    time.Time  `json:"exported_at"`
	MenuName      string     `json:"menu_name"`
	MenuSlug      string     `json:"menu_slug"`
	MenuTheme     string     `json:"menu_theme"`
	MenuIsActive  bool       `json:"menu_is_active"`
	MenuBannerURL *string    `json:"menu_banner_url"`
	MenuLogoURL   *string    `json:"menu_logo_url"`
	Categories    []Category `json:"categories"`
}

// Category holds items in their discovered order.
type Category struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Items []Item `json:"items"`
}

// Item is one dish in the export document.
type Item struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Position    int      `json:"position"`
	IsSoldOut   bool     `json:"is_sold_out"`
	DietaryTags []string `json:"dietary_tags"`
	Allergens   []string `json:"allergens"`
	Photos      []Photo  `json:"photos"`
}

// Photo points at an image inside the archive's images/ folder.
type Photo struct {
	OriginalURL string `json:"original_url"`
	Filename    string `json:"filename"`
}

// Build produces the export document for an enriched menu. It is pure and
// deterministic apart from the export timestamp. When no categories were
// parsed but images exist, a synthetic category with placeholder names is
// emitted so the images are not dropped.
func Build(restaurantName string, menu *domain.ParsedMenu, imageFilenames []string, theme string) *Manifest {
	if theme == "" {
		theme = "classic"
	}

	m := &Manifest{
		Version:      Version,
		ExportedAt:   time.Now().UTC(),
		MenuName:     restaurantName,
		MenuSlug:     slug.Make(restaurantName),
		MenuTheme:    theme,
		MenuIsActive: true,
		Categories:   []Category{},
	}

	if len(menu.Categories) == 0 {
		if len(imageFilenames) > 0 {
			m.Categories = append(m.Categories, syntheticCategory(imageFilenames))
		}
		return m
	}

	for rank, cat := range menu.Categories {
		out := Category{Name: cat.Name, Rank: rank, Items: []Item{}}
		for pos, item := range cat.Items {
			price := 0.0
			if item.Price != nil && *item.Price > 0 {
				price = *item.Price
			}
			exported := Item{
				Name:        item.Name,
				Description: item.Description,
				Price:       price,
				Position:    pos,
				DietaryTags: emptyIfNil(item.DietaryTags),
				Allergens:   emptyIfNil(item.Allergens),
				Photos:      []Photo{},
			}
			if item.ImageFilename != "" {
				exported.Photos = append(exported.Photos, Photo{
					OriginalURL: item.SourceImageURL,
					Filename:    "images/" + item.ImageFilename,
				})
			}
			out.Items = append(out.Items, exported)
		}
		m.Categories = append(m.Categories, out)
	}
	return m
}

// syntheticCategory wraps orphaned images in placeholder items.
func syntheticCategory(imageFilenames []string) Category {
	cat := Category{Name: "Menu Items", Rank: 0, Items: []Item{}}
	for i, filename := range imageFilenames {
		cat.Items = append(cat.Items, Item{
			Name:        fmt.Sprintf("Dish %d", i+1),
			Position:    i,
			DietaryTags: []string{},
			Allergens:   []string{},
			Photos:      []Photo{{Filename: "images/" + filename}},
		})
	}
	return cat
}

// Encode renders the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
