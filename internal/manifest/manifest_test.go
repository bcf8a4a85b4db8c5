package manifest

import (
	"encoding/json"
	"fmt"
	"testing"

	"importer/internal/domain"
)

func price(v float64) *float64 { return &v }

func TestBuildRoundTrip(t *testing.T) {
	menu := &domain.ParsedMenu{
		Categories: []domain.ParsedCategory{
			{Name: "Starters", Items: []domain.ParsedItem{
				{Name: "Spring Rolls", Price: price(8.99), ImageFilename: "dish_001.jpg", SourceImageURL: "https://x.example/rolls.jpg"},
				{Name: "Soup"},
			}},
			{Name: "Mains", Items: []domain.ParsedItem{
				{Name: "Pad Thai", Price: price(12.50), DietaryTags: []string{"Spicy"}},
			}},
		},
	}

	raw, err := Build("The Gilded Fork", menu, []string{"dish_001.jpg"}, "").Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded Manifest
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Version != Version {
		t.Errorf("version = %q", decoded.Version)
	}
	if decoded.MenuSlug != "the-gilded-fork" {
		t.Errorf("slug = %q", decoded.MenuSlug)
	}
	if !decoded.MenuIsActive {
		t.Error("menu should be active")
	}
	if decoded.MenuBannerURL != nil {
		t.Errorf("banner url = %v, want null", decoded.MenuBannerURL)
	}
	if len(decoded.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(decoded.Categories))
	}
	for rank, cat := range decoded.Categories {
		if cat.Rank != rank {
			t.Errorf("category %q rank = %d, want %d", cat.Name, cat.Rank, rank)
		}
		for pos, item := range cat.Items {
			if item.Position != pos {
				t.Errorf("item %q position = %d, want %d", item.Name, item.Position, pos)
			}
			if item.IsSoldOut {
				t.Errorf("item %q marked sold out on fresh import", item.Name)
			}
		}
	}

	rolls := decoded.Categories[0].Items[0]
	if len(rolls.Photos) != 1 || rolls.Photos[0].Filename != "images/dish_001.jpg" {
		t.Errorf("photos = %+v", rolls.Photos)
	}
	if rolls.Photos[0].OriginalURL != "https://x.example/rolls.jpg" {
		t.Errorf("original_url = %q", rolls.Photos[0].OriginalURL)
	}

	soup := decoded.Categories[0].Items[1]
	if soup.Price != 0 {
		t.Errorf("unpriced item price = %v, want 0", soup.Price)
	}
	if soup.Photos == nil || len(soup.Photos) != 0 {
		t.Errorf("photos = %+v, want empty list", soup.Photos)
	}
}

func TestBuildSyntheticCategory(t *testing.T) {
	m := Build("Bistro", &domain.ParsedMenu{}, []string{"dish_001.jpg", "dish_002.jpg"}, "")

	if len(m.Categories) != 1 {
		t.Fatalf("got %d categories, want 1", len(m.Categories))
	}
	cat := m.Categories[0]
	if cat.Name != "Menu Items" {
		t.Errorf("category = %q", cat.Name)
	}
	if len(cat.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(cat.Items))
	}
	for i, item := range cat.Items {
		if want := fmt.Sprintf("Dish %d", i+1); item.Name != want {
			t.Errorf("item name = %q, want %q", item.Name, want)
		}
		if want := fmt.Sprintf("images/dish_%03d.jpg", i+1); item.Photos[0].Filename != want {
			t.Errorf("photo = %q, want %q", item.Photos[0].Filename, want)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	m := Build("Bistro", &domain.ParsedMenu{}, nil, "premium")

	if len(m.Categories) != 0 {
		t.Fatalf("got %d categories, want 0", len(m.Categories))
	}
	if m.MenuTheme != "premium" {
		t.Errorf("theme = %q", m.MenuTheme)
	}

	raw, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded struct {
		Categories []json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Categories == nil {
		t.Error("categories should encode as [], not null")
	}
}
