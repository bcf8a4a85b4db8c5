package platform

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"importer/internal/fetch"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func encodePayload(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("gzip payload: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestToastMatch(t *testing.T) {
	a := NewToastAdapter(nil)
	tests := []struct {
		url  string
		want bool
	}{
		{"https://order.toasttab.com/online/the-gilded-fork", true},
		{"https://www.toasttab.com/online/the-gilded-fork", true},
		{"https://www.toasttab.com/about", false},
		{"https://gildedfork.example/menu", false},
	}
	for _, tt := range tests {
		if got := a.Match(tt.url); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestToastShortName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://order.toasttab.com/online/the-gilded-fork", "the-gilded-fork"},
		{"https://order.toasttab.com/online/the-gilded-fork/v3", "the-gilded-fork"},
		{"https://order.toasttab.com/", ""},
	}
	for _, tt := range tests {
		if got := toastShortName(tt.url); got != tt.want {
			t.Errorf("toastShortName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestToastFetchMapsLocaleKeyedMenu(t *testing.T) {
	payload := encodePayload(t, map[string]any{
		"menus": []map[string]any{{
			"name": map[string]string{"en-US": "Dinner"},
			"groups": []map[string]any{{
				"name": map[string]string{"en-US": "Starters", "es": "Entrantes"},
				"items": []map[string]any{
					{
						"name":        map[string]string{"es": "Rollitos", "en-US": "Spring Rolls"},
						"description": map[string]string{"en-US": "Crispy and fresh"},
						"price":       8.99,
						"imageUrl":    "https://cdn.example/rolls.jpg",
					},
					{
						"name":  map[string]string{"fr": "Soupe du jour"},
						"price": 6.50,
					},
				},
			}},
		}},
	})

	fetcher := fetch.NewClient(fetch.Options{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			switch {
			case strings.HasSuffix(req.URL.Path, "/robots.txt"):
				return jsonResponse(""), nil
			case strings.Contains(req.URL.Path, "/shortname/the-gilded-fork"):
				return jsonResponse(`{"restaurantGuid":"abc-123"}`), nil
			case strings.Contains(req.URL.Path, "/abc-123/menu"):
				body, _ := json.Marshal(map[string]string{"payload": payload})
				return jsonResponse(string(body)), nil
			}
			t.Fatalf("unexpected fetch of %s", req.URL)
			return nil, nil
		})},
		Logger: zerolog.New(io.Discard),
	})

	a := NewToastAdapter(fetcher)
	menu, err := a.Fetch(context.Background(), "https://order.toasttab.com/online/the-gilded-fork")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(menu.Categories) != 1 {
		t.Fatalf("got %d categories, want 1", len(menu.Categories))
	}
	cat := menu.Categories[0]
	if cat.Name != "Starters" {
		t.Errorf("category = %q, want English locale value", cat.Name)
	}
	if len(cat.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(cat.Items))
	}
	if cat.Items[0].Name != "Spring Rolls" {
		t.Errorf("item name = %q, want English locale value", cat.Items[0].Name)
	}
	if cat.Items[0].Description != "Crispy and fresh" {
		t.Errorf("description = %q", cat.Items[0].Description)
	}
	if cat.Items[0].Price == nil || *cat.Items[0].Price != 8.99 {
		t.Errorf("price = %v", cat.Items[0].Price)
	}
	if cat.Items[0].SourceImageURL != "https://cdn.example/rolls.jpg" {
		t.Errorf("image url = %q", cat.Items[0].SourceImageURL)
	}
	if cat.Items[1].Name != "Soupe du jour" {
		t.Errorf("fallback locale item = %q", cat.Items[1].Name)
	}
}

func TestPickLocale(t *testing.T) {
	tests := []struct {
		values map[string]string
		want   string
	}{
		{map[string]string{"en-US": "Salad", "es": "Ensalada"}, "Salad"},
		{map[string]string{"fr": "Salade"}, "Salade"},
		{map[string]string{}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := pickLocale(tt.values); got != tt.want {
			t.Errorf("pickLocale(%v) = %q, want %q", tt.values, got, tt.want)
		}
	}
}
