package platform

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"importer/internal/domain"
	"importer/internal/fetch"
)

const toastAPIBase = "https://www.toasttab.com/api/v1/restaurants"

// ToastAdapter pulls structured menus from Toast-hosted ordering pages.
// The ordering page URL carries a restaurant short name; the API maps that
// to a GUID, and the menu endpoint returns a base64-wrapped gzip payload of
// locale-keyed menu data.
type ToastAdapter struct {
	fetcher *fetch.Client
	apiBase string
}

func NewToastAdapter(fetcher *fetch.Client) *ToastAdapter {
	return &ToastAdapter{fetcher: fetcher, apiBase: toastAPIBase}
}

func (a *ToastAdapter) Name() string { return "toast" }

func (a *ToastAdapter) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host == "order.toasttab.com" {
		return true
	}
	return host == "toasttab.com" && strings.HasPrefix(u.Path, "/online/")
}

func (a *ToastAdapter) Fetch(ctx context.Context, rawURL string) (*domain.ParsedMenu, error) {
	shortName := toastShortName(rawURL)
	if shortName == "" {
		return nil, fmt.Errorf("toast: no restaurant name in %s", rawURL)
	}

	guid, err := a.lookupGUID(ctx, shortName)
	if err != nil {
		return nil, err
	}

	menuURL := fmt.Sprintf("%s/%s/menu", a.apiBase, guid)
	resp, err := a.fetcher.Get(ctx, menuURL)
	if err != nil {
		return nil, fmt.Errorf("toast: menu fetch: %w", err)
	}

	var envelope struct {
		Payload string `json:"payload"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("toast: menu envelope: %w", err)
	}
	if envelope.Payload == "" {
		return nil, fmt.Errorf("toast: empty menu payload")
	}

	raw, err := decodePayload(envelope.Payload)
	if err != nil {
		return nil, fmt.Errorf("toast: %w", err)
	}
	return mapToastMenu(raw, []string{rawURL, menuURL})
}

func (a *ToastAdapter) lookupGUID(ctx context.Context, shortName string) (string, error) {
	resp, err := a.fetcher.Get(ctx, fmt.Sprintf("%s/shortname/%s", a.apiBase, url.PathEscape(shortName)))
	if err != nil {
		return "", fmt.Errorf("toast: restaurant lookup: %w", err)
	}
	var info struct {
		RestaurantGUID string `json:"restaurantGuid"`
	}
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return "", fmt.Errorf("toast: restaurant lookup: %w", err)
	}
	if info.RestaurantGUID == "" {
		return "", fmt.Errorf("toast: no guid for %q", shortName)
	}
	return info.RestaurantGUID, nil
}

// toastShortName extracts the restaurant short name from an ordering URL,
// e.g. https://order.toasttab.com/online/the-gilded-fork -> the-gilded-fork.
func toastShortName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "online" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	if len(parts) > 0 && parts[0] != "" && parts[0] != "online" {
		return parts[0]
	}
	return ""
}

// decodePayload unwraps the base64 + gzip envelope around the menu JSON.
func decodePayload(payload string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("payload base64: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("payload gzip: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(io.LimitReader(zr, 20<<20))
	if err != nil {
		return nil, fmt.Errorf("payload gzip: %w", err)
	}
	return raw, nil
}

type toastMenus struct {
	Menus []struct {
		Name   map[string]string `json:"name"`
		Groups []struct {
			Name  map[string]string `json:"name"`
			Items []struct {
				Name        map[string]string `json:"name"`
				Description map[string]string `json:"description"`
				Price       *float64          `json:"price"`
				ImageURL    string            `json:"imageUrl"`
			} `json:"items"`
		} `json:"groups"`
	} `json:"menus"`
}

func mapToastMenu(raw []byte, sourceURLs []string) (*domain.ParsedMenu, error) {
	var decoded toastMenus
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("toast: menu payload: %w", err)
	}

	menu := &domain.ParsedMenu{SourceURLs: sourceURLs}
	for _, m := range decoded.Menus {
		for _, group := range m.Groups {
			name := pickLocale(group.Name)
			if name == "" {
				name = pickLocale(m.Name)
			}
			if name == "" {
				name = "Menu Items"
			}
			var items []domain.ParsedItem
			for _, item := range group.Items {
				itemName := pickLocale(item.Name)
				if itemName == "" {
					continue
				}
				items = append(items, domain.ParsedItem{
					Name:           itemName,
					Description:    pickLocale(item.Description),
					Price:          item.Price,
					SourceImageURL: item.ImageURL,
				})
			}
			if len(items) > 0 {
				menu.Categories = append(menu.Categories, domain.ParsedCategory{Name: name, Items: items})
			}
		}
	}

	if menu.ItemCount() == 0 {
		return nil, fmt.Errorf("toast: no items in menu payload")
	}
	return menu, nil
}

// pickLocale prefers an English locale key, then falls back to the first key
// in sorted order so the choice is deterministic.
func pickLocale(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasPrefix(strings.ToLower(k), "en") && strings.TrimSpace(values[k]) != "" {
			return strings.TrimSpace(values[k])
		}
	}
	for _, k := range keys {
		if strings.TrimSpace(values[k]) != "" {
			return strings.TrimSpace(values[k])
		}
	}
	return ""
}

var _ Adapter = (*ToastAdapter)(nil)
