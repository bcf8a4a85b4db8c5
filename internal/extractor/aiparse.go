package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"importer/internal/domain"
	"importer/internal/providers/genai"
)

// maxParseChars caps how much raw text is handed to the completion provider.
const maxParseChars = 8000

const parsePromptTemplate = `You are given raw text scraped from a restaurant website or menu document.
Extract the menu as JSON with this exact shape:

{"categories": [{"name": "...", "items": [{"name": "...", "description": "...", "price": 12.50}]}]}

Rules:
- "price" is a number or null when no price is shown.
- "description" is "" when there is none.
- Skip navigation text, addresses, opening hours, and anything that is not a menu item.
- Do not invent items that are not in the text.

Text:
%s`

// parseWithAI asks the completion provider to structure the raw menu text.
// Any malformed or empty response is returned as an error so the caller can
// fall back to the heuristic parser.
func parseWithAI(ctx context.Context, completer genai.Completer, text string) (*domain.ParsedMenu, error) {
	if completer == nil {
		return nil, fmt.Errorf("parse: no completion provider configured")
	}

	if len(text) > maxParseChars {
		text = text[:maxParseChars]
	}

	raw, err := completer.Complete(ctx, genai.Request{
		Prompt:   fmt.Sprintf(parsePromptTemplate, text),
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var decoded struct {
		Categories []struct {
			Name  string `json:"name"`
			Items []struct {
				Name        string   `json:"name"`
				Description string   `json:"description"`
				Price       *float64 `json:"price"`
			} `json:"items"`
		} `json:"categories"`
	}
	if err := json.Unmarshal([]byte(genai.StripCodeFence(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("parse: bad response: %w", err)
	}

	menu := &domain.ParsedMenu{RawText: text}
	for _, cat := range decoded.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			name = "Menu Items"
		}
		var items []domain.ParsedItem
		for _, item := range cat.Items {
			itemName := strings.TrimSpace(item.Name)
			if itemName == "" {
				continue
			}
			items = append(items, domain.ParsedItem{
				Name:        itemName,
				Description: strings.TrimSpace(item.Description),
				Price:       item.Price,
			})
		}
		if len(items) > 0 {
			menu.Categories = append(menu.Categories, domain.ParsedCategory{Name: name, Items: items})
		}
	}

	if menu.ItemCount() == 0 {
		return nil, fmt.Errorf("parse: no items in response")
	}
	return menu, nil
}
