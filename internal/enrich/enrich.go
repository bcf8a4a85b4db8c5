// Package enrich fills in dietary tags, allergens, and missing descriptions
// on parsed menu items using a completion provider.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"importer/internal/domain"
	"importer/internal/providers/genai"
)

const enrichPromptTemplate = `You are labeling a restaurant menu item.

Item name: %s
Description: %s
Category: %s

Return JSON with this exact shape:
{"dietary_tags": [...], "allergens": [...], "description": "..."}

- "dietary_tags" may only contain: %s
- "allergens" may only contain: %s
- "description" is a short appetizing one-sentence description. Only write one
  if the item has no description; otherwise return "".
- Only include tags and allergens you are reasonably sure about from the name
  and description. Empty lists are fine.`

// Enricher annotates menu items. A nil completer turns enrichment into a
// logged no-op so imports still succeed without an AI provider.
type Enricher struct {
	completer genai.Completer
	logger    zerolog.Logger
}

func New(completer genai.Completer, logger zerolog.Logger) *Enricher {
	return &Enricher{completer: completer, logger: logger}
}

// Enrich annotates every item in place. Individual item failures are logged
// and skipped; the menu is never left worse than it started.
func (e *Enricher) Enrich(ctx context.Context, menu *domain.ParsedMenu) {
	if e.completer == nil {
		e.logger.Info().Msg("enrich: no completion provider configured, skipping")
		return
	}

	for ci := range menu.Categories {
		cat := &menu.Categories[ci]
		for ii := range cat.Items {
			if ctx.Err() != nil {
				return
			}
			if err := e.enrichItem(ctx, &cat.Items[ii], cat.Name); err != nil {
				e.logger.Warn().Err(err).Str("item", cat.Items[ii].Name).Msg("enrich: item failed")
			}
		}
	}
}

func (e *Enricher) enrichItem(ctx context.Context, item *domain.ParsedItem, category string) error {
	prompt := fmt.Sprintf(enrichPromptTemplate,
		item.Name, item.Description, category,
		strings.Join(domain.DietaryTags, ", "),
		strings.Join(domain.Allergens, ", "))

	raw, err := e.completer.Complete(ctx, genai.Request{Prompt: prompt, JSONMode: true})
	if err != nil {
		return err
	}

	var decoded struct {
		DietaryTags []string `json:"dietary_tags"`
		Allergens   []string `json:"allergens"`
		Description string   `json:"description"`
	}
	if err := json.Unmarshal([]byte(genai.StripCodeFence(raw)), &decoded); err != nil {
		return fmt.Errorf("bad response: %w", err)
	}

	item.DietaryTags = domain.NormalizeDietaryTags(decoded.DietaryTags)
	item.Allergens = domain.NormalizeAllergens(decoded.Allergens)
	if item.Description == "" {
		item.Description = strings.TrimSpace(decoded.Description)
	}
	return nil
}
