package images

import (
	"context"
	"fmt"
	"strings"

	"importer/internal/domain"
	"importer/internal/providers/genai"
)

// DefaultStyleKeywords is used when no provider can infer a better visual
// style for image search queries.
const DefaultStyleKeywords = "professional food photography, natural light, neutral background"

const stylePromptTemplate = `A restaurant named %q serves dishes like: %s.

Suggest photography style keywords that would make search results for this
restaurant's dish photos look consistent. Reply with one short comma-separated
phrase of 3-6 keywords and nothing else. Example:
"rustic food photography, warm light, wooden table"`

// StyleKeywords infers search-query style keywords from the restaurant name
// and a sample of dishes. It always returns something usable.
func StyleKeywords(ctx context.Context, completer genai.Completer, restaurantName string, menu *domain.ParsedMenu) string {
	if completer == nil {
		return DefaultStyleKeywords
	}

	var sample []string
	for _, cat := range menu.Categories {
		for _, item := range cat.Items {
			sample = append(sample, item.Name)
			if len(sample) >= 8 {
				break
			}
		}
		if len(sample) >= 8 {
			break
		}
	}

	raw, err := completer.Complete(ctx, genai.Request{
		Prompt:      fmt.Sprintf(stylePromptTemplate, restaurantName, strings.Join(sample, ", ")),
		Temperature: 0.4,
	})
	if err != nil {
		return DefaultStyleKeywords
	}

	keywords := strings.Trim(strings.TrimSpace(raw), `"'`)
	if keywords == "" || len(keywords) > 120 || strings.Contains(keywords, "\n") {
		return DefaultStyleKeywords
	}
	return keywords
}
