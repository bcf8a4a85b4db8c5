package enrich

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"importer/internal/domain"
	"importer/internal/providers/genai"
)

type fakeCompleter struct {
	responses map[string]string
	err       error
	calls     int
}

func (f *fakeCompleter) Complete(_ context.Context, req genai.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	for key, resp := range f.responses {
		if containsLine(req.Prompt, "Item name: "+key) {
			return resp, nil
		}
	}
	return `{"dietary_tags":[],"allergens":[],"description":""}`, nil
}

func (f *fakeCompleter) Name() string { return "fake" }

func containsLine(prompt, line string) bool {
	for _, l := range strings.Split(prompt, "\n") {
		if l == line {
			return true
		}
	}
	return false
}

func menuWith(items ...domain.ParsedItem) *domain.ParsedMenu {
	return &domain.ParsedMenu{
		Categories: []domain.ParsedCategory{{Name: "Mains", Items: items}},
	}
}

func TestEnrichAssignsVocabulary(t *testing.T) {
	completer := &fakeCompleter{responses: map[string]string{
		"Pad Thai": `{"dietary_tags":["spicy","Vegetarian","made-up-tag"],"allergens":["peanuts","PEANUTS"],"description":"Stir-fried noodles."}`,
	}}

	menu := menuWith(domain.ParsedItem{Name: "Pad Thai"})
	New(completer, zerolog.New(io.Discard)).Enrich(context.Background(), menu)

	item := menu.Categories[0].Items[0]
	if got, want := fmt.Sprint(item.DietaryTags), fmt.Sprint([]string{"Spicy", "Vegetarian"}); got != want {
		t.Errorf("tags = %v, want %v", got, want)
	}
	if got, want := fmt.Sprint(item.Allergens), fmt.Sprint([]string{"Peanuts"}); got != want {
		t.Errorf("allergens = %v, want %v", got, want)
	}
	if item.Description != "Stir-fried noodles." {
		t.Errorf("description = %q", item.Description)
	}
}

func TestEnrichKeepsExistingDescription(t *testing.T) {
	completer := &fakeCompleter{responses: map[string]string{
		"Pad Thai": `{"dietary_tags":[],"allergens":[],"description":"AI wrote this"}`,
	}}

	menu := menuWith(domain.ParsedItem{Name: "Pad Thai", Description: "House favorite."})
	New(completer, zerolog.New(io.Discard)).Enrich(context.Background(), menu)

	if got := menu.Categories[0].Items[0].Description; got != "House favorite." {
		t.Errorf("description = %q, want original kept", got)
	}
}

func TestEnrichNilCompleterIsNoOp(t *testing.T) {
	menu := menuWith(domain.ParsedItem{Name: "Pad Thai", Description: "House favorite."})
	New(nil, zerolog.New(io.Discard)).Enrich(context.Background(), menu)

	item := menu.Categories[0].Items[0]
	if item.Description != "House favorite." || item.DietaryTags != nil {
		t.Errorf("menu mutated without a provider: %+v", item)
	}
}

func TestEnrichSurvivesProviderErrors(t *testing.T) {
	completer := &fakeCompleter{err: fmt.Errorf("rate limited")}

	menu := menuWith(
		domain.ParsedItem{Name: "Pad Thai"},
		domain.ParsedItem{Name: "Green Curry"},
	)
	New(completer, zerolog.New(io.Discard)).Enrich(context.Background(), menu)

	if completer.calls != 2 {
		t.Errorf("calls = %d, want 2 (one per item despite errors)", completer.calls)
	}
}
