package domain

import "strings"

// DietaryTags is the closed vocabulary the enricher may assign.
var DietaryTags = []string{"Vegan", "Vegetarian", "Gluten-Free", "Spicy", "Nut-Free"}

// Allergens is the closed vocabulary of allergen labels.
var Allergens = []string{"Peanuts", "Tree Nuts", "Milk", "Egg", "Wheat", "Soy", "Fish", "Shellfish"}

// NormalizeDietaryTags filters candidate tags down to the closed vocabulary,
// matching case-insensitively and dropping duplicates.
func NormalizeDietaryTags(candidates []string) []string {
	return filterVocab(candidates, DietaryTags)
}

// NormalizeAllergens filters candidate allergens down to the closed vocabulary.
func NormalizeAllergens(candidates []string) []string {
	return filterVocab(candidates, Allergens)
}

func filterVocab(candidates, vocab []string) []string {
	var out []string
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		for _, v := range vocab {
			if strings.EqualFold(strings.TrimSpace(c), v) && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
