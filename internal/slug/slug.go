package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallback = "restaurant"

// stripAccents decomposes accented characters and drops the combining marks,
// so "Café Résumé" folds to "Cafe Resume".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make converts free-form text into a URL-friendly slug: lower-case, accents
// folded, runs of non-alphanumerics collapsed into single hyphens. Input that
// yields nothing slugs to "restaurant" so archive paths are never empty.
func Make(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	lowered = strings.ReplaceAll(lowered, "ß", "ss")

	folded, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	out := b.String()
	if out == "" {
		return fallback
	}
	return out
}
