package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"importer/internal/domain"
)

// priceRegexp matches a currency-prefixed or currency-suffixed decimal price
// anywhere in a line: "$8.99", "€ 12,50", "12.50 £", "9,00".
var priceRegexp = regexp.MustCompile(`[\$€£]\s*(\d{1,4}[.,]\d{2})|(\d{1,4}[.,]\d{2})\s*[€£]?`)

// boilerplateWords mark lines that are almost certainly not menu content.
var boilerplateWords = []string{
	"copyright", "all rights reserved", "privacy policy", "terms of",
	"follow us", "subscribe", "newsletter", "opening hours", "contact us",
	"reservation", "gift card", "cookie",
}

// contactMarkers flag unpriced lines that are address-book noise rather than
// dishes: URLs, emails, phone numbers, opening times. Priced lines are exempt
// so "Oysters @ market price"-style items survive.
var contactMarkers = []string{
	"http", "www.", "@", "phone", "hours", "open", "contact",
}

var titleCaser = cases.Title(language.English)

// parseMenuText is the heuristic fallback parser. It walks the text line by
// line, treating shouty or colon-terminated lines as category headers and
// priced lines as items, and folding short unpriced lines into descriptions
// or standalone items.
func parseMenuText(text string) *domain.ParsedMenu {
	menu := &domain.ParsedMenu{RawText: text}

	currentCategory := "Menu Items"
	var currentItems []domain.ParsedItem

	flush := func() {
		if len(currentItems) > 0 {
			menu.Categories = append(menu.Categories, domain.ParsedCategory{
				Name:  currentCategory,
				Items: currentItems,
			})
			currentItems = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isBoilerplate(line) {
			continue
		}

		price, hasPrice := extractPrice(line)
		if !hasPrice && isContactLine(line) {
			continue
		}

		if !hasPrice && isCategoryHeader(line) {
			flush()
			currentCategory = cleanCategoryName(line)
			continue
		}

		if hasPrice {
			name := strings.TrimSpace(priceRegexp.ReplaceAllString(line, ""))
			name = strings.Trim(name, " .-–|")
			if len(name) < 2 || len(name) > 100 {
				continue
			}
			p := price
			currentItems = append(currentItems, domain.ParsedItem{
				Name:  titleCaser.String(strings.ToLower(name)),
				Price: &p,
			})
			continue
		}

		// Unpriced line: short enough to be a description or an item name.
		if len(line) <= 3 || len(line) >= 80 {
			continue
		}
		if len(currentItems) > 0 && len(line) < 120 && currentItems[len(currentItems)-1].Description == "" {
			currentItems[len(currentItems)-1].Description = line
		} else if len(line) < 60 {
			currentItems = append(currentItems, domain.ParsedItem{
				Name: titleCaser.String(strings.ToLower(line)),
			})
		}
	}
	flush()

	return menu
}

// extractPrice returns the first price found in the line, as a float.
func extractPrice(line string) (float64, bool) {
	m := priceRegexp.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	raw = strings.ReplaceAll(raw, ",", ".")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// isCategoryHeader reports whether a line looks like a section heading:
// ALL-CAPS, colon-terminated, or a markdown-style header.
func isCategoryHeader(line string) bool {
	if strings.HasPrefix(line, "#") && len(line) < 50 {
		return true
	}
	if strings.HasSuffix(line, ":") && len(line) < 40 {
		return true
	}
	if len(line) > 3 && len(line) < 50 && line == strings.ToUpper(line) && hasLetter(line) {
		return true
	}
	return false
}

func cleanCategoryName(line string) string {
	name := strings.TrimLeft(line, "# ")
	name = strings.TrimRight(name, ": ")
	return titleCaser.String(strings.ToLower(name))
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range boilerplateWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func isContactLine(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range contactMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
