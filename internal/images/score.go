package images

import (
	"net/url"
	"path"
	"strings"
)

// minScore is the lowest relevance score at which an on-page image is
// considered a match for a dish.
const minScore = 3

// Candidate is one <img> element lifted from a page, with just enough
// context to score it against a dish name.
type Candidate struct {
	URL   string
	Alt   string
	Title string
	// Ancestors holds the text of up to three enclosing elements,
	// nearest first.
	Ancestors []string
}

// Score rates how likely the candidate depicts the named dish. Exact name
// matches in alt text dominate; word overlap, title and filename hits, and
// nearby text each contribute smaller amounts.
func Score(dishName string, c Candidate) int {
	name := strings.ToLower(strings.TrimSpace(dishName))
	if name == "" {
		return 0
	}
	words := significantWords(name)

	score := 0

	alt := strings.ToLower(c.Alt)
	if alt != "" && strings.Contains(alt, name) {
		score += 10
	} else {
		score += 2 * overlap(words, significantWords(alt))
	}

	if title := strings.ToLower(c.Title); title != "" && strings.Contains(title, name) {
		score += 8
	}

	filename := strings.ToLower(urlFilename(c.URL))
	for _, w := range words {
		if len(w) > 3 && strings.Contains(filename, w) {
			score += 3
			break
		}
	}

	for _, ancestor := range c.Ancestors {
		text := strings.ToLower(ancestor)
		if strings.Contains(text, name) {
			score += 5
			break
		}
		if overlap(words, significantWords(text)) >= 2 {
			score += 2
			break
		}
	}

	return score
}

// significantWords splits text into lowercase words longer than two
// characters, so "of", "a" and other short noise never contributes to overlap.
func significantWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	})
	var words []string
	for _, f := range fields {
		if len(f) > 2 {
			words = append(words, strings.ToLower(f))
		}
	}
	return words
}

func overlap(a, b []string) int {
	set := make(map[string]bool, len(b))
	for _, w := range b {
		set[w] = true
	}
	n := 0
	for _, w := range a {
		if set[w] {
			n++
		}
	}
	return n
}

func urlFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}
