package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"importer/internal/fetch"
)

// menuPathPatterns are path suffixes that commonly host menus. They are both
// matched against discovered links and probed directly even when unlinked.
var menuPathPatterns = []string{
	"/menu", "/menus", "/food-menu", "/food", "/our-menu",
	"/dinner-menu", "/lunch-menu", "/drinks", "/bar-menu",
	"/carte", "/speisekarte", "/carta", "/menukaart",
}

// menuLinkKeywords mark anchor text that suggests a menu page.
var menuLinkKeywords = []string{"menu", "food", "dinner", "lunch", "drinks"}

// discoverMenuLinks finds same-domain links on a page that look like menu
// pages, by path suffix or anchor text.
func discoverMenuLinks(baseURL string, doc *goquery.Document) []string {
	var found []string
	seen := make(map[string]bool)
	baseHost := hostOf(baseURL)
	trimmedBase := strings.TrimRight(baseURL, "/")

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := fetch.NormalizeURL(baseURL, href)
		if resolved == "" || hostOf(resolved) != baseHost {
			return
		}

		path := strings.ToLower(strings.TrimRight(pathOf(resolved), "/"))
		text := strings.ToLower(strings.TrimSpace(sel.Text()))

		isMenuPath := false
		for _, pattern := range menuPathPatterns {
			if strings.HasSuffix(path, pattern) {
				isMenuPath = true
				break
			}
		}
		isMenuText := false
		for _, kw := range menuLinkKeywords {
			if strings.Contains(text, kw) {
				isMenuText = true
				break
			}
		}

		if (isMenuPath || isMenuText) && resolved != trimmedBase && !seen[resolved] {
			seen[resolved] = true
			found = append(found, resolved)
		}
	})
	return found
}

// findPDFLinks returns resolved URLs of anchors pointing at PDF files.
func findPDFLinks(baseURL string, doc *goquery.Document) []string {
	var pdfs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(href)), ".pdf") {
			return
		}
		if resolved := fetch.NormalizeURL(baseURL, href); resolved != "" {
			pdfs = append(pdfs, resolved)
		}
	})
	return pdfs
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
