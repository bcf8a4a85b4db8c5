package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// extractMenuText pulls readable text out of an HTML document, focusing on
// the container most likely to hold menu content. The document is mutated.
func extractMenuText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()

	// Small nav/header/footer blocks are chrome; large ones might be the menu
	// itself, so only the small ones go.
	doc.Find("nav, header, footer").Each(func(_ int, sel *goquery.Selection) {
		if len(strings.TrimSpace(sel.Text())) < 500 {
			sel.Remove()
		}
	})

	target := doc.Find("main").First()
	if target.Length() == 0 {
		target = doc.Find("article").First()
	}
	if target.Length() == 0 {
		target = findMenuContainer(doc)
	}
	if target.Length() == 0 || len(strings.TrimSpace(target.Text())) < 100 {
		if body := doc.Find("body").First(); body.Length() > 0 {
			target = body
		} else {
			target = doc.Selection
		}
	}

	var lines []string
	for _, node := range target.Nodes {
		collectTextLines(node, &lines)
	}
	return strings.Join(lines, "\n")
}

// findMenuContainer looks for a div/section whose id or class suggests menu
// or content, with enough text to be worth preferring over the body.
func findMenuContainer(doc *goquery.Document) *goquery.Selection {
	found := doc.Find("nothing-matches")
	doc.Find("div, section").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		id, _ := sel.Attr("id")
		class, _ := sel.Attr("class")
		key := strings.ToLower(id + " " + class)
		if !strings.Contains(key, "menu") && !strings.Contains(key, "content") {
			return true
		}
		if len(strings.TrimSpace(sel.Text())) < 100 {
			return true
		}
		found = sel
		return false
	})
	return found
}

// collectTextLines appends every non-empty, whitespace-trimmed text node
// under n, in document order.
func collectTextLines(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if line := strings.TrimSpace(n.Data); line != "" {
			*lines = append(*lines, line)
		}
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectTextLines(child, lines)
	}
}
