// Package images finds one photo per dish: first from the restaurant's own
// pages by scoring <img> context against the dish name, then from image
// search, and gives up gracefully when neither works.
package images

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"importer/internal/domain"
	"importer/internal/fetch"
)

// minImageBytes rejects favicons, spacers, and tracking pixels.
const minImageBytes = 5000

// maxAncestorLevels bounds how far up the DOM scoring context reaches.
const maxAncestorLevels = 3

// Searcher finds candidate image URLs for a text query.
type Searcher interface {
	SearchImages(ctx context.Context, query string, count int) ([]string, error)
}

// Finder resolves dish photos for one job. It caches page candidates and
// deduplicates downloaded bytes, so it must not be shared across jobs.
type Finder struct {
	fetcher  *fetch.Client
	searcher Searcher
	logger   zerolog.Logger

	pages map[string][]Candidate
	seen  map[[sha256.Size]byte]bool
	next  int
}

// NewFinder builds a per-job Finder. searcher may be nil, in which case only
// on-page and platform-provided images are used.
func NewFinder(fetcher *fetch.Client, searcher Searcher, logger zerolog.Logger) *Finder {
	return &Finder{
		fetcher:  fetcher,
		searcher: searcher,
		logger:   logger,
		pages:    make(map[string][]Candidate),
		seen:     make(map[[sha256.Size]byte]bool),
	}
}

// FindForItem locates a photo for the dish, assigns it the next sequential
// filename, and records it on the item. A nil result means no image; that is
// not an error.
func (f *Finder) FindForItem(ctx context.Context, item *domain.ParsedItem, pageURLs []string, restaurantName, styleKeywords string) *domain.DishImage {
	if img := f.fromKnownURL(ctx, item); img != nil {
		return f.assign(item, img)
	}
	if img := f.fromPages(ctx, item.Name, pageURLs); img != nil {
		return f.assign(item, img)
	}
	if img := f.fromSearch(ctx, item.Name, restaurantName, styleKeywords); img != nil {
		return f.assign(item, img)
	}
	return nil
}

func (f *Finder) assign(item *domain.ParsedItem, img *domain.DishImage) *domain.DishImage {
	f.next++
	item.ImageFilename = fmt.Sprintf("dish_%03d%s", f.next, img.Ext)
	item.SourceImageURL = img.URL
	return img
}

// fromKnownURL downloads the image URL the menu source already carries, if
// any (ordering platforms publish per-item photos).
func (f *Finder) fromKnownURL(ctx context.Context, item *domain.ParsedItem) *domain.DishImage {
	if item.SourceImageURL == "" {
		return nil
	}
	return f.download(ctx, item.SourceImageURL, domain.ImageSourceWebsite)
}

// fromPages scores every <img> on the crawled pages against the dish name
// and downloads the best-scoring candidates until one survives validation.
func (f *Finder) fromPages(ctx context.Context, dishName string, pageURLs []string) *domain.DishImage {
	type scored struct {
		c Candidate
		s int
	}
	var candidates []scored
	for _, pageURL := range pageURLs {
		for _, c := range f.pageCandidates(ctx, pageURL) {
			if s := Score(dishName, c); s >= minScore {
				candidates = append(candidates, scored{c, s})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].s > candidates[j].s })

	for i, cand := range candidates {
		if i >= 3 {
			break
		}
		if img := f.download(ctx, cand.c.URL, domain.ImageSourceWebsite); img != nil {
			return img
		}
	}
	return nil
}

func (f *Finder) fromSearch(ctx context.Context, dishName, restaurantName, styleKeywords string) *domain.DishImage {
	if f.searcher == nil {
		return nil
	}
	query := strings.TrimSpace(fmt.Sprintf("%s %s %s", dishName, restaurantName, styleKeywords))
	urls, err := f.searcher.SearchImages(ctx, query, 5)
	if err != nil {
		f.logger.Warn().Err(err).Str("dish", dishName).Msg("images: search failed")
		return nil
	}
	for _, rawURL := range urls {
		if img := f.download(ctx, rawURL, domain.ImageSourceSearch); img != nil {
			return img
		}
	}
	return nil
}

// download fetches and validates an image: big enough to be a real photo and
// not a duplicate of one already used in this job.
func (f *Finder) download(ctx context.Context, rawURL string, source domain.ImageSource) *domain.DishImage {
	resp, err := f.fetcher.GetAsset(ctx, rawURL)
	if err != nil {
		f.logger.Debug().Err(err).Str("url", rawURL).Msg("images: download failed")
		return nil
	}
	if len(resp.Body) < minImageBytes {
		return nil
	}
	sum := sha256.Sum256(resp.Body)
	if f.seen[sum] {
		f.logger.Debug().Str("url", rawURL).Msg("images: duplicate image rejected")
		return nil
	}
	f.seen[sum] = true

	return &domain.DishImage{
		Data:   resp.Body,
		Ext:    fetch.ImageExt(rawURL, resp.Body),
		Source: source,
		URL:    rawURL,
	}
}

// pageCandidates fetches and parses a page once per job, returning its <img>
// elements with enough context to score.
func (f *Finder) pageCandidates(ctx context.Context, pageURL string) []Candidate {
	if cached, ok := f.pages[pageURL]; ok {
		return cached
	}

	var candidates []Candidate
	// Cache failures too, so a dead page is only tried once per job.
	defer func() { f.pages[pageURL] = candidates }()

	resp, err := f.fetcher.Get(ctx, pageURL)
	if err != nil {
		f.logger.Debug().Err(err).Str("url", pageURL).Msg("images: page fetch failed")
		return candidates
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return candidates
	}

	doc.Find("img, source").Each(func(_ int, sel *goquery.Selection) {
		src := imageSrc(sel)
		resolved := fetch.NormalizeURL(resp.FinalURL, src)
		if resolved == "" || looksLikeChrome(resolved) || tooSmallByAttrs(sel) {
			return
		}
		alt, _ := sel.Attr("alt")
		title, _ := sel.Attr("title")

		var ancestors []string
		parent := sel.Parent()
		for level := 0; level < maxAncestorLevels && parent.Length() > 0; level++ {
			text := strings.TrimSpace(parent.Text())
			if len(text) > 400 {
				text = text[:400]
			}
			if text != "" {
				ancestors = append(ancestors, text)
			}
			parent = parent.Parent()
		}

		candidates = append(candidates, Candidate{
			URL:       resolved,
			Alt:       alt,
			Title:     title,
			Ancestors: ancestors,
		})
	})

	// Social-preview images are often the hero dish shot.
	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		if resolved := fetch.NormalizeURL(resp.FinalURL, og); resolved != "" && !looksLikeChrome(resolved) {
			candidates = append(candidates, Candidate{URL: resolved})
		}
	}

	// Structured-data blocks carry curated photos on menu pages.
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		for _, raw := range jsonLDImages(sel.Text()) {
			if resolved := fetch.NormalizeURL(resp.FinalURL, raw); resolved != "" && !looksLikeChrome(resolved) {
				candidates = append(candidates, Candidate{URL: resolved})
			}
		}
	})
	return candidates
}

// jsonLDImages pulls image URLs out of a JSON-LD payload. Shapes vary, so
// this walks the decoded value and collects whatever sits under "image" keys:
// a string, a list of strings, or an ImageObject with a "url".
func jsonLDImages(raw string) []string {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}

	var urls []string
	var collect func(any)
	collect = func(node any) {
		switch n := node.(type) {
		case string:
			if strings.HasPrefix(n, "http") {
				urls = append(urls, n)
			}
		case []any:
			for _, el := range n {
				collect(el)
			}
		case map[string]any:
			if u, ok := n["url"]; ok {
				collect(u)
			}
		}
	}

	var walk func(any)
	walk = func(node any) {
		switch n := node.(type) {
		case map[string]any:
			for key, val := range n {
				if key == "image" {
					collect(val)
				} else {
					walk(val)
				}
			}
		case []any:
			for _, el := range n {
				walk(el)
			}
		}
	}
	walk(v)
	return urls
}

// imageSrc resolves the effective source of an <img> or <source>, covering
// the common lazy-load attributes and srcset.
func imageSrc(sel *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if srcset, ok := sel.Attr("srcset"); ok {
		// First candidate: "url 1x, url2 2x" or "url 400w, ...".
		if fields := strings.Fields(strings.Split(srcset, ",")[0]); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// looksLikeChrome filters URLs that are clearly site furniture, not food.
func looksLikeChrome(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, word := range []string{"logo", "icon", "sprite", "placeholder", "avatar", "badge"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// tooSmallByAttrs rejects images whose declared dimensions are too small to
// be a dish photo.
func tooSmallByAttrs(sel *goquery.Selection) bool {
	for _, attr := range []string{"width", "height"} {
		if v, ok := sel.Attr(attr); ok {
			if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px")); err == nil && n > 0 && n < 100 {
				return true
			}
		}
	}
	return false
}
