// Package extractor turns a restaurant website into a structured menu. It
// crawls a handful of likely pages, pulls text out of HTML, PDFs, and menu
// images, and structures the text with an AI parser backed by a heuristic
// fallback.
package extractor

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"importer/internal/domain"
	"importer/internal/extractor/platform"
	"importer/internal/fetch"
	"importer/internal/providers/genai"
)

const (
	// maxPages bounds the crawl per job.
	maxPages = 8
	// maxEmbeddedPDFs bounds PDF downloads per page.
	maxEmbeddedPDFs = 2
	// minUsableText is the shortest extraction worth parsing.
	minUsableText = 40
	// minPageText drops near-empty pages; the homepage gets a higher bar
	// because its boilerplate rarely carries menu content.
	minPageText = 50
	minHomeText = 100
)

// Extractor crawls a website and produces a parsed menu.
type Extractor struct {
	fetcher   *fetch.Client
	completer genai.Completer
	ocr       OCR
	adapters  []platform.Adapter
	logger    zerolog.Logger
}

// Options configures an Extractor. Completer and OCR may be nil, in which
// case the heuristic parser runs alone and image menus are skipped.
type Options struct {
	Fetcher   *fetch.Client
	Completer genai.Completer
	OCR       OCR
	Adapters  []platform.Adapter
	Logger    zerolog.Logger
}

func New(opts Options) *Extractor {
	return &Extractor{
		fetcher:   opts.Fetcher,
		completer: opts.Completer,
		ocr:       opts.OCR,
		adapters:  opts.Adapters,
		logger:    opts.Logger,
	}
}

// Extract pulls a menu out of the given website. It never fails on partial
// page errors; an empty menu with zero items is a valid (if useless) result
// that the caller treats as a failed import.
func (e *Extractor) Extract(ctx context.Context, websiteURL string) (*domain.ParsedMenu, error) {
	// Hosted ordering platforms carry structured data; prefer that over
	// scraping when an adapter recognizes the URL.
	for _, adapter := range e.adapters {
		if !adapter.Match(websiteURL) {
			continue
		}
		menu, err := adapter.Fetch(ctx, websiteURL)
		if err == nil && menu.ItemCount() > 0 {
			e.logger.Info().Str("platform", adapter.Name()).Int("items", menu.ItemCount()).
				Msg("extractor: menu from platform api")
			return menu, nil
		}
		e.logger.Warn().Err(err).Str("platform", adapter.Name()).
			Msg("extractor: platform adapter failed, falling back to crawl")
	}

	texts, sourceURLs := e.crawl(ctx, websiteURL)
	combined := strings.TrimSpace(strings.Join(texts, "\n\n"))
	if len(combined) < minUsableText {
		return &domain.ParsedMenu{SourceURLs: sourceURLs}, nil
	}

	menu, err := parseWithAI(ctx, e.completer, combined)
	if err != nil {
		e.logger.Warn().Err(err).Msg("extractor: ai parse failed, using heuristic parser")
		menu = parseMenuText(combined)
	}
	menu.RawText = combined
	menu.SourceURLs = sourceURLs
	return menu, nil
}

// crawl visits the homepage, discovered menu links, and well-known menu
// paths, up to maxPages, and returns the extracted text per page.
func (e *Extractor) crawl(ctx context.Context, websiteURL string) (texts []string, visited []string) {
	queue := []string{websiteURL}
	seen := map[string]bool{strings.TrimRight(websiteURL, "/"): true}

	enqueue := func(links []string) {
		for _, link := range links {
			key := strings.TrimRight(link, "/")
			if !seen[key] {
				seen[key] = true
				queue = append(queue, link)
			}
		}
	}

	// Well-known menu paths are probed even when unlinked; many restaurant
	// sites hide the menu behind javascript navigation.
	origin := originOf(websiteURL)
	if origin != "" {
		var probes []string
		for _, pattern := range menuPathPatterns {
			probes = append(probes, origin+pattern)
		}
		enqueue(probes)
	}

	for len(queue) > 0 && len(visited) < maxPages {
		if ctx.Err() != nil {
			return texts, visited
		}
		pageURL := queue[0]
		queue = queue[1:]

		resp, err := e.fetcher.Get(ctx, pageURL)
		if err != nil {
			e.logger.Debug().Err(err).Str("url", pageURL).Msg("extractor: page fetch failed")
			continue
		}
		visited = append(visited, pageURL)

		switch fetch.Classify(pageURL, resp.Body) {
		case fetch.KindPDF:
			if text := e.pdfText(ctx, resp.Body); text != "" {
				texts = append(texts, text)
			}
		case fetch.KindImage:
			if text := e.imageText(ctx, pageURL, resp.Body); text != "" {
				texts = append(texts, text)
			}
		default:
			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
			if err != nil {
				e.logger.Debug().Err(err).Str("url", pageURL).Msg("extractor: html parse failed")
				continue
			}
			// Collect links before extraction mutates the document.
			enqueue(discoverMenuLinks(resp.FinalURL, doc))
			texts = append(texts, e.pagePDFText(ctx, resp.FinalURL, doc)...)
			minText := minPageText
			if pageURL == websiteURL {
				minText = minHomeText
			}
			if text := strings.TrimSpace(extractMenuText(doc)); len(text) >= minText {
				texts = append(texts, text)
			}
		}
	}
	return texts, visited
}

// pagePDFText downloads up to maxEmbeddedPDFs linked PDFs and extracts them.
func (e *Extractor) pagePDFText(ctx context.Context, baseURL string, doc *goquery.Document) []string {
	var texts []string
	for i, pdfURL := range findPDFLinks(baseURL, doc) {
		if i >= maxEmbeddedPDFs {
			break
		}
		resp, err := e.fetcher.GetAsset(ctx, pdfURL)
		if err != nil {
			e.logger.Debug().Err(err).Str("url", pdfURL).Msg("extractor: pdf fetch failed")
			continue
		}
		if text := e.pdfText(ctx, resp.Body); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// pdfText extracts embedded text, falling back to OCR for scanned PDFs that
// carry no text layer. OCR operates on the raw bytes; vision models accept
// PDF input directly.
func (e *Extractor) pdfText(ctx context.Context, data []byte) string {
	if text := extractPDFText(data); strings.TrimSpace(text) != "" {
		return text
	}
	if e.ocr == nil {
		return ""
	}
	text, err := e.ocr.Recognize(ctx, data, "application/pdf")
	if err != nil {
		e.logger.Debug().Err(err).Msg("extractor: pdf ocr failed")
		return ""
	}
	return text
}

func (e *Extractor) imageText(ctx context.Context, imageURL string, data []byte) string {
	if e.ocr == nil {
		return ""
	}
	mime := "image/jpeg"
	switch fetch.ImageExt(imageURL, data) {
	case ".png":
		mime = "image/png"
	case ".webp":
		mime = "image/webp"
	case ".gif":
		mime = "image/gif"
	}
	text, err := e.ocr.Recognize(ctx, data, mime)
	if err != nil {
		e.logger.Debug().Err(err).Str("url", imageURL).Msg("extractor: image ocr failed")
		return ""
	}
	return text
}
