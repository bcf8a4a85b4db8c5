package resolver

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"importer/internal/fetch"
	"importer/internal/providers/search"
)

// linkKeywords mark aggregator-page anchors that most likely point at the
// restaurant's own site.
var linkKeywords = []string{"menu", "website", "order", "reserve"}

// Resolver turns a restaurant name into a candidate official-website URL.
// Either provider may be nil; the corresponding lookup is skipped.
type Resolver struct {
	fetcher *fetch.Client
	places  *search.PlacesClient
	web     *search.SerpClient
	logger  zerolog.Logger
}

func New(fetcher *fetch.Client, places *search.PlacesClient, web *search.SerpClient, logger zerolog.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, places: places, web: web, logger: logger}
}

// Resolve tries, in order: the explicit override, a Places lookup, a web
// search. Aggregator links are followed through to the real site; skip-domain
// results are discarded. Returns "" when nothing qualifies, which the caller
// treats as needs-input rather than failure.
func (r *Resolver) Resolve(ctx context.Context, name, locationHint, override string) (string, error) {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		resolved := ensureScheme(trimmed)
		if IsAggregator(resolved) {
			if followed := r.followAggregator(ctx, resolved); followed != "" {
				return followed, nil
			}
		}
		return resolved, nil
	}

	query := name
	if locationHint != "" {
		query = name + " " + locationHint
	}

	if r.places != nil {
		site, err := r.places.FindWebsite(ctx, query+" restaurant")
		if err != nil {
			r.logger.Warn().Err(err).Msg("resolver: places lookup failed")
		} else if candidate := r.qualify(ctx, site); candidate != "" {
			return candidate, nil
		}
	}

	if r.web != nil {
		results, err := r.web.SearchWeb(ctx, query+" restaurant official site", 5)
		if err != nil {
			r.logger.Warn().Err(err).Msg("resolver: web search failed")
		} else {
			for _, result := range results {
				if candidate := r.qualify(ctx, result.Link); candidate != "" {
					return candidate, nil
				}
			}
		}
	}

	return "", nil
}

// qualify filters one candidate URL: skip-domains are discarded, aggregators
// are followed through, anything else passes. The scheme is normalized first;
// a schemeless candidate parses with an empty host and would slip past the
// domain checks.
func (r *Resolver) qualify(ctx context.Context, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	rawURL = ensureScheme(rawURL)
	if IsSkipDomain(rawURL) {
		return ""
	}
	if IsAggregator(rawURL) {
		return r.followAggregator(ctx, rawURL)
	}
	return rawURL
}

// followAggregator fetches a link-in-bio page and extracts the first outbound
// link that is neither an aggregator nor a skip-domain, preferring anchors
// whose text mentions menu/website/order/reserve.
func (r *Resolver) followAggregator(ctx context.Context, pageURL string) string {
	resp, err := r.fetcher.Get(ctx, pageURL)
	if err != nil {
		r.logger.Warn().Err(err).Str("url", pageURL).Msg("resolver: aggregator fetch failed")
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return ""
	}

	var preferred, fallback string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		resolved := fetch.NormalizeURL(pageURL, href)
		if resolved == "" || IsAggregator(resolved) || IsSkipDomain(resolved) {
			return true
		}
		if hostOf(resolved) == hostOf(pageURL) {
			return true
		}
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		for _, kw := range linkKeywords {
			if strings.Contains(text, kw) {
				preferred = resolved
				return false
			}
		}
		if fallback == "" {
			fallback = resolved
		}
		return true
	})

	if preferred != "" {
		return preferred
	}
	return fallback
}

func ensureScheme(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}
	return "https://" + rawURL
}
