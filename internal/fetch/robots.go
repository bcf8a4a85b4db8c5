package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
)

// robotsCache holds one parsed robots.txt per origin. A nil entry means the
// file could not be fetched or parsed; checks then fail open (allowed).
type robotsCache struct {
	mu      sync.Mutex
	byOrigin map[string]*robotstxt.RobotsData
	http    *http.Client
	logger  zerolog.Logger
}

func newRobotsCache(httpClient *http.Client, logger zerolog.Logger) *robotsCache {
	return &robotsCache{
		byOrigin: make(map[string]*robotstxt.RobotsData),
		http:     httpClient,
		logger:   logger,
	}
}

// Allowed reports whether the crawler may fetch rawURL. The check is advisory:
// any failure along the way is treated as permission.
func (r *robotsCache) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}
	origin := parsed.Scheme + "://" + parsed.Host

	r.mu.Lock()
	data, ok := r.byOrigin[origin]
	r.mu.Unlock()
	if !ok {
		data = r.fetch(ctx, origin)
		r.mu.Lock()
		r.byOrigin[origin] = data
		r.mu.Unlock()
	}
	if data == nil {
		return true
	}
	return data.TestAgent(parsed.Path, UserAgent)
}

func (r *robotsCache) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.Debug().Err(err).Str("origin", origin).Msg("robots: fetch failed, allowing")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		r.logger.Debug().Err(err).Str("origin", origin).Msg("robots: parse failed, allowing")
		return nil
	}
	return data
}
