package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	// UserAgent mimics a desktop browser; several restaurant platforms serve
	// empty shells to unknown agents.
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	defaultTimeout = 15 * time.Second
	assetTimeout   = 20 * time.Second
	maxAttempts    = 3
	maxBodyBytes   = 20 << 20
)

// Client is a per-job crawl context: a polite HTTP client with a bounded
// concurrency permit, retry with backoff, and a per-origin robots cache.
// Construct one at job start and discard it at job end so no crawl state
// leaks across jobs.
type Client struct {
	http   *http.Client
	sem    *semaphore.Weighted
	robots *robotsCache
	logger zerolog.Logger
}

// Options configures a crawl client. Zero values get sensible defaults.
type Options struct {
	MaxConcurrent int64
	HTTPClient    *http.Client
	Logger        zerolog.Logger
}

func NewClient(opts Options) *Client {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No client-level Timeout: it would cap every request at the same
		// duration and override the per-call deadlines that give asset
		// downloads their longer budget.
		httpClient = &http.Client{}
	}
	c := &Client{
		http:   httpClient,
		sem:    semaphore.NewWeighted(opts.MaxConcurrent),
		logger: opts.Logger,
	}
	c.robots = newRobotsCache(httpClient, opts.Logger)
	return c
}

// Response is a fully-read fetch result.
type Response struct {
	Body        []byte
	ContentType string
	FinalURL    string
	StatusCode  int
}

// permanentError marks failures that retrying cannot fix (4xx responses).
type permanentError struct {
	status int
	url    string
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.url, e.status)
}

// Get fetches a URL under the concurrency permit, retrying transient network
// and 5xx failures with exponential backoff. 4xx responses are returned
// immediately. robots.txt is consulted advisorily and fails open.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.get(ctx, rawURL, defaultTimeout)
}

// GetAsset is Get with the longer timeout used for image and PDF downloads.
func (c *Client) GetAsset(ctx context.Context, rawURL string) (*Response, error) {
	return c.get(ctx, rawURL, assetTimeout)
}

func (c *Client) get(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	if !c.robots.Allowed(ctx, rawURL) {
		c.logger.Debug().Str("url", rawURL).Msg("fetch: disallowed by robots.txt")
		return nil, fmt.Errorf("fetch %s: disallowed by robots.txt", rawURL)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		resp, err := c.attempt(ctx, rawURL, timeout)
		if err == nil {
			return resp, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return nil, err
		}
		lastErr = err
		c.logger.Debug().Err(err).Str("url", rawURL).Int("attempt", attempt+1).Msg("fetch: retrying")
	}
	return nil, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

func (c *Client) attempt(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &permanentError{status: resp.StatusCode, url: rawURL}
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
	}, nil
}
