// Package replicate calls a Replicate-style prediction API to run an image
// enhancement model on dish photos.
package replicate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.replicate.com/v1"
	defaultModel   = "tencentarc/gfpgan"

	pollInterval = 2 * time.Second
	maxPolls     = 30
)

// Client runs predictions against a Replicate-style API.
type Client struct {
	token   string
	model   string
	baseURL string
	http    *http.Client
}

// Options configures a Client.
type Options struct {
	APIToken   string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(opts Options) (*Client, error) {
	if opts.APIToken == "" {
		return nil, errors.New("replicate api token is required")
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{token: opts.APIToken, model: model, baseURL: baseURL, http: client}, nil
}

type prediction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output any    `json:"output"`
	Error  any    `json:"error"`
}

// Enhance submits the image, polls until the prediction settles, and
// downloads the output image.
func (c *Client) Enhance(ctx context.Context, image []byte) ([]byte, error) {
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	body, err := json.Marshal(map[string]any{
		"version": c.model,
		"input":   map[string]any{"img": dataURI},
	})
	if err != nil {
		return nil, fmt.Errorf("replicate: marshal request: %w", err)
	}

	var pred prediction
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body), &pred); err != nil {
		return nil, err
	}

	for i := 0; i < maxPolls && pred.Status != "succeeded"; i++ {
		if pred.Status == "failed" || pred.Status == "canceled" {
			return nil, fmt.Errorf("replicate: prediction %s: %v", pred.Status, pred.Error)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
		if err := c.do(ctx, http.MethodGet, c.baseURL+"/predictions/"+pred.ID, nil, &pred); err != nil {
			return nil, err
		}
	}
	if pred.Status != "succeeded" {
		return nil, fmt.Errorf("replicate: prediction still %s after polling", pred.Status)
	}

	outputURL := outputImageURL(pred.Output)
	if outputURL == "" {
		return nil, errors.New("replicate: prediction has no output image")
	}
	return c.download(ctx, outputURL)
}

// outputImageURL handles both output shapes models use: a single URL string
// or a list of URL strings.
func outputImageURL(output any) string {
	switch v := output.(type) {
	case string:
		return v
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, out *prediction) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("replicate: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("replicate: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("replicate: status %d: %s", resp.StatusCode, truncate(raw, 200))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("replicate: decode response: %w", err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build download: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("replicate: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, fmt.Errorf("replicate: download: %w", err)
	}
	return data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
