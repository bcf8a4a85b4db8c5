package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const serpDefaultTimeout = 10 * time.Second

// SerpClient wraps a SerpAPI-style search endpoint for web and image queries.
type SerpClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// SerpOptions configures a SerpClient.
type SerpOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewSerpClient(opts SerpOptions) (*SerpClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("serp api key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://serpapi.com/search"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: serpDefaultTimeout}
	}
	return &SerpClient{apiKey: opts.APIKey, baseURL: baseURL, client: client}, nil
}

// WebResult is one candidate link from a web search.
type WebResult struct {
	Link string
	// KnowledgePanel marks the website field of the knowledge panel, which
	// outranks organic results during website resolution.
	KnowledgePanel bool
}

type serpWebResponse struct {
	KnowledgeGraph struct {
		Website string `json:"website"`
	} `json:"knowledge_graph"`
	OrganicResults []struct {
		Link string `json:"link"`
	} `json:"organic_results"`
}

type serpImagesResponse struct {
	ImagesResults []struct {
		Original string `json:"original"`
	} `json:"images_results"`
}

// SearchWeb returns the knowledge-panel website (if any) followed by organic
// result links, in rank order.
func (s *SerpClient) SearchWeb(ctx context.Context, query string, count int) ([]WebResult, error) {
	params := url.Values{
		"q":       {query},
		"api_key": {s.apiKey},
		"num":     {strconv.Itoa(count)},
	}
	var decoded serpWebResponse
	if err := s.getJSON(ctx, params, &decoded); err != nil {
		return nil, err
	}

	var results []WebResult
	if decoded.KnowledgeGraph.Website != "" {
		results = append(results, WebResult{Link: decoded.KnowledgeGraph.Website, KnowledgePanel: true})
	}
	for _, organic := range decoded.OrganicResults {
		if organic.Link != "" {
			results = append(results, WebResult{Link: organic.Link})
		}
	}
	return results, nil
}

// SearchImages returns up to count original-image URLs for the query.
func (s *SerpClient) SearchImages(ctx context.Context, query string, count int) ([]string, error) {
	params := url.Values{
		"engine":  {"google_images"},
		"q":       {query},
		"api_key": {s.apiKey},
	}
	var decoded serpImagesResponse
	if err := s.getJSON(ctx, params, &decoded); err != nil {
		return nil, err
	}

	var urls []string
	for _, img := range decoded.ImagesResults {
		if img.Original == "" {
			continue
		}
		urls = append(urls, img.Original)
		if len(urls) >= count {
			break
		}
	}
	return urls, nil
}

func (s *SerpClient) getJSON(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("serp: build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("serp: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("serp: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("serp: read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("serp: decode response: %w", err)
	}
	return nil
}
