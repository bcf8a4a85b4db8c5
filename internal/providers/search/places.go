package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const placesDefaultTimeout = 10 * time.Second

// PlacesClient looks up a business website through the Google Places API:
// a text search resolves a place id, a details call returns the listed
// website field.
type PlacesClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// PlacesOptions configures a PlacesClient.
type PlacesOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewPlacesClient(opts PlacesOptions) (*PlacesClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("places api key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: placesDefaultTimeout}
	}
	return &PlacesClient{apiKey: opts.APIKey, baseURL: baseURL, client: client}, nil
}

type placesSearchResponse struct {
	Results []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
}

type placesDetailsResponse struct {
	Result struct {
		Website string `json:"website"`
	} `json:"result"`
}

// FindWebsite returns the listed website for the top text-search result, or
// "" when the lookup finds nothing.
func (p *PlacesClient) FindWebsite(ctx context.Context, query string) (string, error) {
	var search placesSearchResponse
	params := url.Values{"query": {query}, "key": {p.apiKey}}
	if err := p.getJSON(ctx, p.baseURL+"/textsearch/json?"+params.Encode(), &search); err != nil {
		return "", err
	}
	if len(search.Results) == 0 || search.Results[0].PlaceID == "" {
		return "", nil
	}

	var details placesDetailsResponse
	params = url.Values{
		"place_id": {search.Results[0].PlaceID},
		"fields":   {"website,name"},
		"key":      {p.apiKey},
	}
	if err := p.getJSON(ctx, p.baseURL+"/details/json?"+params.Encode(), &details); err != nil {
		return "", err
	}
	return details.Result.Website, nil
}

func (p *PlacesClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("places: build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("places: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return fmt.Errorf("places: read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("places: decode response: %w", err)
	}
	return nil
}
