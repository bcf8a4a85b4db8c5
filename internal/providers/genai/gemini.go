package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	geminiDefaultTimeout = 30 * time.Second
	geminiProviderName   = "gemini"
)

// GeminiOptions controls how the Gemini completer is configured.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiCompleter talks to the Gemini generateContent API.
type GeminiCompleter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

func NewGeminiCompleter(opts GeminiOptions) (*GeminiCompleter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiCompleter{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (g *GeminiCompleter) Name() string {
	return geminiProviderName
}

func (g *GeminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	if len(req.ImageData) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(req.ImageData),
		}})
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:    req.Temperature,
			CandidateCount: 1,
		},
	}
	if req.JSONMode {
		payload.GenerationConfig.ResponseMimeType = "application/json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr geminiErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	var decoded geminiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	for _, candidate := range decoded.Candidates {
		for _, part := range candidate.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, nil
			}
		}
	}
	return "", errors.New("gemini: empty response")
}

var _ Completer = (*GeminiCompleter)(nil)
