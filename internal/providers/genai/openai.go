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
	"strings"
	"time"
)

const (
	openAIDefaultTimeout = 30 * time.Second
	openAIProviderName   = "openai"
)

// OpenAIOptions controls how the OpenAI completer is configured.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAICompleter talks to the OpenAI chat completions API.
type OpenAICompleter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAICompleter(opts OpenAIOptions) (*OpenAICompleter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAICompleter{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (o *OpenAICompleter) Name() string {
	return openAIProviderName
}

func (o *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	var content any = req.Prompt
	if len(req.ImageData) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.ImageData))
		content = []openAIContentPart{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &openAIImageURL{URL: dataURL}},
		}
	}

	payload := openAIChatRequest{
		Model:       o.model,
		Messages:    []openAIMessage{{Role: "user", Content: content}},
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		payload.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}

	var decoded openAIChatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil && decoded.Error.Message != "" {
			return "", fmt.Errorf("openai: status %d: %s", resp.StatusCode, decoded.Error.Message)
		}
		return "", fmt.Errorf("openai: status %d", resp.StatusCode)
	}
	for _, choice := range decoded.Choices {
		if strings.TrimSpace(choice.Message.Content) != "" {
			return choice.Message.Content, nil
		}
	}
	return "", errors.New("openai: empty response")
}

var _ Completer = (*OpenAICompleter)(nil)
