package genai

import (
	"context"
	"strings"
)

// Request is one text or vision completion. When ImageData is set the
// provider sends it inline alongside the prompt (used for OCR).
type Request struct {
	Prompt      string
	JSONMode    bool
	Temperature float64
	ImageData   []byte
	ImageMIME   string
}

// Completer is the minimal completion surface the pipeline depends on.
// Stages treat a nil Completer as "no provider configured" and fall back to
// their local heuristics.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// StripCodeFence removes a wrapping markdown code fence from a model
// response. Models occasionally fence JSON even when asked not to.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
