package extractor

import (
	"context"
	"fmt"
	"strings"

	"importer/internal/providers/genai"
)

// OCR recognizes text in an image. A nil OCR means the stage is skipped.
type OCR interface {
	Recognize(ctx context.Context, image []byte, mime string) (string, error)
}

const ocrPrompt = "Transcribe all text visible in this menu image. " +
	"Preserve the line structure: one menu item or heading per line, prices on the same line as their item. " +
	"Return only the transcribed text with no commentary."

// VisionOCR recognizes menu text through a vision-capable completion provider.
type VisionOCR struct {
	completer genai.Completer
}

func NewVisionOCR(completer genai.Completer) *VisionOCR {
	return &VisionOCR{completer: completer}
}

func (v *VisionOCR) Recognize(ctx context.Context, image []byte, mime string) (string, error) {
	if v.completer == nil {
		return "", fmt.Errorf("ocr: no completion provider configured")
	}
	text, err := v.completer.Complete(ctx, genai.Request{
		Prompt:    ocrPrompt,
		ImageData: image,
		ImageMIME: mime,
	})
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}

var _ OCR = (*VisionOCR)(nil)
