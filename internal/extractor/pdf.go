package extractor

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText pulls per-page plain text out of a PDF. Malformed documents
// yield an empty string rather than an error; the caller falls back to OCR.
func extractPDFText(data []byte) (text string) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			pages = append(pages, pageText)
		}
	}
	return strings.Join(pages, "\n\n")
}
