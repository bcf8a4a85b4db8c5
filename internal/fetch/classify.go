package fetch

import (
	"bytes"
	"net/url"
	"strings"
)

// Kind is the coarse content classification the extractor dispatches on.
type Kind string

const (
	KindHTML  Kind = "html"
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}

// Classify inspects magic bytes first, then the URL path extension. Anything
// unrecognized is treated as HTML.
func Classify(rawURL string, data []byte) Kind {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return KindPDF
	}
	if isImageMagic(data) {
		return KindImage
	}

	path := ""
	if u, err := url.Parse(rawURL); err == nil {
		path = strings.ToLower(u.Path)
	}
	if strings.HasSuffix(path, ".pdf") {
		return KindPDF
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return KindImage
		}
	}
	return KindHTML
}

func isImageMagic(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}): // JPEG
		return true
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}): // PNG
		return true
	case bytes.HasPrefix(data, []byte("GIF8")):
		return true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return true
	}
	return false
}

// ImageExt infers a file extension for downloaded image bytes, preferring
// magic bytes over the URL. JPEG is the default because most dish photos are.
func ImageExt(rawURL string, data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return ".png"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ".webp"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return ".gif"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return ".jpg"
	}
	path := ""
	if u, err := url.Parse(rawURL); err == nil {
		path = strings.ToLower(u.Path)
	}
	for _, ext := range []string{".png", ".webp", ".gif", ".jpeg", ".jpg"} {
		if strings.HasSuffix(path, ext) {
			if ext == ".jpeg" {
				return ".jpg"
			}
			return ext
		}
	}
	return ".jpg"
}

// NormalizeURL resolves a possibly-relative href against a base URL and
// filters out non-HTTP schemes. Returns "" when the href is unusable.
func NormalizeURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	for _, prefix := range []string{"data:", "javascript:", "mailto:", "tel:", "#"} {
		if strings.HasPrefix(href, prefix) {
			return ""
		}
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
