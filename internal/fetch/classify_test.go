package fetch

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		data []byte
		want Kind
	}{
		{"pdf magic", "https://example.com/file", []byte("%PDF-1.7 rest"), KindPDF},
		{"pdf extension", "https://example.com/menu.pdf", []byte("plain"), KindPDF},
		{"jpeg magic", "https://example.com/x", []byte{0xFF, 0xD8, 0xFF, 0xE0}, KindImage},
		{"png magic", "https://example.com/x", []byte{0x89, 'P', 'N', 'G', 0x0D}, KindImage},
		{"webp magic", "https://example.com/x", []byte("RIFF....WEBPVP8 "), KindImage},
		{"image extension", "https://example.com/menu.JPG", []byte("notmagic"), KindImage},
		{"html default", "https://example.com/menu", []byte("<html>"), KindHTML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.url, tt.data); got != tt.want {
				t.Fatalf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestImageExt(t *testing.T) {
	if got := ImageExt("https://x/y", []byte{0x89, 'P', 'N', 'G'}); got != ".png" {
		t.Fatalf("png magic: got %q", got)
	}
	if got := ImageExt("https://x/photo.jpeg", []byte("nomagic")); got != ".jpg" {
		t.Fatalf("jpeg extension: got %q", got)
	}
	if got := ImageExt("https://x/photo", []byte("nomagic")); got != ".jpg" {
		t.Fatalf("default: got %q", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://example.com/menu", "/dinner", "https://example.com/dinner"},
		{"https://example.com/menu/", "wine.pdf", "https://example.com/menu/wine.pdf"},
		{"https://example.com", "https://other.com/a", "https://other.com/a"},
		{"https://example.com", "javascript:void(0)", ""},
		{"https://example.com", "mailto:a@b.c", ""},
		{"https://example.com", "#section", ""},
		{"https://example.com", "", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.base, tt.href); got != tt.want {
			t.Errorf("NormalizeURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}
