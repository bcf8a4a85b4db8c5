package extractor

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"importer/internal/fetch"
	"importer/internal/providers/genai"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func textResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"text/html"}},
	}
}

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, req genai.Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	return f.response, f.err
}

func (f *fakeCompleter) Name() string { return "fake" }

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestDiscoverMenuLinks(t *testing.T) {
	doc := docFrom(t, `<html><body>
		<a href="/menu">Our Menu</a>
		<a href="/about">About</a>
		<a href="/food">Great food here</a>
		<a href="https://other.example/menu">External menu</a>
		<a href="/menu">Duplicate</a>
	</body></html>`)

	links := discoverMenuLinks("https://bistro.example/", doc)
	want := []string{"https://bistro.example/menu", "https://bistro.example/food"}
	if len(links) != len(want) {
		t.Fatalf("got %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestFindPDFLinks(t *testing.T) {
	doc := docFrom(t, `<html><body>
		<a href="/files/dinner.pdf">Dinner menu</a>
		<a href="/menu">HTML menu</a>
	</body></html>`)

	pdfs := findPDFLinks("https://bistro.example/", doc)
	if len(pdfs) != 1 || pdfs[0] != "https://bistro.example/files/dinner.pdf" {
		t.Fatalf("got %v", pdfs)
	}
}

func TestExtractMenuTextStripsChrome(t *testing.T) {
	doc := docFrom(t, `<html><body>
		<nav><a href="/">Home</a></nav>
		<main>
			<h2>Starters</h2>
			<p>Spring Rolls $8.99</p>
			<p>`+strings.Repeat("Filler text. ", 20)+`</p>
		</main>
		<footer>Privacy policy</footer>
		<script>console.log("hi")</script>
	</body></html>`)

	text := extractMenuText(doc)
	if !strings.Contains(text, "Spring Rolls $8.99") {
		t.Errorf("menu line missing from %q", text)
	}
	if strings.Contains(text, "console.log") {
		t.Errorf("script text leaked into %q", text)
	}
	if strings.Contains(text, "Privacy policy") {
		t.Errorf("footer text leaked into %q", text)
	}
}

func TestExtractUsesAIParser(t *testing.T) {
	page := `<html><body><main>
		<p>Spring Rolls $8.99 crispy vegetable rolls</p>
		<p>` + strings.Repeat("Caesar Salad $12.50 with croutons. ", 5) + `</p>
	</main></body></html>`

	fetcher := fetch.NewClient(fetch.Options{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/robots.txt") {
				return textResponse(""), nil
			}
			if req.URL.Path == "/" || req.URL.Path == "" {
				return textResponse(page), nil
			}
			return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(""))}, nil
		})},
		Logger: zerolog.New(io.Discard),
	})

	completer := &fakeCompleter{
		response: `{"categories":[{"name":"Starters","items":[{"name":"Spring Rolls","description":"crispy","price":8.99}]}]}`,
	}

	e := New(Options{Fetcher: fetcher, Completer: completer, Logger: zerolog.New(io.Discard)})
	menu, err := e.Extract(context.Background(), "https://bistro.example/")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if menu.ItemCount() != 1 {
		t.Fatalf("got %d items, want 1", menu.ItemCount())
	}
	if menu.Categories[0].Name != "Starters" {
		t.Errorf("category = %q", menu.Categories[0].Name)
	}
	if len(completer.prompts) == 0 {
		t.Fatal("completer was never called")
	}
}

func TestExtractFallsBackToHeuristics(t *testing.T) {
	page := `<html><body><main>
		<p>STARTERS</p>
		<p>Spring Rolls $8.99</p>
		<p>` + strings.Repeat("Caesar Salad $12.50. ", 10) + `</p>
	</main></body></html>`

	fetcher := fetch.NewClient(fetch.Options{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/robots.txt") {
				return textResponse(""), nil
			}
			if req.URL.Path == "/" || req.URL.Path == "" {
				return textResponse(page), nil
			}
			return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(""))}, nil
		})},
		Logger: zerolog.New(io.Discard),
	})

	// No completer configured: the heuristic parser must still find items.
	e := New(Options{Fetcher: fetcher, Logger: zerolog.New(io.Discard)})
	menu, err := e.Extract(context.Background(), "https://bistro.example/")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if menu.ItemCount() == 0 {
		t.Fatal("heuristic parser found no items")
	}
}

func TestExtractEmptySiteYieldsEmptyMenu(t *testing.T) {
	fetcher := fetch.NewClient(fetch.Options{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/robots.txt") {
				return textResponse(""), nil
			}
			return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(""))}, nil
		})},
		Logger: zerolog.New(io.Discard),
	})

	e := New(Options{Fetcher: fetcher, Logger: zerolog.New(io.Discard)})
	menu, err := e.Extract(context.Background(), "https://bistro.example/")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if menu.ItemCount() != 0 {
		t.Fatalf("got %d items from an empty site", menu.ItemCount())
	}
}
