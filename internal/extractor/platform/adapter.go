// Package platform holds adapters for hosted ordering platforms whose menu
// data can be pulled from a structured API instead of scraped.
package platform

import (
	"context"

	"importer/internal/domain"
)

// Adapter fetches a structured menu for URLs hosted on a known platform.
type Adapter interface {
	// Name identifies the platform in logs.
	Name() string
	// Match reports whether the adapter can handle the given URL.
	Match(rawURL string) bool
	// Fetch retrieves and maps the platform's menu data.
	Fetch(ctx context.Context, rawURL string) (*domain.ParsedMenu, error)
}
