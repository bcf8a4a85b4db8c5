// Package storage persists result archives behind an opaque key. The local
// filesystem backs development and tests; object storage backs production.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Store persists and retrieves blobs by key.
type Store interface {
	// Write persists the bytes and returns the canonicalized storage key.
	Write(ctx context.Context, key string, data []byte) (string, error)
	// Read returns the bytes previously written under key.
	Read(ctx context.Context, key string) ([]byte, error)
}

// ArchiveKey is the canonical location of a job's result archive.
func ArchiveKey(jobID, slug string) string {
	return fmt.Sprintf("menu-importer/%s/%s.zip", jobID, slug)
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
