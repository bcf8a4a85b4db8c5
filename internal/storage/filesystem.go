package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"importer/internal/domain"
)

// FileStore persists archives onto the local filesystem. It is intended for
// development and test environments where an object storage service is not
// available.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Write persists the provided bytes at the given relative key and returns the
// canonicalized storage key. Keys are cleaned to prevent directory traversal.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return cleanKey, nil
}

// Read returns the bytes stored under key.
func (s *FileStore) Read(ctx context.Context, key string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(cleanKey)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("storage: read file: %w", err)
	}
	return data, nil
}

var _ Store = (*FileStore)(nil)
