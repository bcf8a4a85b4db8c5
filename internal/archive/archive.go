// Package archive packs a manifest and its images into the zip layout the
// export consumers expect: everything under a single slug-named root folder.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
)

// Build produces a zip archive rooted at slug/, containing manifest.json and
// an images/ folder. Image entries are written in filename order so the
// archive bytes are deterministic for a given input.
func Build(slug string, manifestJSON []byte, images map[string][]byte) ([]byte, error) {
	if slug == "" {
		return nil, fmt.Errorf("archive: slug is required")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifestEntry, err := zw.Create(slug + "/manifest.json")
	if err != nil {
		return nil, fmt.Errorf("archive: create manifest entry: %w", err)
	}
	if _, err := manifestEntry.Write(manifestJSON); err != nil {
		return nil, fmt.Errorf("archive: write manifest: %w", err)
	}

	filenames := make([]string, 0, len(images))
	for name := range images {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	for _, name := range filenames {
		entry, err := zw.Create(slug + "/images/" + name)
		if err != nil {
			return nil, fmt.Errorf("archive: create image entry %s: %w", name, err)
		}
		if _, err := entry.Write(images[name]); err != nil {
			return nil, fmt.Errorf("archive: write image %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalize: %w", err)
	}
	return buf.Bytes(), nil
}
