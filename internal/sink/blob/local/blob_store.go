// Package local implements a local filesystem blob store.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/sismos/internal/sink/blob"
)

// BlobStore writes documents into a directory.
type BlobStore struct {
	baseDir string
}

// New creates the directory if needed and checks that it is one.
func New(baseDir string) (*BlobStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "."
	}

	info, err := os.Stat(baseDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat output directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("output path %q is not a directory", baseDir)
	}

	return &BlobStore{baseDir: baseDir}, nil
}

// Create writes data to baseDir/name with create-exclusive semantics and
// returns the file path.
func (s *BlobStore) Create(_ context.Context, name, _ string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}

	fullPath := filepath.Join(s.baseDir, name)
	cleanBase := filepath.Clean(s.baseDir)
	if filepath.Dir(filepath.Clean(fullPath)) != cleanBase {
		return "", fmt.Errorf("name %q escapes the output directory", name)
	}

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", blob.ErrExist
		}
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return fullPath, nil
}
