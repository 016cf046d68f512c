// Package gcs provides a blob store backed by Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/law-makers/sismos/internal/sink/blob"
	"google.golang.org/api/googleapi"
)

// BlobStore writes documents to a bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed blob store. Objects are named prefix+name.
func New(client *storage.Client, bucket, prefix string) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Create uploads data only if no object with that name exists and returns
// a gs:// URI.
func (s *BlobStore) Create(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}
	path := s.prefix + name

	writer := s.client.Bucket(s.bucket).Object(path).
		If(storage.Conditions{DoesNotExist: true}).
		NewWriter(ctx)
	writer.ChunkSize = 0 // single request upload
	if contentType != "" {
		writer.ContentType = contentType
	}

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return "", blob.ErrExist
		}
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, path), nil
}
