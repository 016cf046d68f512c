// Package blob defines where the file sink puts its documents.
package blob

import (
	"context"
	"errors"
)

// ErrExist is returned by Store.Create when the name is already taken.
var ErrExist = errors.New("blob already exists")

// Store writes named blobs without ever replacing an existing one.
type Store interface {
	// Create writes data under name and returns a URI for it. It fails with
	// ErrExist, and leaves the existing blob untouched, when name is taken.
	Create(ctx context.Context, name, contentType string, data []byte) (string, error)
}
