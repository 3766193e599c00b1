// Package blob abstracts the object store holding raw uploaded PDFs.
package blob

import (
	"context"
	"io"
)

type Store interface {
	// Upload writes a new object at path. Existing objects are not replaced.
	Upload(ctx context.Context, path string, r io.Reader, contentType string) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, paths []string) error
}
