package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"bookforge/internal/logger"
)

// GCSStore keeps uploaded documents in a Google Cloud Storage bucket.
type GCSStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, log *logger.Logger, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{
		log:    log.With("store", "gcs", "bucket", bucket),
		client: client,
		bucket: bucket,
	}, nil
}

func (s *GCSStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(path).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer %s: %w", path, err)
	}
	return nil
}

func (s *GCSStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", path, err)
	}
	return rc, nil
}

func (s *GCSStore) Remove(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := s.client.Bucket(s.bucket).Object(p).Delete(ctx); err != nil {
			return fmt.Errorf("delete object %s: %w", p, err)
		}
		s.log.Debug("object removed", "path", p)
	}
	return nil
}
