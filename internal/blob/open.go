package blob

import (
	"context"
	"fmt"

	"bookforge/internal/logger"
)

// Open picks the configured backend: "gcs" for a Cloud Storage bucket,
// "dir" for a local directory tree.
func Open(ctx context.Context, log *logger.Logger, backend, bucket, dir string) (Store, error) {
	switch backend {
	case "gcs":
		if bucket == "" {
			return nil, fmt.Errorf("gcs blob backend requires a bucket name")
		}
		return NewGCSStore(ctx, log, bucket)
	case "dir", "":
		return NewDirStore(dir)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", backend)
	}
}
