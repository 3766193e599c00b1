package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bookforge/internal/util"
)

// DirStore keeps objects under a local root directory. It backs development
// and tests where no bucket is available.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob directory root is required")
	}
	if err := util.EnsureDir(root); err != nil {
		return nil, err
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) error {
	_ = ctx
	_ = contentType
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err == nil {
		return fmt.Errorf("object already exists: %s", path)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	return util.WriteFileAtomic(full, data)
}

func (s *DirStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	_ = ctx
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", path, err)
	}
	return f, nil
}

func (s *DirStore) Remove(ctx context.Context, paths []string) error {
	_ = ctx
	for _, p := range paths {
		full, err := s.resolve(p)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove object %s: %w", p, err)
		}
	}
	return nil
}

func (s *DirStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid object path: %s", path)
	}
	return filepath.Join(s.root, clean), nil
}
