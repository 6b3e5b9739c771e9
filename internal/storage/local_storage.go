package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalImageStore writes images to a directory on disk and serves them
// under the /uploads/labels public prefix.
type LocalImageStore struct {
	uploadDir string
}

func NewLocalImageStore(uploadDir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{uploadDir: uploadDir}, nil
}

func (s *LocalImageStore) Save(ctx context.Context, filename string, data []byte) (StoredImage, error) {
	if err := ctx.Err(); err != nil {
		return StoredImage{}, err
	}
	path := filepath.Join(s.uploadDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return StoredImage{}, fmt.Errorf("write image: %w", err)
	}
	return StoredImage{
		Ref: path,
		URL: "/uploads/labels/" + filename,
	}, nil
}

func (s *LocalImageStore) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
