// internal/storage/local.go
package storage

import (
	"context"
	"fmt"

	"github.com/chartmuseum/storage"
)

// LocalClient implements ObjectStorage on the local filesystem, backed by
// chartmuseum's local backend so the archive can later move to any of its
// S3-compatible backends without touching callers.
type LocalClient struct {
	backend storage.Backend
}

func NewLocalClient(rootDir string) (*LocalClient, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("archive root directory must be provided")
	}
	return &LocalClient{
		backend: storage.NewLocalFilesystemBackend(rootDir),
	}, nil
}

// ListObjects lists object keys for a given prefix.
func (c *LocalClient) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	files, err := c.backend.ListObjects(prefix)
	if err != nil {
		return nil, fmt.Errorf("archive list failed: %w", err)
	}
	keys := make([]string, 0, len(files))
	for _, object := range files {
		keys = append(keys, object.Path)
	}
	return keys, nil
}

// GetObject reads one object's content.
func (c *LocalClient) GetObject(ctx context.Context, key string) ([]byte, error) {
	object, err := c.backend.GetObject(key)
	if err != nil {
		return nil, fmt.Errorf("archive get %s failed: %w", key, err)
	}
	return object.Content, nil
}

// PutObject stores one object's content.
func (c *LocalClient) PutObject(ctx context.Context, key string, data []byte) error {
	if err := c.backend.PutObject(key, data); err != nil {
		return fmt.Errorf("archive put %s failed: %w", key, err)
	}
	return nil
}

var _ ObjectStorage = (*LocalClient)(nil)
