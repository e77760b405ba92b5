// internal/storage/storage.go
package storage

import "context"

// ObjectStorage captures the minimal operations the decision archive needs.
// ListObjects returns keys relative to the prefix; the backends do not report
// sizes on listing, so no metadata beyond the key is surfaced.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]string, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte) error
}
