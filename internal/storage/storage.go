package storage

import "context"

// Uploader persists user-submitted files in an object store and hands back a
// public URL for them. KeyFromURL inverts Save's URL so stored links can be
// cleaned up later.
type Uploader interface {
	Save(ctx context.Context, key string, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}
