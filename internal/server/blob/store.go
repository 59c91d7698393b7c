// Package blob stores report attachments in S3-compatible object storage.
package blob

import (
	"context"
	"io"
)

// Store is the object-storage contract used by the services layer.
type Store interface {
	// Put uploads an object under key.
	Put(ctx context.Context, key string, contentType string, body io.Reader) error

	// Delete removes the object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PresignGet returns a short-lived download URL for the object, so
	// attachment bytes never stream through the API server.
	PresignGet(ctx context.Context, key string) (string, error)
}
