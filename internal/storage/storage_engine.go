package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a single object held by an ObjectStore.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string

	// Err is only set on entries delivered by ListObjects and reports a
	// failed listing page. It is always the last entry on the channel.
	Err error
}

// ObjectStore is the object storage capability the gateway sits in front of.
// Implementations are shared between requests and must be safe for
// concurrent use. Errors are returned as produced by the backend; callers
// are expected to classify them.
type ObjectStore interface {
	// GetObject opens the object for streaming. The returned reader must be
	// closed by the caller.
	GetObject(ctx context.Context, bucket string, key string) (io.ReadCloser, ObjectInfo, error)

	// PutObject stores size bytes from r under key, replacing any existing
	// object with the same key.
	PutObject(ctx context.Context, bucket string, key string, r io.Reader, size int64, contentType string) error

	// StatObject retrieves object metadata without transferring content.
	StatObject(ctx context.Context, bucket string, key string) (ObjectInfo, error)

	// ListObjects streams every key in bucket, page by page. The channel is
	// closed once the listing completes or a page fails.
	ListObjects(ctx context.Context, bucket string) <-chan ObjectInfo
}
