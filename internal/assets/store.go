package assets

import (
	"context"
	"io"
	"log/slog"
	"time"

	"assetgate/internal/storage"
)

const (
	DefaultBucket           = "assets"
	DefaultBatchConcurrency = 8
)

// Info is the metadata the gateway exposes for a stored asset. A zero
// LastModified means the store did not report one.
type Info struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// Store maps asset operations onto a single bucket of an object store and
// translates every failure into a Kind.
type Store struct {
	objects     storage.ObjectStore
	bucket      string
	concurrency int
}

type StoreOption func(*Store)

// WithBatchConcurrency bounds the number of stat calls BatchStat keeps in
// flight. Values below one mean sequential lookups.
func WithBatchConcurrency(n int) StoreOption {
	return func(s *Store) {
		s.concurrency = n
	}
}

// NewStore returns a Store for bucket. An empty bucket selects
// DefaultBucket.
func NewStore(objects storage.ObjectStore, bucket string, opts ...StoreOption) *Store {
	if bucket == "" {
		bucket = DefaultBucket
	}

	s := &Store{
		objects:     objects,
		bucket:      bucket,
		concurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

// Bucket returns the bucket the store addresses.
func (s *Store) Bucket() string {
	return s.bucket
}

func infoFrom(name string, obj storage.ObjectInfo) Info {
	if obj.Key != "" {
		name = obj.Key
	}
	return Info{Name: name, Size: obj.Size, LastModified: obj.LastModified}
}

// Fetch opens the asset for streaming. The caller must close the reader.
func (s *Store) Fetch(ctx context.Context, name string) (io.ReadCloser, Info, error) {
	rc, obj, err := s.objects.GetObject(ctx, s.bucket, name)
	if err != nil {
		return nil, Info{}, Translate("fetch", name, err)
	}
	return rc, infoFrom(name, obj), nil
}

// Put uploads size bytes from r under name, replacing any existing asset.
// Every failure is reported as KindInternal.
func (s *Store) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if err := s.objects.PutObject(ctx, s.bucket, name, r, size, contentType); err != nil {
		return Internal("store", name, err)
	}

	slog.Debug("Stored asset", "bucket", s.bucket, "name", name, "size", size, "class", AssetClass(name))
	return nil
}

// Stat retrieves the asset's metadata without transferring its content.
func (s *Store) Stat(ctx context.Context, name string) (Info, error) {
	obj, err := s.objects.StatObject(ctx, s.bucket, name)
	if err != nil {
		return Info{}, Translate("stat", name, err)
	}
	return infoFrom(name, obj), nil
}
