package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const DefaultListPageSize = 1000

// MinioOptions holds the connection settings for a MinioStore.
type MinioOptions struct {
	// Endpoint is either host:port or a URL. An https scheme enables TLS.
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool

	// ListPageSize is the number of keys requested per listing page.
	ListPageSize int
}

// MinioStore is an ObjectStore backed by any S3-compatible service reachable
// through minio-go.
type MinioStore struct {
	client   *minio.Client
	pageSize int
}

// ParseEndpoint splits a configured endpoint into the host:port form minio-go
// expects and reports whether TLS should be used.
func ParseEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), false, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}

	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// NewMinioStore creates a MinioStore. No request is made until the store is
// first used.
func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	host, secure, err := ParseEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	if host == "" {
		return nil, fmt.Errorf("endpoint must not be empty")
	}

	client, err := minio.New(host, &minio.Options{
		Creds:      credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:     secure || opts.Secure,
		Region:     opts.Region,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return NewMinioStoreFromClient(client, opts.ListPageSize), nil
}

// NewMinioStoreFromClient wraps an existing client.
func NewMinioStoreFromClient(client *minio.Client, pageSize int) *MinioStore {
	if pageSize <= 0 {
		pageSize = DefaultListPageSize
	}
	return &MinioStore{client: client, pageSize: pageSize}
}

// EnsureBucket checks if a bucket exists, and creates it if it does not.
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
		}
		slog.Info("Created bucket", "bucket", bucket)
	}
	return nil
}

// GetObject issues a single GET and returns its body together with the
// metadata from the response headers. A missing object is reported here,
// before any of the body has been read.
func (s *MinioStore) GetObject(ctx context.Context, bucket string, key string) (io.ReadCloser, ObjectInfo, error) {
	core := minio.Core{Client: s.client}

	body, info, _, err := core.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	return body, fromMinio(info), nil
}

func (s *MinioStore) PutObject(ctx context.Context, bucket string, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) StatObject(ctx context.Context, bucket string, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, err
	}
	return fromMinio(info), nil
}

// ListObjects runs a recursive ListObjectsV2 listing. minio-go follows the
// continuation tokens itself and stops after the first failed page.
func (s *MinioStore) ListObjects(ctx context.Context, bucket string) <-chan ObjectInfo {
	out := make(chan ObjectInfo)

	go func() {
		defer close(out)

		opts := minio.ListObjectsOptions{
			Recursive: true,
			MaxKeys:   s.pageSize,
		}

		for obj := range s.client.ListObjects(ctx, bucket, opts) {
			select {
			case out <- fromMinio(obj):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func fromMinio(info minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		Err:          info.Err,
	}
}
