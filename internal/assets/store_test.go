package assets_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"assetgate/internal/assets"
	"assetgate/internal/s3test"
	"assetgate/internal/storage"
)

const bucket = "assets"

// brokenStore fails every operation with a non-HTTP error.
type brokenStore struct {
	err   error
	mu    sync.Mutex
	calls int
}

func (b *brokenStore) record() {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
}

func (b *brokenStore) GetObject(ctx context.Context, bucket string, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	b.record()
	return nil, storage.ObjectInfo{}, b.err
}

func (b *brokenStore) PutObject(ctx context.Context, bucket string, key string, r io.Reader, size int64, contentType string) error {
	b.record()
	return b.err
}

func (b *brokenStore) StatObject(ctx context.Context, bucket string, key string) (storage.ObjectInfo, error) {
	b.record()
	return storage.ObjectInfo{}, b.err
}

func (b *brokenStore) ListObjects(ctx context.Context, bucket string) <-chan storage.ObjectInfo {
	b.record()
	ch := make(chan storage.ObjectInfo, 1)
	ch <- storage.ObjectInfo{Err: b.err}
	close(ch)
	return ch
}

func newStore(t *testing.T, pageSize int) (*s3test.Server, *assets.Store) {
	t.Helper()
	srv := s3test.New(t, bucket)
	return srv, assets.NewStore(srv.Store(t, pageSize), bucket)
}

func TestStorePutFetchRoundTrip(t *testing.T) {
	t.Parallel()

	srv, store := newStore(t, 0)

	payload := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 4096)
	require.NoError(t, store.Put(t.Context(), "a.png", bytes.NewReader(payload), int64(len(payload)), "image/png"))

	rc, info, err := store.Fetch(t.Context(), "a.png")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.Equal(t, "a.png", info.Name)
	require.Equal(t, int64(len(payload)), info.Size)
	require.Equal(t, 1, srv.Count(s3test.OpGetObject))
	require.Zero(t, srv.Count(s3test.OpHeadObject), "fetch is a single GET")
}

func TestStoreFetchMissingIsNotFound(t *testing.T) {
	t.Parallel()

	_, store := newStore(t, 0)

	_, _, err := store.Fetch(t.Context(), "missing.png")
	require.ErrorIs(t, err, assets.ErrNotFound)
	require.Equal(t, assets.KindNotFound, assets.KindOf(err))
}

func TestStoreStat(t *testing.T) {
	t.Parallel()

	srv, store := newStore(t, 0)
	srv.PutObject(bucket, "song.mp3", []byte("id3"))

	info, err := store.Stat(t.Context(), "song.mp3")
	require.NoError(t, err)
	require.Equal(t, "song.mp3", info.Name)
	require.Equal(t, int64(3), info.Size)
	require.False(t, info.LastModified.IsZero())
	require.Equal(t, 0, srv.Count(s3test.OpGetObject), "stat must not transfer content")

	_, err = store.Stat(t.Context(), "missing.mp3")
	require.ErrorIs(t, err, assets.ErrNotFound)
}

func TestStoreUpstreamFailures(t *testing.T) {
	t.Parallel()

	srv, store := newStore(t, 0)
	srv.PutObject(bucket, "locked.png", []byte("x"))
	srv.FailKey(bucket, "locked.png", http.StatusForbidden, "AccessDenied")

	_, _, err := store.Fetch(t.Context(), "locked.png")
	require.ErrorIs(t, err, assets.ErrUpstream)

	_, err = store.Stat(t.Context(), "locked.png")
	require.ErrorIs(t, err, assets.ErrUpstream)
}

func TestStorePutFailureIsInternal(t *testing.T) {
	t.Parallel()

	srv, store := newStore(t, 0)
	srv.FailKey(bucket, "a.png", http.StatusForbidden, "AccessDenied")

	err := store.Put(t.Context(), "a.png", bytes.NewReader([]byte("x")), 1, "")
	require.Error(t, err)
	require.Equal(t, assets.KindInternal, assets.KindOf(err), "write failures are never translated")
}

func TestStoreTransportFailureIsInternal(t *testing.T) {
	t.Parallel()

	broken := &brokenStore{err: errors.New("connection reset by peer")}
	store := assets.NewStore(broken, "")
	require.Equal(t, assets.DefaultBucket, store.Bucket())

	_, _, err := store.Fetch(t.Context(), "a.png")
	require.ErrorIs(t, err, assets.ErrInternal)

	_, err = store.Stat(t.Context(), "a.png")
	require.ErrorIs(t, err, assets.ErrInternal)

	_, err = store.ListAll(t.Context())
	require.ErrorIs(t, err, assets.ErrInternal)
}

func TestStoreUsesConfiguredBucket(t *testing.T) {
	t.Parallel()

	srv := s3test.New(t, "images")
	store := assets.NewStore(srv.Store(t, 0), "images")

	require.NoError(t, store.Put(t.Context(), "cat.gif", bytes.NewReader([]byte("gif")), 3, ""))
	_, ok := srv.Object("images", "cat.gif")
	require.True(t, ok)
}

func ExampleIsValidAssetType() {
	for _, name := range []string{"Cover.JPG", "notes.txt"} {
		fmt.Println(name, assets.IsValidAssetType(name))
	}
	// Output:
	// Cover.JPG true
	// notes.txt false
}
