package assets_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"assetgate/internal/assets"
	"assetgate/internal/s3test"
)

func TestListAllAcrossPages(t *testing.T) {
	t.Parallel()

	srv, store := newStore(t, 4)

	const n = 10
	for i := range n {
		srv.PutObject(bucket, fmt.Sprintf("clip-%02d.mp4", i), []byte("x"))
	}

	got, err := store.ListAll(t.Context())
	require.NoError(t, err)
	require.Len(t, got, n)

	seen := make(map[string]int)
	for _, name := range got {
		seen[name]++
	}
	for i := range n {
		require.Equalf(t, 1, seen[fmt.Sprintf("clip-%02d.mp4", i)], "clip-%02d.mp4 should appear exactly once", i)
	}
	require.Equal(t, 3, srv.Count(s3test.OpListObjects), "expected three pages")
}

func TestListAllEmptyBucket(t *testing.T) {
	t.Parallel()

	_, store := newStore(t, 0)

	got, err := store.ListAll(t.Context())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestListAllFailsOnAnyPage(t *testing.T) {
	t.Parallel()

	for _, page := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("page %d", page), func(t *testing.T) {
			t.Parallel()

			srv, store := newStore(t, 2)
			for i := range 6 {
				srv.PutObject(bucket, fmt.Sprintf("a-%d.png", i), []byte("x"))
			}
			srv.FailListPage(page, http.StatusForbidden, "AccessDenied")

			got, err := store.ListAll(t.Context())
			require.Error(t, err)
			require.Nil(t, got, "no partial listing")
			require.Equal(t, assets.KindUpstream, assets.KindOf(err))
		})
	}
}

func TestListAllMissingBucket(t *testing.T) {
	t.Parallel()

	srv := s3test.New(t)
	store := assets.NewStore(srv.Store(t, 0), "nope")

	_, err := store.ListAll(t.Context())
	require.ErrorIs(t, err, assets.ErrNotFound)
}
