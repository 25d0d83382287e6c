package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"assetgate/internal/auth"
	"assetgate/internal/core"
	"assetgate/internal/s3test"
	"assetgate/pkg/client"
)

type allowAll struct{}

func (allowAll) AuthenticateRequest(ctx context.Context, r *http.Request) (*auth.Claims, error) {
	return &auth.Claims{Subject: "cli", Permissions: []string{auth.PermissionAddAsset}}, nil
}

func newGateway(t *testing.T) (*s3test.Server, string) {
	t.Helper()

	s3 := s3test.New(t, "assets", "images")
	srv, err := core.NewServer(core.NewConfig(
		core.WithStore(s3.Store(t, 0)),
		core.WithAuthEngine(allowAll{}),
	))
	require.NoError(t, err)

	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)
	return s3, httpSrv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestPutListGet(t *testing.T) {
	t.Parallel()

	s3, url := newGateway(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(src, []byte("meow"), 0o600))

	out, err := run(t, "--url", url, "put", src)
	require.NoError(t, err)
	require.Equal(t, "/assets/cat.png\n", out)

	stored, ok := s3.Object("assets", "cat.png")
	require.True(t, ok)
	require.Equal(t, "meow", string(stored))

	out, err = run(t, "--url", url, "ls")
	require.NoError(t, err)
	require.Equal(t, "cat.png\n", out)

	dst := filepath.Join(dir, "copy.png")
	out, err = run(t, "--url", url, "get", "cat.png", "-o", dst)
	require.NoError(t, err)
	require.Contains(t, out, "4 bytes")

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "meow", string(got))
}

func TestGetMissingRemovesTarget(t *testing.T) {
	t.Parallel()

	_, url := newGateway(t)
	dst := filepath.Join(t.TempDir(), "missing.png")

	_, err := run(t, "--url", url, "get", "missing.png", "-o", dst)
	require.True(t, client.IsNotFound(err), "got %v", err)

	_, statErr := os.Stat(dst)
	require.True(t, os.IsNotExist(statErr), "a failed download should not leave a file behind")
}

func TestInfoSingleAndBatch(t *testing.T) {
	t.Parallel()

	s3, url := newGateway(t)
	s3.PutObject("assets", "a.png", []byte("a"))
	s3.PutObject("assets", "b.mp3", []byte("bbb"))

	out, err := run(t, "--url", url, "info", "b.mp3")
	require.NoError(t, err)
	require.Contains(t, out, "b.mp3")
	require.Equal(t, 1, s3.Count(s3test.OpHeadObject))

	// A single missing name is reported as an error.
	_, err = run(t, "--url", url, "info", "missing.png")
	require.True(t, client.IsNotFound(err), "got %v", err)

	// Several names go through the batch endpoint, which omits missing ones.
	out, err = run(t, "--url", url, "info", "b.mp3", "missing.png", "a.png")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, "header plus two assets")
	require.True(t, strings.HasPrefix(lines[1], "b.mp3"), lines[1])
	require.True(t, strings.HasPrefix(lines[2], "a.png"), lines[2])
}

func TestArgumentValidation(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"put"},
		{"get"},
		{"info"},
		{"ls", "extra"},
	} {
		_, err := run(t, args...)
		require.Error(t, err, "args %v", args)
	}
}
