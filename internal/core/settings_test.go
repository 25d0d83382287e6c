package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsFromEnvironment(t *testing.T) {
	t.Setenv("MINIO_URL", "http://minio:9000")
	t.Setenv("MINIO_ACCESS", "access")
	t.Setenv("MINIO_SECRET", "secret")
	t.Setenv("JWT_PUBLIC_KEY", "-----BEGIN PUBLIC KEY-----\\nabc\\n-----END PUBLIC KEY-----")
	t.Setenv("ASSETGATE_BUCKET", "media")
	t.Setenv("ASSETGATE_BATCH_CONCURRENCY", "3")
	t.Setenv("ASSETGATE_LOG_LEVEL", "debug")

	s, err := LoadSettings(NewViper())
	require.NoError(t, err)
	require.Equal(t, "http://minio:9000", s.MinioURL)
	require.Equal(t, "access", s.MinioAccess)
	require.Equal(t, "secret", s.MinioSecret)
	require.Equal(t, "media", s.Bucket)
	require.Equal(t, DefaultImagesBucket, s.ImagesBucket)
	require.Equal(t, 3, s.BatchConcurrency)
	require.Equal(t, ":8080", s.Listen)
	require.Equal(t, log.DebugLevel, s.Level())
}

func TestLoadSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assetgate.yaml")
	err := os.WriteFile(path, []byte(`
listen: ":9999"
minio_url: https://s3.example.com
minio_access: a
minio_secret: s
jwt_public_key: key
list_page_size: 50
`), 0o600)
	require.NoError(t, err)

	// The environment takes precedence over the file.
	t.Setenv("MINIO_SECRET", "from-env")

	v := NewViper()
	v.SetConfigFile(path)

	s, err := LoadSettings(v)
	require.NoError(t, err)
	require.Equal(t, ":9999", s.Listen)
	require.Equal(t, "https://s3.example.com", s.MinioURL)
	require.Equal(t, "from-env", s.MinioSecret)
	require.Equal(t, 50, s.ListPageSize)
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	err := Settings{LogLevel: "loud"}.Validate()
	require.Error(t, err)
	for _, want := range []string{"MINIO_URL", "MINIO_ACCESS", "MINIO_SECRET", "JWT_PUBLIC_KEY", "bucket", `"loud"`} {
		require.ErrorContains(t, err, want)
	}

	err = Settings{
		MinioURL:     "http://localhost:9000",
		MinioAccess:  "a",
		MinioSecret:  "s",
		JWTPublicKey: "k",
		Bucket:       "assets",
		LogLevel:     "info",
	}.Validate()
	require.NoError(t, err)
}
