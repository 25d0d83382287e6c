package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	require.Equal(t, version+"\n", out.String())
}

func TestServeRejectsIncompleteSettings(t *testing.T) {
	t.Setenv("MINIO_URL", "")
	t.Setenv("MINIO_ACCESS", "")
	t.Setenv("MINIO_SECRET", "")
	t.Setenv("JWT_PUBLIC_KEY", "")

	for _, args := range [][]string{
		{"serve"},
		{},
		{"serve", "--log-level", "loud"},
	} {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		err := cmd.Execute()
		require.Error(t, err, "args %v", args)
		require.ErrorContains(t, err, "MINIO_URL")
	}
}

func TestServeMissingConfigFile(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", "--config", filepath.Join(t.TempDir(), "absent.yaml")})
	err := cmd.Execute()
	require.ErrorContains(t, err, "read config file")
}
