package ui

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssetsPage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := AssetsPage([]Asset{
		{Name: "cat.png", Class: "image"},
		{Name: "<b>.mp3", Class: "audio"},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "<!DOCTYPE html>")
	require.Contains(t, out, `<a href="/assets/cat.png">cat.png</a>`)
	require.Contains(t, out, "&lt;b&gt;.mp3")
	require.NotContains(t, out, "<b>.mp3")
	require.Contains(t, out, "<p>2 stored.</p>")
}

func TestAssetsPageEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, AssetsPage(nil).Render(context.Background(), &buf))
	require.Contains(t, buf.String(), "No assets found.")
}
