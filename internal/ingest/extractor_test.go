package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExtractor_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("extracted content"), 0o644))

	text, err := NewFileExtractor().Extract(context.Background(), path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "extracted content", text)
}

func TestFileExtractor_UnreadableFileYieldsEmptyText(t *testing.T) {
	text, err := NewFileExtractor().Extract(context.Background(), "/nonexistent/file.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestFileExtractor_UnsupportedTypeYieldsEmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o644))

	text, err := NewFileExtractor().Extract(context.Background(), path, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}
