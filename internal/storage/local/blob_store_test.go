package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStore_PutObject(t *testing.T) {
	baseDir := t.TempDir()
	store, err := New(Config{BaseDir: baseDir})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "pages/shop/product.html", "text/html", []byte("<html>"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))

	data, err := os.ReadFile(filepath.Join(baseDir, "pages", "shop", "product.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(data))
}

func TestBlobStore_PathTraversalRejected(t *testing.T) {
	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "../escape.html", "text/html", []byte("x"))
	assert.ErrorContains(t, err, "path traversal")
}

func TestNew_CreatesBaseDir(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", "dumps")
	_, err := New(Config{BaseDir: baseDir})
	require.NoError(t, err)

	info, err := os.Stat(baseDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNew_EmptyBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
