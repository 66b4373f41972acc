package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
  {"id": "prod-1", "handle": "cloudline-s6", "title": "Cloudline S6", "manufacturer": "AC Infinity", "reference_price": 179.0},
  {"id": "prod-2", "handle": "fortis-nxt-720w", "title": "Fortis NXT 720W", "manufacturer": "Fox Lighting", "reference_price": 169.99},
  {"id": "prod-3", "handle": "hydro-shoot-120", "title": "Hydro Shoot 120", "manufacturer": "Secret Jardin"}
]`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o600))
	return path
}

func TestCatalog_Products(t *testing.T) {
	catalog, err := New(writeCatalog(t))
	require.NoError(t, err)

	products, err := catalog.Products(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "AC Infinity", products[0].Manufacturer)
	assert.Zero(t, products[2].ReferencePrice)
}

func TestCatalog_ProductsLimit(t *testing.T) {
	catalog, err := New(writeCatalog(t))
	require.NoError(t, err)

	products, err := catalog.Products(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "prod-2", products[1].ID)
}

func TestCatalog_Errors(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	catalog, err := New(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	_, err = catalog.Products(context.Background(), 0)
	assert.ErrorContains(t, err, "read catalog file")
}
