// Package file provides a JSON-file catalog provider for development runs.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hortiva/priceintel/internal/pricing"
)

// Catalog serves products from a JSON file: an array of product objects.
type Catalog struct {
	path string
}

// New creates a file-backed catalog.
func New(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog file path is required")
	}
	return &Catalog{path: path}, nil
}

// Products reads the file and returns up to limit products.
func (c *Catalog) Products(_ context.Context, limit int) ([]pricing.Product, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", c.path, err)
	}
	var products []pricing.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", c.path, err)
	}
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}
