// Package sources loads and validates the shop-source registry.
package sources

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hortiva/priceintel/internal/pricing"
)

// registryFile is the on-disk YAML shape of the source registry.
type registryFile struct {
	Shops []pricing.ShopSource `yaml:"shops"`
}

// Load reads the registry file and validates every source. A missing or
// malformed registry is a setup error and aborts the run before any
// product is processed.
func Load(path string) ([]pricing.ShopSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source registry %s: %w", path, err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source registry %s: %w", path, err)
	}
	if len(file.Shops) == 0 {
		return nil, fmt.Errorf("source registry %s contains no shops", path)
	}
	if err := Validate(file.Shops); err != nil {
		return nil, err
	}
	return file.Shops, nil
}

// Validate enforces the registry invariants: unique names and, for every
// enabled source, at least one template carrying the query placeholder.
func Validate(shops []pricing.ShopSource) error {
	seen := make(map[string]struct{}, len(shops))
	for _, shop := range shops {
		name := strings.TrimSpace(shop.Name)
		if name == "" {
			return fmt.Errorf("shop source with empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate shop source %q", name)
		}
		seen[name] = struct{}{}
		if !shop.Enabled {
			continue
		}
		if len(shop.SearchURLTemplates) == 0 {
			return fmt.Errorf("shop source %q has no search templates", name)
		}
		for _, template := range shop.SearchURLTemplates {
			if !strings.Contains(template, pricing.QueryPlaceholder) {
				return fmt.Errorf("shop source %q template %q is missing the %s placeholder",
					name, template, pricing.QueryPlaceholder)
			}
		}
	}
	return nil
}
