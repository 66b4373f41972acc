// Package postgres provides the storefront-backed catalog provider.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hortiva/priceintel/internal/pricing"
)

// Config controls the Postgres connection pool used to read the catalog.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryCloser interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Catalog reads products from the storefront database.
type Catalog struct {
	pool queryCloser
}

// New creates a Postgres-backed catalog using the provided config.
func New(ctx context.Context, cfg Config) (*Catalog, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("catalog.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Catalog{pool: pool}, nil
}

// NewWithPool constructs a catalog from an existing pool (primarily for testing).
func NewWithPool(pool queryCloser) (*Catalog, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Catalog{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (c *Catalog) Close() {
	if c == nil || c.pool == nil {
		return
	}
	c.pool.Close()
}

const selectProducts = `
SELECT id, handle, title, manufacturer, price
FROM products
WHERE active
ORDER BY id
LIMIT $1`

// Products returns up to limit active products, oldest first. A limit of
// zero or less returns the whole catalog.
func (c *Catalog) Products(ctx context.Context, limit int) ([]pricing.Product, error) {
	if c == nil || c.pool == nil {
		return nil, fmt.Errorf("catalog is not configured")
	}
	var arg any
	if limit > 0 {
		arg = limit
	}
	rows, err := c.pool.Query(ctx, selectProducts, arg)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []pricing.Product
	for rows.Next() {
		var p pricing.Product
		if err := rows.Scan(&p.ID, &p.Handle, &p.Title, &p.Manufacturer, &p.ReferencePrice); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
