// Package app initializes and holds long-lived application services,
// acting as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	filecatalog "github.com/hortiva/priceintel/internal/catalog/file"
	pgcatalog "github.com/hortiva/priceintel/internal/catalog/postgres"
	"github.com/hortiva/priceintel/internal/config"
	"github.com/hortiva/priceintel/internal/logging"
	"github.com/hortiva/priceintel/internal/pricing"
	pubsubpublisher "github.com/hortiva/priceintel/internal/publisher/pubsub"
	"github.com/hortiva/priceintel/internal/sources"
	gcsstore "github.com/hortiva/priceintel/internal/storage/gcs"
	localstore "github.com/hortiva/priceintel/internal/storage/local"
)

// App holds the shared, long-lived services for one invocation: logger,
// catalog provider, source registry, debug blob store, and publisher.
// It is initialized once at startup and fails fast when any critical
// service cannot be built.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Catalog   pricing.Catalog
	Sources   []pricing.ShopSource
	Blobs     pricing.BlobStore
	Publisher pricing.Publisher

	closers []func()
}

// New builds the application services from the configuration at cfgPath.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	a := &App{Config: cfg, Logger: logger}

	a.Sources, err = sources.Load(cfg.Sources.Path)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.initCatalog(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initBlobs(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initPublisher(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) initCatalog(ctx context.Context, cfg config.Config) error {
	switch cfg.Catalog.Provider {
	case "file":
		catalog, err := filecatalog.New(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("init file catalog: %w", err)
		}
		a.Catalog = catalog
	case "postgres":
		catalog, err := pgcatalog.New(ctx, pgcatalog.Config{
			DSN:      cfg.Catalog.DSN,
			MaxConns: cfg.Catalog.MaxConns,
			MinConns: cfg.Catalog.MinConns,
		})
		if err != nil {
			return fmt.Errorf("init postgres catalog: %w", err)
		}
		a.Catalog = catalog
		a.closers = append(a.closers, catalog.Close)
	default:
		return fmt.Errorf("unknown catalog provider: %s", cfg.Catalog.Provider)
	}
	return nil
}

func (a *App) initBlobs(ctx context.Context, cfg config.Config) error {
	if !cfg.Debug.DumpPages {
		return nil
	}
	switch cfg.Debug.Provider {
	case "local":
		store, err := localstore.New(localstore.Config{BaseDir: cfg.Debug.BaseDir})
		if err != nil {
			return fmt.Errorf("init local blob store: %w", err)
		}
		a.Blobs = store
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("init gcs client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		store, err := gcsstore.New(client, gcsstore.Config{Bucket: cfg.Debug.GCSBucket})
		if err != nil {
			return fmt.Errorf("init gcs blob store: %w", err)
		}
		a.Blobs = store
	default:
		return fmt.Errorf("unknown debug storage provider: %s", cfg.Debug.Provider)
	}
	return nil
}

func (a *App) initPublisher(ctx context.Context, cfg config.Config) error {
	if !cfg.PubSub.Enabled {
		return nil
	}
	client, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("init pubsub client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	topic := client.Topic(cfg.PubSub.TopicName)
	a.closers = append(a.closers, topic.Stop)
	a.Publisher = pubsubpublisher.New(topic)
	return nil
}

// Close releases all service resources in reverse initialization order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
