package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hortiva/priceintel/internal/api"
	"github.com/hortiva/priceintel/internal/app"
	"github.com/hortiva/priceintel/internal/clock/system"
	collyfetcher "github.com/hortiva/priceintel/internal/fetcher/colly"
	"github.com/hortiva/priceintel/internal/id/uuid"
	"github.com/hortiva/priceintel/internal/pricing"
	"github.com/hortiva/priceintel/internal/report"
)

// newCrawlCmd creates the 'crawl' subcommand, which runs the full price
// intelligence batch and writes the report files.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run the price intelligence batch",
		Long: `Queries every enabled shop source for each catalog product, extracts
comparison prices, and writes the aggregated report to the configured
JSON and CSV sinks.`,
		RunE: runCrawl,
	}
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := a.Config
	logger := a.Logger

	if cfg.Server.Enabled {
		statusServer := api.NewServer(cfg.Server.Port, logger)
		statusServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := statusServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown failed", zap.Error(err))
			}
		}()
	}

	runner := buildRunner(a)
	runReport, runErr := runner.Run(cmd.Context())
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run crawl: %w", runErr)
	}
	if errors.Is(runErr, context.Canceled) {
		logger.Warn("run canceled, writing partial report",
			zap.Int("products_done", len(runReport.Results)),
		)
	}

	if cfg.Report.JSONPath != "" {
		if err := report.WriteJSON(cfg.Report.JSONPath, runReport); err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
		logger.Info("json report written", zap.String("path", cfg.Report.JSONPath))
	}
	if cfg.Report.CSVPath != "" {
		if err := report.WriteCSV(cfg.Report.CSVPath, runReport); err != nil {
			return fmt.Errorf("write csv report: %w", err)
		}
		logger.Info("csv report written", zap.String("path", cfg.Report.CSVPath))
	}

	publishCompletion(cmd.Context(), a, runReport)

	logger.Info("crawl finished",
		zap.String("run_id", runReport.RunID),
		zap.Int("products", len(runReport.Results)),
	)
	return nil
}

func buildRunner(a *app.App) *pricing.Runner {
	cfg := a.Config
	clk := system.New()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:      cfg.HTTP.UserAgent,
		AcceptLanguage: cfg.HTTP.AcceptLanguage,
		Timeout:        cfg.HTTP.Timeout,
		MaxRetries:     cfg.HTTP.MaxRetries,
		RetryTimeouts:  cfg.HTTP.RetryTimeouts,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		PerHostRPS:     cfg.HTTP.PerHostRPS,
		PerHostBurst:   cfg.HTTP.PerHostBurst,
	}, a.Logger)

	health := pricing.NewHealthTracker(cfg.Crawl.SkipAfter)

	prospector := pricing.NewProspector(fetcher, health, a.Blobs, clk, pricing.ProspectorConfig{
		MaxLinks:           cfg.Crawl.MaxLinks,
		VerifyProductPages: cfg.Crawl.VerifyProductPages,
		DumpPages:          cfg.Debug.DumpPages && a.Blobs != nil,
		DumpPrefix:         cfg.Debug.Prefix,
	}, a.Logger)

	return pricing.NewRunner(a.Catalog, a.Sources, prospector, health, clk, uuid.New(), pricing.RunnerConfig{
		ProductLimit:    cfg.Crawl.ProductLimit,
		ShopConcurrency: cfg.Crawl.ShopConcurrency,
		ProductDelay:    cfg.Crawl.ProductDelay,
		BatchDelay:      cfg.Crawl.BatchDelay,
		MaxShops:        cfg.Crawl.MaxShops,
		OnlyShop:        cfg.Crawl.OnlyShop,
		Settings:        cfg.RunSettings(),
	}, a.Logger)
}

// publishCompletion notifies downstream consumers that a run finished.
// Publish failures are logged, not fatal: the report on disk is the
// source of truth.
func publishCompletion(ctx context.Context, a *app.App, run pricing.RunReport) {
	if a.Publisher == nil {
		return
	}
	event := pricing.RunCompletedEvent{
		RunID:       run.RunID,
		GeneratedAt: run.GeneratedAt,
		Products:    len(run.Results),
		ReportPath:  a.Config.Report.JSONPath,
	}
	id, err := a.Publisher.Publish(ctx, a.Config.PubSub.TopicName, event)
	if err != nil {
		a.Logger.Warn("run completion publish failed", zap.Error(err))
		return
	}
	a.Logger.Info("run completion published",
		zap.String("message_id", id),
		zap.String("run_id", run.RunID),
	)
}
