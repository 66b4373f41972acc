package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultShopConcurrency is the batch size for concurrent source attempts.
const DefaultShopConcurrency = 4

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// RunnerConfig controls batch pacing and scope for a whole run.
type RunnerConfig struct {
	ProductLimit    int
	ShopConcurrency int
	ProductDelay    time.Duration
	BatchDelay      time.Duration
	MaxShops        int
	OnlyShop        string
	Settings        RunSettings
}

// Runner iterates the product batch and folds per-source attempts into the
// final report. Products run strictly sequentially; within a product the
// enabled sources are attempted in fixed-size concurrent batches.
type Runner struct {
	catalog    Catalog
	sources    []ShopSource
	prospector *Prospector
	health     *HealthTracker
	clock      Clock
	ids        IDGenerator
	cfg        RunnerConfig
	logger     *zap.Logger
}

// NewRunner constructs a Runner over the given source registry.
func NewRunner(
	catalog Catalog,
	sources []ShopSource,
	prospector *Prospector,
	health *HealthTracker,
	clock Clock,
	ids IDGenerator,
	cfg RunnerConfig,
	logger *zap.Logger,
) *Runner {
	if cfg.ShopConcurrency <= 0 {
		cfg.ShopConcurrency = DefaultShopConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		catalog:    catalog,
		sources:    sources,
		prospector: prospector,
		health:     health,
		clock:      clock,
		ids:        ids,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes the full batch and returns the report. Per-product and
// per-source failures are folded into the report; only setup failures
// (catalog read, ID generation) return an error.
func (r *Runner) Run(ctx context.Context) (RunReport, error) {
	runID, err := r.ids.NewID()
	if err != nil {
		return RunReport{}, fmt.Errorf("generate run id: %w", err)
	}
	products, err := r.catalog.Products(ctx, r.cfg.ProductLimit)
	if err != nil {
		return RunReport{}, fmt.Errorf("load products: %w", err)
	}
	sources := r.enabledSources()

	report := RunReport{
		RunID:    runID,
		Settings: r.cfg.Settings,
		Results:  make([]ProductReport, 0, len(products)),
	}

	r.logger.Info("price intelligence run starting",
		zap.String("run_id", runID),
		zap.Int("products", len(products)),
		zap.Int("sources", len(sources)),
	)

	for i, product := range products {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := sleepCtx(ctx, r.cfg.ProductDelay); err != nil {
				break
			}
		}
		result := r.runProduct(ctx, product, sources)
		report.Results = append(report.Results, result)
		r.logger.Info("product finished",
			zap.String("product", product.ID),
			zap.String("status", string(result.Status)),
			zap.Int("sampled_shops", result.SampledShops),
		)
	}

	report.GeneratedAt = r.clock.Now()
	report.ShopHealth = r.health.Snapshot()
	return report, ctx.Err()
}

// runProduct drives concurrency-limited batches of source attempts and
// aggregates the pooled samples. Summaries land in source-list order, not
// completion order, so output is deterministic.
func (r *Runner) runProduct(ctx context.Context, product Product, sources []ShopSource) ProductReport {
	query := NewProductQuery(product)
	attempts := make([]ShopAttempt, len(sources))
	samplesBySource := make([][]float64, len(sources))

	for batchStart := 0; batchStart < len(sources); batchStart += r.cfg.ShopConcurrency {
		if batchStart > 0 {
			if err := sleepCtx(ctx, r.cfg.BatchDelay); err != nil {
				break
			}
		}
		batchEnd := batchStart + r.cfg.ShopConcurrency
		if batchEnd > len(sources) {
			batchEnd = len(sources)
		}

		var wg sync.WaitGroup
		for i := batchStart; i < batchEnd; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				attempts[idx], samplesBySource[idx] = r.prospector.Attempt(ctx, query, sources[idx])
			}(i)
		}
		wg.Wait()
	}

	return r.aggregate(query, sources, attempts, samplesBySource)
}

func (r *Runner) aggregate(query ProductQuery, sources []ShopSource, attempts []ShopAttempt, samplesBySource [][]float64) ProductReport {
	result := ProductReport{
		ProductID:      query.ID,
		Title:          query.Title,
		Handle:         query.Handle,
		Manufacturer:   query.Manufacturer,
		Query:          query.Query,
		Status:         StatusNoPricesFound,
		ReferencePrice: query.ReferencePrice,
		TotalShops:     len(sources),
		Links:          []string{},
		ShopResults:    attempts,
	}

	var pool []float64
	for i := range attempts {
		switch attempts[i].Status {
		case StatusOK:
			result.SampledShops++
			result.Links = append(result.Links, attempts[i].MatchedLinks...)
		case StatusBlocked:
			result.BlockedShops++
		}
		pool = append(pool, samplesBySource[i]...)
	}
	if len(pool) > 0 {
		stats := Summarize(pool)
		result.PriceStats = &stats
		result.Status = StatusOK
	}
	return result
}

// enabledSources applies the enabled flag, the single-source filter, and
// the max-sources cap, preserving registry order.
func (r *Runner) enabledSources() []ShopSource {
	out := make([]ShopSource, 0, len(r.sources))
	for _, s := range r.sources {
		if !s.Enabled {
			continue
		}
		if r.cfg.OnlyShop != "" && s.Name != r.cfg.OnlyShop {
			continue
		}
		out = append(out, s)
		if r.cfg.MaxShops > 0 && len(out) >= r.cfg.MaxShops {
			break
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
