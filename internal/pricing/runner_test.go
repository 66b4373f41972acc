package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	products  []Product
	lastLimit int
}

func (c *stubCatalog) Products(_ context.Context, limit int) ([]Product, error) {
	c.lastLimit = limit
	return c.products, nil
}

type stubIDs struct{}

func (stubIDs) NewID() (string, error) { return "run-123", nil }

func TestRunner_Run(t *testing.T) {
	product := Product{
		ID:             "prod-7",
		Handle:         "fortis-nxt-720w",
		Title:          "Fortis NXT 720W",
		Manufacturer:   "Fox Lighting",
		ReferencePrice: 169.99,
	}
	queryURLA := "https://a.example/s/Fox+Lighting+Fortis+NXT+720W"
	queryURLB := "https://b.example/s/Fox+Lighting+Fortis+NXT+720W"

	fetcher := newStubFetcher()
	fetcher.responses[queryURLA] = `Fox Lighting Fortis NXT 720W <span>179,00 €</span>`
	fetcher.responses[queryURLB] = `<title>Just a moment...</title>`

	sources := []ShopSource{
		{Name: "shop-a", SearchURLTemplates: []string{"https://a.example/s/{query}"}, Enabled: true},
		{Name: "shop-b", SearchURLTemplates: []string{"https://b.example/s/{query}"}, Enabled: true},
		{Name: "shop-off", SearchURLTemplates: []string{"https://off.example/s/{query}"}, Enabled: false},
	}

	health := NewHealthTracker(3)
	prospector := NewProspector(fetcher, health, nil, &stubClock{}, ProspectorConfig{}, nil)
	catalog := &stubCatalog{products: []Product{product}}
	runner := NewRunner(catalog, sources, prospector, health, &stubClock{}, stubIDs{}, RunnerConfig{
		ProductLimit:    10,
		ShopConcurrency: 2,
	}, nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-123", report.RunID)
	assert.Equal(t, 10, catalog.lastLimit)
	require.Len(t, report.Results, 1)

	result := report.Results[0]
	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, "Fox Lighting Fortis NXT 720W", result.Query)
	assert.Equal(t, 1, result.SampledShops)
	assert.Equal(t, 1, result.BlockedShops)
	assert.Equal(t, 2, result.TotalShops)
	require.NotNil(t, result.PriceStats)
	assert.InDelta(t, 179.00, result.Lowest, 0.001)
	assert.InDelta(t, 179.00, result.Average, 0.001)
	assert.Equal(t, 1, result.Samples)

	// Attempt summaries come back in registry order even though the
	// batch ran concurrently.
	require.Len(t, result.ShopResults, 2)
	assert.Equal(t, "shop-a", result.ShopResults[0].Shop)
	assert.Equal(t, "shop-b", result.ShopResults[1].Shop)
	assert.Equal(t, StatusBlocked, result.ShopResults[1].Status)

	require.Len(t, report.ShopHealth, 2)
	assert.Equal(t, "shop-a", report.ShopHealth[0].Shop)
}

func TestRunner_NoPricesFound(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.responses["https://a.example/s/Widget"] = "<p>nichts gefunden</p>"

	sources := []ShopSource{
		{Name: "shop-a", SearchURLTemplates: []string{"https://a.example/s/{query}"}, Enabled: true},
	}
	health := NewHealthTracker(3)
	prospector := NewProspector(fetcher, health, nil, &stubClock{}, ProspectorConfig{}, nil)
	catalog := &stubCatalog{products: []Product{{ID: "p", Title: "Widget"}}}
	runner := NewRunner(catalog, sources, prospector, health, &stubClock{}, stubIDs{}, RunnerConfig{}, nil)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	result := report.Results[0]
	assert.Equal(t, StatusNoPricesFound, result.Status)
	assert.Nil(t, result.PriceStats)
	assert.Zero(t, result.SampledShops)
}

func TestRunner_SourceFilters(t *testing.T) {
	sources := []ShopSource{
		{Name: "shop-a", Enabled: true},
		{Name: "shop-b", Enabled: true},
		{Name: "shop-c", Enabled: true},
		{Name: "shop-off", Enabled: false},
	}

	only := NewRunner(nil, sources, nil, nil, nil, nil, RunnerConfig{OnlyShop: "shop-b"}, nil)
	filtered := only.enabledSources()
	require.Len(t, filtered, 1)
	assert.Equal(t, "shop-b", filtered[0].Name)

	capped := NewRunner(nil, sources, nil, nil, nil, nil, RunnerConfig{MaxShops: 2}, nil)
	filtered = capped.enabledSources()
	require.Len(t, filtered, 2)
	assert.Equal(t, "shop-a", filtered[0].Name)
	assert.Equal(t, "shop-b", filtered[1].Name)
}

func TestRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	catalog := &stubCatalog{products: []Product{{ID: "p", Title: "Widget"}}}
	health := NewHealthTracker(3)
	prospector := NewProspector(newStubFetcher(), health, nil, &stubClock{}, ProspectorConfig{}, nil)
	runner := NewRunner(catalog, nil, prospector, health, &stubClock{}, stubIDs{}, RunnerConfig{}, nil)

	report, err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}

func TestRunReport_Rows(t *testing.T) {
	stats := PriceStats{Lowest: 169.99, Average: 179.63, Highest: 189.90, Samples: 3}
	run := RunReport{
		Results: []ProductReport{
			{
				ProductID:      "prod-7",
				Title:          "Fortis NXT 720W",
				Manufacturer:   "Fox Lighting",
				Handle:         "fortis-nxt-720w",
				Query:          "Fox Lighting Fortis NXT 720W",
				Status:         StatusOK,
				ReferencePrice: 169.99,
				PriceStats:     &stats,
				SampledShops:   2,
				TotalShops:     3,
			},
			{ProductID: "prod-8", Status: StatusNoPricesFound, TotalShops: 3},
		},
	}

	rows := run.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "prod-7", rows[0].ProductID)
	assert.InDelta(t, 169.99, rows[0].Lowest, 0.001)
	assert.Equal(t, 3, rows[0].Samples)
	assert.Zero(t, rows[1].Lowest)
	assert.Equal(t, StatusNoPricesFound, rows[1].Status)
}
