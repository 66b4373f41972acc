// Package pricing implements the competitive price intelligence pipeline:
// it queries external shop sources for catalog products, extracts prices
// from third-party markup, and aggregates them into a comparison report.
package pricing

import "time"

// AttemptStatus is the outcome class of querying one shop for one product.
type AttemptStatus string

// Attempt status values recorded in shop summaries and product reports.
const (
	StatusOK            AttemptStatus = "ok"
	StatusNoPricesFound AttemptStatus = "no_prices_found"
	StatusBlocked       AttemptStatus = "blocked"
	StatusErr           AttemptStatus = "error"
	StatusSkipped       AttemptStatus = "skipped"
)

// ShopSource describes one external shop whose search results are scraped.
// Loaded once per run from the source registry and never mutated.
type ShopSource struct {
	Name               string   `json:"name" yaml:"name"`
	Domain             string   `json:"domain" yaml:"domain"`
	SearchURLTemplates []string `json:"search_url_templates" yaml:"search_url_templates"`
	Enabled            bool     `json:"enabled" yaml:"enabled"`
}

// Product is the slice of a catalog product the crawler needs.
type Product struct {
	ID             string  `json:"id"`
	Handle         string  `json:"handle"`
	Title          string  `json:"title"`
	Manufacturer   string  `json:"manufacturer"`
	ReferencePrice float64 `json:"reference_price,omitempty"`
}

// ProductQuery is a Product prepared for searching: the rendered query
// string plus the title matcher used to score result relevance.
type ProductQuery struct {
	Product
	Query   string
	Matcher *TitleMatcher
}

// NewProductQuery derives the search query and matcher for a product.
// The query is "manufacturer title" with duplicate tokens removed.
func NewProductQuery(p Product) ProductQuery {
	return ProductQuery{
		Product: p,
		Query:   dedupeTokens(p.Manufacturer + " " + p.Title),
		Matcher: NewTitleMatcher(p.Manufacturer, p.Title),
	}
}

// PriceStats summarizes a non-empty pool of price samples.
type PriceStats struct {
	Lowest  float64 `json:"lowest"`
	Average float64 `json:"average"`
	Highest float64 `json:"highest"`
	Samples int     `json:"samples"`
}

// ShopAttempt is the immutable record of querying one source for one product.
// The embedded stats are present only when Status is StatusOK.
type ShopAttempt struct {
	Shop         string        `json:"shop"`
	Status       AttemptStatus `json:"status"`
	URL          string        `json:"url,omitempty"`
	MatchedLinks []string      `json:"matched_links,omitempty"`
	*PriceStats
	Info           string `json:"info,omitempty"`
	FilterBypassed bool   `json:"filter_bypassed,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
}

// ShopHealth tracks per-source failure state for the lifetime of a run.
type ShopHealth struct {
	Shop          string  `json:"shop"`
	Runs          int     `json:"runs"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	TimeoutsInRow int     `json:"timeouts_in_row"`
	Skipped       int     `json:"skipped"`
}

// ProductReport is the aggregated comparison result for one product.
type ProductReport struct {
	ProductID    string        `json:"product_id"`
	Title        string        `json:"title"`
	Handle       string        `json:"handle"`
	Manufacturer string        `json:"manufacturer"`
	Query        string        `json:"query"`
	Status       AttemptStatus `json:"status"`
	ReferencePrice float64     `json:"reference_price,omitempty"`
	*PriceStats
	SampledShops int           `json:"sampled_shops"`
	BlockedShops int           `json:"blocked_shops"`
	TotalShops   int           `json:"total_shops"`
	Links        []string      `json:"links"`
	ShopResults  []ShopAttempt `json:"shop_results"`
}

// RunSettings echoes the effective run parameters into the report.
type RunSettings struct {
	ProductLimit      int           `json:"product_limit"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	MaxRetries        int           `json:"max_retries"`
	RetryOnTimeout    bool          `json:"retry_on_timeout"`
	ProductDelay      time.Duration `json:"product_delay"`
	BatchDelay        time.Duration `json:"batch_delay"`
	ShopConcurrency   int           `json:"shop_concurrency"`
	SkipAfter         int           `json:"skip_after"`
	MaxBodyBytes      int           `json:"max_body_bytes"`
	MaxLinks          int           `json:"max_links"`
	VerifyProductPage bool          `json:"verify_product_pages"`
}

// RunReport is the top-level output of one crawl run.
type RunReport struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Settings    RunSettings     `json:"settings"`
	ShopHealth  []ShopHealth    `json:"shop_health"`
	Results     []ProductReport `json:"results"`
}

// RunCompletedEvent is the message published when a run finishes, so the
// repricing side can pick up the fresh report.
type RunCompletedEvent struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Products    int       `json:"products"`
	ReportPath  string    `json:"report_path,omitempty"`
}

// ReportRow is one product flattened for tabular export.
type ReportRow struct {
	ProductID      string
	Manufacturer   string
	Title          string
	Handle         string
	Query          string
	Status         AttemptStatus
	ReferencePrice float64
	Lowest         float64
	Average        float64
	Highest        float64
	Samples        int
	SampledShops   int
	BlockedShops   int
	TotalShops     int
}

// Rows flattens the report to one row per product.
func (r RunReport) Rows() []ReportRow {
	rows := make([]ReportRow, 0, len(r.Results))
	for _, res := range r.Results {
		row := ReportRow{
			ProductID:      res.ProductID,
			Manufacturer:   res.Manufacturer,
			Title:          res.Title,
			Handle:         res.Handle,
			Query:          res.Query,
			Status:         res.Status,
			ReferencePrice: res.ReferencePrice,
			SampledShops:   res.SampledShops,
			BlockedShops:   res.BlockedShops,
			TotalShops:     res.TotalShops,
		}
		if res.PriceStats != nil {
			row.Lowest = res.Lowest
			row.Average = res.Average
			row.Highest = res.Highest
			row.Samples = res.Samples
		}
		rows = append(rows, row)
	}
	return rows
}
