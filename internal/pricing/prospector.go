package pricing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/hortiva/priceintel/internal/hash/sha256"
)

// QueryPlaceholder is substituted with the escaped search query when a
// source template is rendered.
const QueryPlaceholder = "{query}"

// ProspectorConfig controls a single source attempt.
type ProspectorConfig struct {
	MaxLinks           int
	VerifyProductPages bool
	DumpPages          bool
	DumpPrefix         string
}

// Prospector queries one shop source for one product and converts every
// failure mode into a ShopAttempt. Errors never escape: anything that goes
// wrong becomes a status on the summary.
type Prospector struct {
	fetcher Fetcher
	health  *HealthTracker
	blobs   BlobStore
	clock   Clock
	cfg     ProspectorConfig
	logger  *zap.Logger
}

// NewProspector constructs a Prospector. blobs may be nil when debug page
// dumping is disabled.
func NewProspector(
	fetcher Fetcher,
	health *HealthTracker,
	blobs BlobStore,
	clock Clock,
	cfg ProspectorConfig,
	logger *zap.Logger,
) *Prospector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prospector{
		fetcher: fetcher,
		health:  health,
		blobs:   blobs,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// Attempt queries source for the product, walking the source's search
// templates in order until one yields prices. It updates the health
// tracker exactly once and returns the summary plus the raw samples for
// product-level pooling.
func (p *Prospector) Attempt(ctx context.Context, query ProductQuery, source ShopSource) (ShopAttempt, []float64) {
	start := p.clock.Now()

	if p.health.ShouldSkip(source.Name) {
		TotalSourceSkips.Inc()
		p.health.RecordSkip(source.Name, 0)
		p.logger.Debug("source auto-skipped",
			zap.String("shop", source.Name),
			zap.String("product", query.ID),
		)
		return ShopAttempt{
			Shop:   source.Name,
			Status: StatusSkipped,
			Info:   "auto-skipped after repeated timeout-like failures",
		}, nil
	}

	attempt, samples, timeoutLike := p.walkTemplates(ctx, query, source)
	attempt.DurationMs = p.clock.Now().Sub(start).Milliseconds()
	p.health.RecordAttempt(source.Name, p.clock.Now().Sub(start), timeoutLike)
	return attempt, samples
}

// walkTemplates tries each template variant in order. A block stops the
// source immediately; a transport failure on the last variant finalizes as
// an error; anything else falls through to the next variant.
func (p *Prospector) walkTemplates(ctx context.Context, query ProductQuery, source ShopSource) (ShopAttempt, []float64, bool) {
	var (
		lastErr  error
		lastBody []byte
		lastURL  string
	)
	for i, template := range source.SearchURLTemplates {
		searchURL := RenderTemplate(template, query.Query)
		TotalRequests.Inc()
		resp, err := p.fetcher.Fetch(ctx, FetchRequest{URL: searchURL})
		if err != nil {
			TotalRequestErrors.Inc()
			lastErr = err
			p.logger.Warn("search page fetch failed",
				zap.String("shop", source.Name),
				zap.String("url", searchURL),
				zap.Error(err),
			)
			if i == len(source.SearchURLTemplates)-1 {
				return ShopAttempt{
					Shop:   source.Name,
					Status: StatusErr,
					URL:    searchURL,
					Info:   err.Error(),
				}, nil, IsTimeoutLike(lastErr)
			}
			continue
		}

		markup := string(resp.Body)
		lastBody, lastURL = resp.Body, searchURL

		if signal, blocked := DetectBlockSignal(markup); blocked {
			TotalBlockedPages.Inc()
			p.logger.Warn("anti-bot block detected",
				zap.String("shop", source.Name),
				zap.String("signal", signal),
			)
			return ShopAttempt{
				Shop:   source.Name,
				Status: StatusBlocked,
				URL:    searchURL,
				Info:   fmt.Sprintf("blocked: %s", signal),
			}, nil, false
		}

		links := ExtractCandidateLinks(markup, searchURL, query.Matcher, p.cfg.MaxLinks)
		_, pageRelevant := query.Matcher.Match(markup)
		if !pageRelevant && len(links) == 0 {
			continue
		}
		if p.cfg.VerifyProductPages && len(links) == 0 {
			continue
		}

		samples, bypassed := p.collectSamples(ctx, query, searchURL, markup, links)
		if len(samples) == 0 {
			continue
		}

		TotalPricesExtracted.Add(float64(len(samples)))
		stats := Summarize(samples)
		representative := searchURL
		if len(links) > 0 {
			representative = links[0]
		}
		return ShopAttempt{
			Shop:           source.Name,
			Status:         StatusOK,
			URL:            representative,
			MatchedLinks:   links,
			PriceStats:     &stats,
			FilterBypassed: bypassed,
		}, samples, false
	}

	p.dumpPage(ctx, query, source, lastURL, lastBody)
	return ShopAttempt{
		Shop:   source.Name,
		Status: StatusNoPricesFound,
		URL:    lastURL,
	}, nil, false
}

// collectSamples extracts prices either from verified product detail pages
// or, when verification is off, straight from the search page markup.
func (p *Prospector) collectSamples(ctx context.Context, query ProductQuery, searchURL, markup string, links []string) ([]float64, bool) {
	if !p.cfg.VerifyProductPages {
		return ExtractPrices(markup, query.ReferencePrice)
	}

	var (
		samples  []float64
		bypassed bool
	)
	// Detail pages are fetched sequentially to avoid bursting one host.
	for _, link := range links {
		TotalRequests.Inc()
		resp, err := p.fetcher.Fetch(ctx, FetchRequest{URL: link, Referer: searchURL})
		if err != nil {
			TotalRequestErrors.Inc()
			p.logger.Debug("product page fetch failed",
				zap.String("product", query.ID),
				zap.String("url", link),
				zap.Error(err),
			)
			continue
		}
		content := string(resp.Body)
		if _, relevant := query.Matcher.Match(content); !relevant {
			continue
		}
		prices, b := ExtractPrices(content, query.ReferencePrice)
		samples = append(samples, prices...)
		bypassed = bypassed || b
	}
	return samples, bypassed
}

// dumpPage stores the last search page of a fruitless attempt for offline
// inspection of extraction misses.
func (p *Prospector) dumpPage(ctx context.Context, query ProductQuery, source ShopSource, pageURL string, body []byte) {
	if !p.cfg.DumpPages || p.blobs == nil || len(body) == 0 {
		return
	}
	// The content digest keeps dumps from successive templates of the
	// same product from overwriting each other.
	path := fmt.Sprintf("%s/%s/%s-%s.html",
		strings.Trim(p.cfg.DumpPrefix, "/"),
		sanitizeSegment(source.Name),
		sanitizeSegment(query.Handle),
		sha256.Hash(body)[:12],
	)
	uri, err := p.blobs.PutObject(ctx, path, "text/html; charset=utf-8", body)
	if err != nil {
		p.logger.Warn("debug page dump failed", zap.String("url", pageURL), zap.Error(err))
		return
	}
	p.logger.Debug("page dumped", zap.String("uri", uri))
}

// RenderTemplate substitutes the URL-escaped query into a search template.
func RenderTemplate(template, query string) string {
	return strings.ReplaceAll(template, QueryPlaceholder, url.QueryEscape(query))
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
