// Package collyfetcher implements pricing.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/hortiva/priceintel/internal/policy/ratelimit"
	"github.com/hortiva/priceintel/internal/pricing"
)

// Backoff between retry attempts grows linearly: attempt × backoffStep.
const backoffStep = 800 * time.Millisecond

// Config controls collector behavior.
type Config struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxRetries     int
	RetryTimeouts  bool
	MaxBodyBytes   int

	// PerHostRPS throttles requests per shop host. Zero disables
	// throttling.
	PerHostRPS   float64
	PerHostBurst int
}

// Fetcher issues single bounded GETs against shop sources. Each request
// clones the base collector so per-request header state never leaks.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
	limiter       *ratelimit.Limiter
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "de-DE,de;q=0.9,en;q=0.6"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
		limiter: ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.PerHostRPS,
			DefaultBurst: cfg.PerHostBurst,
		}),
		logger: logger,
	}
}

// WithTransport swaps the HTTP transport (used by tests to mock responses).
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.transport = rt
	f.baseCollector.WithTransport(rt)
}

// Fetch retrieves url with the configured retry policy: up to MaxRetries
// additional attempts with linear backoff. Timeouts are retried only when
// RetryTimeouts is set. The final attempt's failure is returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, request pricing.FetchRequest) (pricing.FetchResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if !f.shouldRetry(lastErr) {
				return pricing.FetchResponse{}, lastErr
			}
			if err := waitBackoff(ctx, time.Duration(attempt)*backoffStep); err != nil {
				return pricing.FetchResponse{}, lastErr
			}
			f.logger.Debug("retrying fetch",
				zap.String("url", request.URL),
				zap.Int("attempt", attempt+1),
			)
		}
		resp, err := f.fetchOnce(ctx, request)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return pricing.FetchResponse{}, lastErr
}

func (f *Fetcher) shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if pricing.IsTimeout(err) {
		return f.cfg.RetryTimeouts
	}
	return true
}

func (f *Fetcher) fetchOnce(ctx context.Context, request pricing.FetchRequest) (pricing.FetchResponse, error) {
	var (
		result   pricing.FetchResponse
		fetchErr error
	)
	if err := f.limiter.Wait(ctx, request.URL); err != nil {
		return pricing.FetchResponse{}, err
	}
	start := time.Now()

	collector := f.baseCollector.Clone()
	collector.WithTransport(f.transport)
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(f.cfg.Timeout)
	if f.cfg.MaxBodyBytes > 0 {
		// Colly stops reading at this cap; truncated markup is fine
		// because extraction tolerates partial HTML.
		collector.MaxBodySize = f.cfg.MaxBodyBytes
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
		if request.Referer != "" {
			r.Headers.Set("Referer", request.Referer)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = pricing.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = &pricing.StatusError{URL: request.URL, Code: r.StatusCode}
			return
		}
		fetchErr = err
	})

	timeoutCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	if err := f.runCollector(timeoutCtx, collector, request.URL, &fetchErr); err != nil {
		return pricing.FetchResponse{}, f.classify(request.URL, err)
	}
	return result, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if *fetchErr != nil {
			return *fetchErr
		}
		return err
	}
}

// classify maps transport failures onto the retrieval error taxonomy.
func (f *Fetcher) classify(url string, err error) error {
	var se *pricing.StatusError
	if errors.As(err, &se) {
		return se
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &pricing.TimeoutError{
			URL:     url,
			Budget:  f.cfg.Timeout.String(),
			Wrapped: err,
		}
	}
	return err
}

func waitBackoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
