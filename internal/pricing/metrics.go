package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalRequests tracks the number of HTTP requests dispatched at shops.
	TotalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "priceintel_requests_total",
		Help: "The total number of HTTP requests sent to shop sources.",
	})
	// TotalRequestErrors tracks requests that ended in a transport or status error.
	TotalRequestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "priceintel_request_errors_total",
		Help: "The total number of failed shop requests.",
	})
	// TotalBlockedPages tracks anti-bot interstitials encountered.
	TotalBlockedPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "priceintel_blocked_pages_total",
		Help: "The total number of anti-bot blocked pages detected.",
	})
	// TotalPricesExtracted tracks accepted price samples across all shops.
	TotalPricesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "priceintel_prices_extracted_total",
		Help: "The total number of price samples extracted and accepted.",
	})
	// TotalSourceSkips tracks attempts short-circuited by the health tracker.
	TotalSourceSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "priceintel_source_skips_total",
		Help: "The total number of attempts skipped due to source health.",
	})
)
