package pricing

import (
	"context"
	"time"
)

// FetchRequest captures everything needed to retrieve one page.
type FetchRequest struct {
	URL     string
	Referer string
}

// FetchResponse is the result returned by a Fetcher implementation.
// The body may be truncated at the configured byte cap.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves a single page with a bounded body.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Catalog supplies the products whose prices are compared.
type Catalog interface {
	Products(ctx context.Context, limit int) ([]Product, error)
}

// Publisher pushes run-completion events to downstream consumers
// (the repricing engine subscribes to these).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// BlobStore writes raw debug artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
