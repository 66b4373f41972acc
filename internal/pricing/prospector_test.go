package pricing

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	requests  []FetchRequest
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (f *stubFetcher) Fetch(_ context.Context, request FetchRequest) (FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, request)
	if err, ok := f.errs[request.URL]; ok {
		return FetchResponse{}, err
	}
	body, ok := f.responses[request.URL]
	if !ok {
		return FetchResponse{}, &StatusError{URL: request.URL, Code: http.StatusNotFound}
	}
	return FetchResponse{URL: request.URL, StatusCode: 200, Body: []byte(body)}, nil
}

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

type stubBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubBlobs() *stubBlobs {
	return &stubBlobs{objects: make(map[string][]byte)}
}

func (b *stubBlobs) PutObject(_ context.Context, path, _ string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = append([]byte(nil), data...)
	return "mem://" + path, nil
}

var testProduct = Product{
	ID:             "prod-1",
	Handle:         "ac-infinity-cloudline-s6",
	Title:          "Cloudline S6",
	Manufacturer:   "AC Infinity",
	ReferencePrice: 179,
}

const testSearchURL = "https://shop.example/suche/AC+Infinity+Cloudline+S6"

func testSource() ShopSource {
	return ShopSource{
		Name:               "shop.example",
		Domain:             "shop.example",
		SearchURLTemplates: []string{"https://shop.example/suche/{query}"},
		Enabled:            true,
	}
}

func TestProspector_SearchPageExtraction(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.responses[testSearchURL] = `
<h1>Suchergebnisse: AC Infinity Cloudline S6</h1>
<span class="price">169,99 €</span>
<span class="price">189,00 €</span>`
	health := NewHealthTracker(3)
	p := NewProspector(fetcher, health, nil, &stubClock{}, ProspectorConfig{
		VerifyProductPages: false,
	}, nil)

	attempt, samples := p.Attempt(context.Background(), NewProductQuery(testProduct), testSource())

	require.Equal(t, StatusOK, attempt.Status)
	assert.Equal(t, testSearchURL, attempt.URL)
	assert.Equal(t, []float64{169.99, 189.00}, samples)
	require.NotNil(t, attempt.PriceStats)
	assert.InDelta(t, 169.99, attempt.Lowest, 0.001)
	assert.False(t, attempt.FilterBypassed)
}

func TestProspector_VerifiedProductPages(t *testing.T) {
	productURL := "https://shop.example/produkte/ac-infinity-cloudline-s6"
	fetcher := newStubFetcher()
	fetcher.responses[testSearchURL] = `
<a href="/produkte/ac-infinity-cloudline-s6">AC Infinity Cloudline S6 Rohrventilator</a>
<span>199,00 €</span>`
	fetcher.responses[productURL] = `
<h1>AC Infinity Cloudline S6</h1>
<meta itemprop="price" content="169.99">`
	health := NewHealthTracker(3)
	p := NewProspector(fetcher, health, nil, &stubClock{}, ProspectorConfig{
		VerifyProductPages: true,
	}, nil)

	attempt, samples := p.Attempt(context.Background(), NewProductQuery(testProduct), testSource())

	require.Equal(t, StatusOK, attempt.Status)
	// The representative URL is the verified detail page, and the price
	// on the search page itself is ignored.
	assert.Equal(t, productURL, attempt.URL)
	assert.Equal(t, []string{productURL}, attempt.MatchedLinks)
	assert.Equal(t, []float64{169.99}, samples)

	require.Len(t, fetcher.requests, 2)
	assert.Equal(t, testSearchURL, fetcher.requests[1].Referer)
}

func TestProspector_BlockedIsNotTimeoutLike(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.responses[testSearchURL] = "<title>Just a moment...</title>"
	health := NewHealthTracker(1)
	p := NewProspector(fetcher, health, nil, &stubClock{}, ProspectorConfig{}, nil)

	attempt, samples := p.Attempt(context.Background(), NewProductQuery(testProduct), testSource())

	assert.Equal(t, StatusBlocked, attempt.Status)
	assert.Empty(t, samples)
	// Blocks do not advance the auto-skip counter.
	assert.False(t, health.ShouldSkip("shop.example"))
}

func TestProspector_TimeoutAdvancesAutoSkip(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.errs[testSearchURL] = &TimeoutError{URL: testSearchURL, Budget: "12s"}
	health := NewHealthTracker(1)
	p := NewProspector(fetcher, health, nil, &stubClock{}, ProspectorConfig{}, nil)
	query := NewProductQuery(testProduct)

	attempt, _ := p.Attempt(context.Background(), query, testSource())
	require.Equal(t, StatusErr, attempt.Status)

	// The threshold is reached, so the next product skips the source
	// without a network call.
	attempt, _ = p.Attempt(context.Background(), query, testSource())
	assert.Equal(t, StatusSkipped, attempt.Status)
	assert.Len(t, fetcher.requests, 1)
}

func TestProspector_TemplateFallback(t *testing.T) {
	source := testSource()
	source.SearchURLTemplates = []string{
		"https://shop.example/suche/{query}",
		"https://shop.example/s/{query}",
	}
	secondURL := "https://shop.example/s/AC+Infinity+Cloudline+S6"

	fetcher := newStubFetcher()
	fetcher.errs[testSearchURL] = &StatusError{URL: testSearchURL, Code: http.StatusInternalServerError}
	fetcher.responses[secondURL] = `AC Infinity Cloudline S6 <span>169,99 €</span>`
	health := NewHealthTracker(3)
	p := NewProspector(fetcher, health, nil, &stubClock{}, ProspectorConfig{}, nil)

	attempt, samples := p.Attempt(context.Background(), NewProductQuery(testProduct), source)

	assert.Equal(t, StatusOK, attempt.Status)
	assert.Equal(t, []float64{169.99}, samples)
}

func TestProspector_DumpsFruitlessPage(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.responses[testSearchURL] = "<p>Keine Treffer</p>"
	blobs := newStubBlobs()
	health := NewHealthTracker(3)
	p := NewProspector(fetcher, health, blobs, &stubClock{}, ProspectorConfig{
		DumpPages:  true,
		DumpPrefix: "debug",
	}, nil)

	attempt, samples := p.Attempt(context.Background(), NewProductQuery(testProduct), testSource())

	assert.Equal(t, StatusNoPricesFound, attempt.Status)
	assert.Empty(t, samples)
	require.Len(t, blobs.objects, 1)
	for path := range blobs.objects {
		assert.Contains(t, path, "debug/shop_example/ac-infinity-cloudline-s6")
	}
}
