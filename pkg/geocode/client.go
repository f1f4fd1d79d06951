// Package geocode resolves street addresses to coordinates via the
// Census Geocoder one-line API. Results are cached in memory so repeat
// imports of the same roster do not re-hit the API.
package geocode

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes addresses.
type Client interface {
	// Geocode resolves a single address. An unmatched address is not an
	// error; check Result.Matched.
	Geocode(ctx context.Context, addr AddressInput) (*Result, error)
}

// AddressInput represents an address to geocode.
type AddressInput struct {
	Street  string
	City    string
	State   string
	ZipCode string
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude  float64
	Longitude float64
	Source    string // "census" or "cache"
	Matched   bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client for Census requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for Census API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithBaseURL overrides the Census endpoint, used in tests.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

type geocoder struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string

	mu    sync.Mutex
	cache map[string]Result
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(50, 50), // Census default: 50 req/s
		baseURL:    censusOneLineURL,
		cache:      make(map[string]Result),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves an address, consulting the in-memory cache first.
// Non-matches are cached too so a bad address costs one API call.
func (g *geocoder) Geocode(ctx context.Context, addr AddressInput) (*Result, error) {
	key := cacheKey(addr)

	g.mu.Lock()
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		cached.Source = "cache"
		return &cached, nil
	}
	g.mu.Unlock()

	result, err := g.geocodeCensus(ctx, addr)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.cache[key] = *result
	g.mu.Unlock()
	return result, nil
}
