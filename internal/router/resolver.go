package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/port402/x402-router/internal/x402"
)

// DiscoveryPath is where routers publish their payment configuration.
const DiscoveryPath = "/v1/config"

// DefaultTTL is how long a discovered configuration is reused.
const DefaultTTL = 5 * time.Minute

// maxBodySize limits discovery responses to 1MB.
const maxBodySize = 1 << 20

// ErrDiscoveryStatus is returned when the router answers discovery with a non-200 status.
var ErrDiscoveryStatus = errors.New("unexpected discovery status")

// Resolver fetches and caches the router configuration.
// It is safe for concurrent use; concurrent refreshes share one request.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	defaults   Defaults
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger

	group     singleflight.Group
	mu        sync.RWMutex
	cached    *x402.RouterConfig
	fetchedAt time.Time
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient sets the client used for discovery requests.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = c
	}
}

// WithDefaults sets the caller fallbacks passed to Normalize.
func WithDefaults(d Defaults) ResolverOption {
	return func(r *Resolver) {
		r.defaults = d
	}
}

// WithTTL sets how long a fetched configuration stays fresh.
// A zero TTL refetches on every call.
func WithTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.ttl = ttl
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithNow replaces the clock used for TTL checks.
func WithNow(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver for the router at routerURL.
func NewResolver(routerURL string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		baseURL:    strings.TrimRight(routerURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ttl:        DefaultTTL,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the current router configuration, fetching it when the
// cached copy is missing or older than the TTL.
func (r *Resolver) Resolve(ctx context.Context) (x402.RouterConfig, error) {
	if cfg, ok := r.fresh(); ok {
		return cfg, nil
	}

	if err := ctx.Err(); err != nil {
		return x402.RouterConfig{}, err
	}

	// The shared fetch outlives any single caller; each caller stops waiting
	// on its own context. The HTTP client timeout still bounds the fetch.
	ch := r.group.DoChan("config", func() (interface{}, error) {
		return r.fetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return x402.RouterConfig{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return x402.RouterConfig{}, res.Err
		}
		if res.Shared {
			r.logger.Debug("router config fetch shared")
		}
		return res.Val.(x402.RouterConfig), nil
	}
}

// Invalidate drops the cached configuration so the next Resolve refetches.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
}

func (r *Resolver) fresh() (x402.RouterConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached == nil || r.now().Sub(r.fetchedAt) >= r.ttl {
		return x402.RouterConfig{}, false
	}
	return *r.cached, true
}

func (r *Resolver) fetch(ctx context.Context) (x402.RouterConfig, error) {
	url := r.baseURL + DiscoveryPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return x402.RouterConfig{}, fmt.Errorf("failed to create discovery request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return x402.RouterConfig{}, fmt.Errorf("fetching router config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return x402.RouterConfig{}, fmt.Errorf("%w: %d from %s", ErrDiscoveryStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return x402.RouterConfig{}, fmt.Errorf("failed to read router config: %w", err)
	}

	cfg := Normalize(body, r.defaults)

	r.mu.Lock()
	r.cached = &cfg
	r.fetchedAt = r.now()
	r.mu.Unlock()

	r.logger.Debug("router config resolved",
		slog.String("network", cfg.Network),
		slog.String("asset", cfg.Asset),
		slog.String("pay_to", cfg.PayTo),
		slog.String("payment_header", cfg.PaymentHeader))
	return cfg, nil
}
