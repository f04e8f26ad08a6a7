// Package payment attaches x402 permits to requests bound for a payment router
// and renegotiates once when the router rejects a permit as stale.
package payment

import (
	"context"

	"github.com/port402/x402-router/internal/x402"
)

// PermitRequest is the input to a Signer.
type PermitRequest struct {
	PrivateKey string
	Router     x402.RouterConfig
	Cap        string
}

// Signer produces a permit authorizing up to Cap for the router configuration.
type Signer interface {
	SignPermit(ctx context.Context, req PermitRequest) (x402.CachedPermit, error)
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(ctx context.Context, req PermitRequest) (x402.CachedPermit, error)

// SignPermit calls f.
func (f SignerFunc) SignPermit(ctx context.Context, req PermitRequest) (x402.CachedPermit, error) {
	return f(ctx, req)
}

// Resolver supplies the current router configuration. Implementations are
// expected to do their own caching.
type Resolver interface {
	Resolve(ctx context.Context) (x402.RouterConfig, error)
}

// Invalidator is implemented by resolvers that cache configuration. The
// transport calls Invalidate when the router rejects a permit as stale, so the
// next request rediscovers the configuration.
type Invalidator interface {
	Invalidate()
}

// StaticResolver always resolves to the same configuration.
type StaticResolver x402.RouterConfig

// Resolve returns the configuration unchanged.
func (s StaticResolver) Resolve(context.Context) (x402.RouterConfig, error) {
	return x402.RouterConfig(s), nil
}

// Outcome summarizes one logical request for callers that want to report it.
type Outcome struct {
	RequestID string
	Bypassed  bool
	Attempts  int
	Signed    int
	Reused    int
	Retried   bool
	Network   string
	Asset     string
	Cap       string
	Status    int
	Err       error
}
