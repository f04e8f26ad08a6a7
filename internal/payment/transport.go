package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/port402/x402-router/internal/permit"
	"github.com/port402/x402-router/internal/x402"
)

// bypassSuffixes are discovery endpoints that never carry a payment.
var bypassSuffixes = []string{"/config", "/v1/config", "/models", "/v1/models"}

// maxErrorBodySize bounds how much of a 401/402 body is inspected.
const maxErrorBodySize = 1 << 20

// Config holds the required collaborators of a Transport.
type Config struct {
	RouterURL  string
	PrivateKey string
	Cap        string
	Resolver   Resolver
	Signer     Signer
}

// Transport is an http.RoundTripper that injects permits into requests to the
// router origin. Each logical request is attempted at most twice: once with
// the cached or freshly signed permit and, when the router reports the permit
// as stale, once more with the renegotiated configuration.
//
// Transport is safe for concurrent use when its permit.Store is.
type Transport struct {
	base       http.RoundTripper
	origin     string
	privateKey string
	permitCap  string
	resolver   Resolver
	signer     Signer
	cache      permit.Store
	headers    http.Header
	logger     *slog.Logger
	onOutcome  func(Outcome)
}

// Option configures the Transport.
type Option func(*Transport)

// WithBase sets the transport that performs the actual requests.
func WithBase(rt http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = rt
	}
}

// WithCache sets the permit store. The default is a mutex-guarded in-memory cache.
func WithCache(s permit.Store) Option {
	return func(t *Transport) {
		t.cache = s
	}
}

// WithHeaders sets override headers applied on top of each request's own
// headers. The payment header still wins over them.
func WithHeaders(h http.Header) Option {
	return func(t *Transport) {
		t.headers = h.Clone()
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = l
	}
}

// WithOutcome registers a hook called once per logical request.
func WithOutcome(fn func(Outcome)) Option {
	return func(t *Transport) {
		t.onOutcome = fn
	}
}

// New creates a Transport.
func New(cfg Config, opts ...Option) (*Transport, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("payment: resolver is required")
	}
	if cfg.Signer == nil {
		return nil, errors.New("payment: signer is required")
	}
	if cfg.Cap == "" {
		return nil, errors.New("payment: permit cap is required")
	}

	t := &Transport{
		base:       http.DefaultTransport,
		origin:     routerOrigin(cfg.RouterURL),
		privateKey: cfg.PrivateKey,
		permitCap:  cfg.Cap,
		resolver:   cfg.Resolver,
		signer:     cfg.Signer,
		cache:      permit.NewSyncCache(permit.NewCache()),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.shouldPay(req.URL) {
		t.report(Outcome{Bypassed: true})
		return t.base.RoundTrip(req)
	}

	out := Outcome{RequestID: uuid.NewString(), Cap: t.permitCap}
	log := t.logger.With(
		slog.String("request_id", out.RequestID),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path))

	resp, err := t.pay(req, log, &out)
	out.Err = err
	if resp != nil {
		out.Status = resp.StatusCode
	}
	t.report(out)
	return resp, err
}

func (t *Transport) pay(req *http.Request, log *slog.Logger, out *Outcome) (*http.Response, error) {
	ctx := req.Context()

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	cfg, err := t.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving router config: %w", err)
	}
	out.Network, out.Asset = cfg.Network, cfg.Asset

	resp, err := t.send(ctx, req, getBody, cfg, t.permitCap, log, out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	if !x402.IsPaymentStale(peekErrorBody(resp)) {
		log.Debug("payment rejected, not renegotiating", slog.Int("status", resp.StatusCode))
		return resp, nil
	}

	requirement := x402.ChallengeFromResponse(resp).FirstRequirement()
	retryCfg := x402.OverlayRequirement(cfg, requirement)
	retryCap := t.permitCap
	if required, ok := x402.MaxAmountRequired(requirement); ok {
		retryCap = required
	}

	t.cache.Invalidate(cfg.Network, cfg.Asset, cfg.PayTo, t.permitCap)
	if inv, ok := t.resolver.(Invalidator); ok {
		inv.Invalidate()
	}
	if retryCfg.Network != cfg.Network || retryCfg.Asset != cfg.Asset ||
		retryCfg.PayTo != cfg.PayTo || retryCap != t.permitCap {
		t.cache.Invalidate(retryCfg.Network, retryCfg.Asset, retryCfg.PayTo, retryCap)
	}

	log.Info("permit rejected as stale, renegotiating",
		slog.Int("status", resp.StatusCode),
		slog.String("cap", t.permitCap),
		slog.String("retry_cap", retryCap),
		slog.String("retry_network", retryCfg.Network))

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	out.Retried = true
	out.Network, out.Asset = retryCfg.Network, retryCfg.Asset
	out.Cap = retryCap
	return t.send(ctx, req, getBody, retryCfg, retryCap, log, out)
}

// send performs one attempt with a permit for cfg and cap.
func (t *Transport) send(
	ctx context.Context,
	req *http.Request,
	getBody func() (io.ReadCloser, error),
	cfg x402.RouterConfig,
	permitCap string,
	log *slog.Logger,
	out *Outcome,
) (*http.Response, error) {
	p, err := t.permitFor(ctx, cfg, permitCap, log, out)
	if err != nil {
		return nil, err
	}

	attempt := req.Clone(ctx)
	attempt.Header = mergeHeaders(req.Header, t.headers, cfg.PaymentHeader, p.PaymentSig)
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("replaying request body: %w", err)
		}
		attempt.Body = body
		attempt.GetBody = getBody
	}

	out.Attempts++
	return t.base.RoundTrip(attempt)
}

// permitFor returns a cached permit or signs and stores a new one.
// The cache is written only after a successful sign.
func (t *Transport) permitFor(ctx context.Context, cfg x402.RouterConfig, permitCap string, log *slog.Logger, out *Outcome) (x402.CachedPermit, error) {
	if p, ok := t.cache.Get(cfg.Network, cfg.Asset, cfg.PayTo, permitCap); ok {
		out.Reused++
		log.Debug("permit reused", slog.String("cap", permitCap), slog.Int64("deadline", p.Deadline))
		return p, nil
	}

	p, err := t.signer.SignPermit(ctx, PermitRequest{
		PrivateKey: t.privateKey,
		Router:     cfg,
		Cap:        permitCap,
	})
	if err != nil {
		return x402.CachedPermit{}, fmt.Errorf("signing permit: %w", err)
	}
	t.cache.Set(p)

	out.Signed++
	log.Debug("permit signed", slog.String("cap", permitCap), slog.Int64("deadline", p.Deadline))
	return p, nil
}

func (t *Transport) shouldPay(u *url.URL) bool {
	if u == nil || originOf(u) != t.origin {
		return false
	}
	return !IsBypassPath(u.Path)
}

func (t *Transport) report(out Outcome) {
	if t.onOutcome != nil {
		t.onOutcome(out)
	}
}

// IsBypassPath reports whether path is a discovery endpoint that is never paid for.
func IsBypassPath(path string) bool {
	for _, suffix := range bypassSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// mergeHeaders layers request headers, override headers and the payment
// header, later layers winning. Keys are canonicalized so the result is
// case-insensitive. An empty paymentHeader means x402.DefaultPaymentHeader.
func mergeHeaders(request, overrides http.Header, paymentHeader, signature string) http.Header {
	if strings.TrimSpace(paymentHeader) == "" {
		paymentHeader = x402.DefaultPaymentHeader
	}

	merged := make(http.Header, len(request)+len(overrides)+1)
	for k, vs := range request {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	for k, vs := range overrides {
		merged.Del(k)
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	merged.Set(paymentHeader, signature)
	return merged
}

// replayableBody returns a function producing fresh copies of the request
// body, buffering it once when the request has no GetBody.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("buffering request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// peekErrorBody parses the response body as an error without consuming it:
// the bytes read are put back in front of the remaining body.
func peekErrorBody(resp *http.Response) *x402.ErrorResponse {
	if resp.Body == nil {
		return nil
	}

	orig := resp.Body
	data, err := io.ReadAll(io.LimitReader(orig, maxErrorBodySize))
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), orig), orig}
	if err != nil {
		return nil
	}
	return x402.ParseErrorBody(data)
}

// routerOrigin returns scheme://host of the router URL, or the raw value when
// it does not parse as an absolute URL.
func routerOrigin(routerURL string) string {
	u, err := url.Parse(routerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return routerURL
	}
	return originOf(u)
}

func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host
}
