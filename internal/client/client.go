// Package client provides the HTTP client used to talk to a payment router.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client wraps http.Client with default headers and an optional base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    http.Header
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets the round tripper, typically a payment.Transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithBaseURL resolves relative request paths against baseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHeader adds a custom header to all requests.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithHeaders adds multiple custom headers to all requests.
func WithHeaders(headers http.Header) Option {
	return func(c *Client) {
		for k, vs := range headers {
			c.headers.Del(k)
			for _, v := range vs {
				c.headers.Add(k, v)
			}
		}
	}
}

// New creates a new Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: http.Header{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL returns target unchanged when absolute, otherwise joined to the base URL.
func (c *Client) URL(target string) string {
	if c.baseURL == "" || strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return c.baseURL + target
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, target string) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, target, nil, nil)
}

// Request performs an HTTP request with the given method, target, headers, and body.
func (c *Client) Request(ctx context.Context, method, target string, headers http.Header, body []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(target), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	return c.Do(req)
}

// Do performs the HTTP request with default headers applied.
// Headers already present on the request are kept.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for k, vs := range c.headers {
		if req.Header.Get(k) != "" {
			continue
		}
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	return c.httpClient.Do(req)
}

// RequestResult contains timing and response information.
type RequestResult struct {
	Response  *http.Response
	Latency   time.Duration
	LatencyMs int64
}

// TimedRequest performs a timed HTTP request.
func (c *Client) TimedRequest(ctx context.Context, method, target string, headers http.Header, body []byte) (*RequestResult, error) {
	start := time.Now()
	resp, err := c.Request(ctx, method, target, headers, body)
	latency := time.Since(start)

	if err != nil {
		return nil, err
	}

	return &RequestResult{
		Response:  resp,
		Latency:   latency,
		LatencyMs: latency.Milliseconds(),
	}, nil
}

// ParseRetryAfter extracts the Retry-After header value as a duration.
// Returns 0 if the header is not present or invalid.
func ParseRetryAfter(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(retryAfter, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// RFC 7231 HTTP-date
	if t, err := http.ParseTime(retryAfter); err == nil {
		return time.Until(t)
	}

	return 0
}
