package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discoveryBody = `{
	"networks": [{"network_id": "eip155:84532", "active": true, "asset": {"address": "0xSepolia"}, "pay_to": "0xPayTo"}],
	"payment_header": "X-PAYMENT"
}`

func discoveryServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DiscoveryPath, r.URL.Path)
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolver_Resolve(t *testing.T) {
	server := discoveryServer(t, http.StatusOK, discoveryBody, nil)

	cfg, err := NewResolver(server.URL + "/").Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "eip155:84532", cfg.Network)
	assert.Equal(t, "0xSepolia", cfg.Asset)
	assert.Equal(t, "0xPayTo", cfg.PayTo)
	assert.Equal(t, "X-PAYMENT", cfg.PaymentHeader)
}

func TestResolver_CachesWithinTTL(t *testing.T) {
	var hits atomic.Int32
	server := discoveryServer(t, http.StatusOK, discoveryBody, &hits)

	now := time.Unix(1000, 0)
	r := NewResolver(server.URL, WithTTL(time.Minute), WithNow(func() time.Time { return now }))

	_, err := r.Resolve(context.Background())
	require.NoError(t, err)
	_, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(time.Minute)
	_, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	r.Invalidate()
	_, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestResolver_ConcurrentResolve(t *testing.T) {
	var hits atomic.Int32
	server := discoveryServer(t, http.StatusOK, discoveryBody, &hits)
	r := NewResolver(server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := r.Resolve(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "eip155:84532", cfg.Network)
		}()
	}
	wg.Wait()

	// Every caller either joined the in-flight fetch or hit the cache.
	assert.LessOrEqual(t, hits.Load(), int32(20))
	assert.GreaterOrEqual(t, hits.Load(), int32(1))
}

func TestResolver_MalformedBodyUsesDefaults(t *testing.T) {
	server := discoveryServer(t, http.StatusOK, `<html>oops</html>`, nil)

	cfg, err := NewResolver(server.URL, WithDefaults(Defaults{Network: "eip155:1"})).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eip155:1", cfg.Network)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", cfg.Asset)
}

func TestResolver_NonOKStatus(t *testing.T) {
	server := discoveryServer(t, http.StatusServiceUnavailable, `{}`, nil)

	_, err := NewResolver(server.URL).Resolve(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiscoveryStatus))
	assert.Contains(t, err.Error(), "503")
}

func TestResolver_NetworkError(t *testing.T) {
	r := NewResolver("http://localhost:99999", WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDiscoveryStatus))
}

func TestResolver_ContextCanceled(t *testing.T) {
	server := discoveryServer(t, http.StatusOK, discoveryBody, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(server.URL).Resolve(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResolver_CanceledCallerLeavesSharedFetch(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(discoveryBody))
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})
	r := NewResolver(server.URL)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Resolve(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	type result struct {
		network string
		err     error
	}
	second := make(chan result, 1)
	go func() {
		cfg, err := r.Resolve(context.Background())
		second <- result{cfg.Network, err}
	}()

	cancel()
	select {
	case err := <-firstErr:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller kept waiting")
	}

	close(release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, "eip155:84532", res.network)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never resolved")
	}

	// The abandoned fetch still completed and filled the cache.
	cfg, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eip155:84532", cfg.Network)
}
