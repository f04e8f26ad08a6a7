package permit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/port402/x402-router/internal/x402"
)

func testPermit(sig string, deadline int64, maxValue string) x402.CachedPermit {
	return x402.CachedPermit{
		PaymentSig: sig,
		Deadline:   deadline,
		MaxValue:   maxValue,
		Nonce:      "1",
		Network:    "eip155:8453",
		Asset:      "0xAsset",
		PayTo:      "0xPayTo",
	}
}

func fixedClock(now *int64) Option {
	return WithClock(func() int64 { return *now })
}

func TestCache_GetValid(t *testing.T) {
	now := int64(1000)
	c := NewCache(fixedClock(&now))
	p := testPermit("sig-1", now+5000, "10000000")

	c.Set(p)

	got, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "10000000")
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestCache_ScopeIsCaseInsensitive(t *testing.T) {
	now := int64(1000)
	c := NewCache(fixedClock(&now))
	c.Set(testPermit("sig-1", 2000, "10000000"))

	got, ok := c.Get("EIP155:8453", "0XASSET", "0xpayto", "10000000")
	require.True(t, ok)
	assert.Equal(t, "sig-1", got.PaymentSig)
}

func TestCache_CapIsExact(t *testing.T) {
	now := int64(1000)
	c := NewCache(fixedClock(&now))
	c.Set(testPermit("sig-1", 2000, "0xAb"))

	_, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "0xab")
	assert.False(t, ok)

	_, ok = c.Get("eip155:8453", "0xAsset", "0xPayTo", "20000000")
	assert.False(t, ok)
}

func TestCache_ExpiredIsPurged(t *testing.T) {
	now := int64(1000)
	c := NewCache(fixedClock(&now))
	c.Set(testPermit("sig-1", now+10, "10000000"))

	now = 2000
	_, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "10000000")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ClockSkewBoundary(t *testing.T) {
	now := int64(1000)
	c := NewCache(fixedClock(&now))

	c.Set(testPermit("edge", now+ClockSkewSeconds, "1"))
	_, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "1")
	assert.False(t, ok, "deadline == now+skew is unusable")
	assert.Equal(t, 0, c.Len())

	c.Set(testPermit("fresh", now+ClockSkewSeconds+1, "1"))
	got, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "1")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.PaymentSig)
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache(WithClock(func() int64 { return 1000 }))
	c.Set(testPermit("sig-1", 2000, "10000000"))

	c.Invalidate("eip155:8453", "0xAsset", "0xPayTo", "10000000")
	_, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "10000000")
	assert.False(t, ok)

	// missing keys are a no-op
	c.Invalidate("eip155:1", "0xOther", "0xNobody", "1")
}

func TestCache_SeparatesEntriesByCap(t *testing.T) {
	c := NewCache(WithClock(func() int64 { return 1000 }))
	c.Set(testPermit("sig-1", 2000, "10000000"))
	c.Set(testPermit("sig-2", 2000, "20000000"))

	first, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "10000000")
	require.True(t, ok)
	assert.Equal(t, "sig-1", first.PaymentSig)

	second, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "20000000")
	require.True(t, ok)
	assert.Equal(t, "sig-2", second.PaymentSig)
}

func TestCache_LatestSetWins(t *testing.T) {
	c := NewCache(WithClock(func() int64 { return 1000 }))
	c.Set(testPermit("old", 2000, "1"))
	c.Set(testPermit("new", 3000, "1"))

	got, ok := c.Get("eip155:8453", "0xAsset", "0xPayTo", "1")
	require.True(t, ok)
	assert.Equal(t, "new", got.PaymentSig)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Clear(t *testing.T) {
	c := NewCache(WithClock(func() int64 { return 1000 }))
	c.Set(testPermit("sig-1", 2000, "1"))
	c.Set(testPermit("sig-2", 2000, "2"))

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "eip155:8453::0xasset::0xpayto::10000000", Key("EIP155:8453", "0xAsset", "0xPayTo", "10000000"))
}

func TestSyncCache_ConcurrentAccess(t *testing.T) {
	s := NewSyncCache(NewCache(WithClock(func() int64 { return 1000 })))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set(testPermit("sig", 2000, "1"))
			s.Get("eip155:8453", "0xAsset", "0xPayTo", "1")
			s.Invalidate("eip155:8453", "0xAsset", "0xPayTo", "2")
		}()
	}
	wg.Wait()

	got, ok := s.Get("eip155:8453", "0xAsset", "0xPayTo", "1")
	require.True(t, ok)
	assert.Equal(t, "sig", got.PaymentSig)

	s.Clear()
	_, ok = s.Get("eip155:8453", "0xAsset", "0xPayTo", "1")
	assert.False(t, ok)
}
