package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/port402/x402-router/internal/tokens"
	"github.com/port402/x402-router/internal/x402"
)

func ptr(s string) *string { return &s }

var baseRouter = x402.RouterConfig{
	Network:           "eip155:8453",
	Asset:             "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	PayTo:             "0x1234567890abcdef1234567890abcdef12345678",
	FacilitatorSigner: "0x1234567890abcdef1234567890abcdef12345678",
	TokenName:         "USD Coin",
	TokenVersion:      "2",
	PaymentHeader:     "PAYMENT-SIGNATURE",
}

func TestNewRouterConfigResult(t *testing.T) {
	r := NewRouterConfigResult("http://localhost:8080", "http://localhost:8080/v1", baseRouter, "10000000")

	assert.Equal(t, "http://localhost:8080/v1", r.ProviderBaseURL)
	assert.Equal(t, "Base Mainnet", r.NetworkName)
	assert.Equal(t, "USDC", r.AssetSymbol)
	assert.Equal(t, "10.00 USDC", r.PermitCapHuman)
	assert.Equal(t, "https://basescan.org/address/"+baseRouter.PayTo, r.PayToURL)
}

func TestNewRouterConfigResult_UnknownToken(t *testing.T) {
	cfg := baseRouter
	cfg.Asset = "0xUnknown"

	r := NewRouterConfigResult("http://localhost:8080", "http://localhost:8080/v1", cfg, "5")
	assert.Empty(t, r.AssetSymbol)
	assert.Equal(t, "5 raw units", r.PermitCapHuman)
}

func TestPrintRouterConfig(t *testing.T) {
	r := NewRouterConfigResult("http://localhost:8080", "http://localhost:8080/v1", baseRouter, "10000000")
	r.ModelID = "auto"
	r.ModelName = "x402 Router"

	var buf bytes.Buffer
	PrintRouterConfig(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "Provider: http://localhost:8080/v1")
	assert.Contains(t, out, "Base Mainnet (eip155:8453)")
	assert.Contains(t, out, "USD Coin v2")
	assert.Contains(t, out, "10.00 USDC")
	assert.Contains(t, out, "x402 Router (auto)")
	assert.NotContains(t, out, "Facilitator:")
}

func TestNewChallengeResult(t *testing.T) {
	version := 2
	pr := &x402.PaymentRequired{
		X402Version: &version,
		Accepts: []x402.PaymentRequirement{
			{
				Network:    ptr("eip155:84532"),
				Asset:      ptr("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
				PayToSnake: ptr("0xPayTo"),
				Extra:      &x402.RequirementExtra{Name: ptr("USDC"), MaxAmount: ptr("20000000")},
			},
			{},
		},
	}

	r := NewChallengeResult(pr)
	require.True(t, r.Valid)
	require.Len(t, r.Options, 2)

	first := r.Options[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "Base Sepolia", first.NetworkName)
	assert.Equal(t, "USDC", first.AssetSymbol)
	assert.Equal(t, "0xPayTo", first.PayTo)
	assert.Equal(t, "USDC", first.TokenName)
	assert.Equal(t, "20000000", first.MaxAmount)
	assert.Equal(t, "20.00 USDC", first.MaxAmountHuman)

	assert.Equal(t, PaymentOptionDisplay{Index: 2}, r.Options[1])
}

func TestPrintChallenge(t *testing.T) {
	var buf bytes.Buffer
	PrintChallenge(&buf, NewChallengeResult(nil))
	assert.Contains(t, buf.String(), "Not a valid")

	buf.Reset()
	PrintChallenge(&buf, NewChallengeResult(&x402.PaymentRequired{Error: ptr("insufficient allowance")}))
	assert.Contains(t, buf.String(), "insufficient allowance")
	assert.Contains(t, buf.String(), "Accepts:  none")

	buf.Reset()
	PrintChallenge(&buf, NewChallengeResult(&x402.PaymentRequired{
		Accepts: []x402.PaymentRequirement{{Network: ptr("eip155:1"), PayTo: ptr("0x1234567890abcdef1234567890abcdef12345678")}},
	}))
	assert.Contains(t, buf.String(), "[1] no cap on Ethereum Mainnet")
	assert.Contains(t, buf.String(), tokens.ShortAddress("0x1234567890abcdef1234567890abcdef12345678"))
}

func TestPrintRequestResult(t *testing.T) {
	r := &RequestResult{
		URL:            "http://localhost:8080/v1/chat/completions",
		Method:         "POST",
		RequestID:      "req-1",
		Status:         200,
		StatusText:     "200 OK",
		LatencyMs:      42,
		Network:        "eip155:8453",
		Paid:           true,
		Attempts:       2,
		PermitsSigned:  2,
		Renegotiated:   true,
		PermitCapHuman: "20.00 USDC",
		ResponseBody:   `{"ok":true}`,
	}

	var buf bytes.Buffer
	PrintRequestResult(&buf, r, true)
	out := buf.String()

	assert.Contains(t, out, "✓ POST http://localhost:8080/v1/chat/completions")
	assert.Contains(t, out, "up to 20.00 USDC on Base Mainnet")
	assert.Contains(t, out, "renegotiated")
	assert.Contains(t, out, "Attempts: 2 (signed 2, reused 0)")
	assert.Contains(t, out, "req-1")
	assert.Contains(t, out, `{"ok":true}`)
}

func TestPrintRequestResult_PaymentError(t *testing.T) {
	r := &RequestResult{
		URL:        "http://localhost:8080/v1/chat/completions",
		Method:     "GET",
		StatusText: "402 Payment Required",
		Error:      "router rejected payment: 402 Payment Required",
		ExitCode:   ExitPayment,
	}

	var buf bytes.Buffer
	PrintRequestResult(&buf, r, false)
	out := buf.String()

	assert.Contains(t, out, "✗ GET")
	assert.Contains(t, out, "Error: router rejected payment")
	assert.Contains(t, out, "Hint:")
	assert.NotContains(t, out, "Attempts:")
}

func TestPrintNetworks(t *testing.T) {
	var buf bytes.Buffer
	PrintNetworks(&buf, tokens.ListNetworks())
	out := buf.String()

	assert.Contains(t, out, "Base Mainnet")
	assert.Contains(t, out, "eip155:84532")
	assert.Contains(t, out, "(testnet)")
}

func TestFormatResponseBody_NotTTY(t *testing.T) {
	// go test output is not a terminal, so bodies pass through unchanged
	body := `{"a":1}`
	assert.Equal(t, body, formatResponseBody(body))
}

func TestNewPermitResult(t *testing.T) {
	p := x402.BuildPermitPayload(baseRouter, "0xsig", x402.PermitAuthorization{
		Owner:    "0xOwner",
		Value:    "10000000",
		Deadline: "1000",
	})

	r := NewPermitResult(p, nil, time.Unix(999, 0))
	assert.True(t, r.Valid)
	assert.Equal(t, "10.00 USDC", r.ValueHuman)
	assert.Equal(t, "Base Mainnet", r.NetworkName)
	assert.Equal(t, "1970-01-01T00:16:40Z", r.ExpiresAt)
	assert.False(t, r.Expired)

	assert.True(t, NewPermitResult(p, nil, time.Unix(1000, 0)).Expired)

	p.Payload.Authorization.Deadline = "soon"
	r = NewPermitResult(p, nil, time.Unix(0, 0))
	assert.Empty(t, r.ExpiresAt)
	assert.False(t, r.Expired)
}

func TestNewPermitResult_Invalid(t *testing.T) {
	r := NewPermitResult(nil, errors.New("invalid base64 payment payload"), time.Now())
	assert.False(t, r.Valid)

	var buf bytes.Buffer
	PrintPermit(&buf, r)
	assert.Contains(t, buf.String(), "Not a valid payment header value")
	assert.Contains(t, buf.String(), "invalid base64 payment payload")
}
