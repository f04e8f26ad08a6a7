// Package router turns router discovery payloads into payment configuration.
package router

import (
	"encoding/json"

	"github.com/port402/x402-router/internal/tokens"
	"github.com/port402/x402-router/internal/x402"
)

// Fallbacks used when the discovery payload omits EIP-712 domain metadata.
const (
	DefaultTokenName    = "USD Coin"
	DefaultTokenVersion = "2"
)

// Defaults are caller-supplied fallbacks applied before the built-in ones.
type Defaults struct {
	Network       string
	PaymentHeader string
}

// discoveredNetwork is one entry of the discovery "networks" list after
// defensive parsing. Empty strings mean the field was absent or invalid.
type discoveredNetwork struct {
	id     string
	active bool
	asset  string
	payTo  string
}

// Normalize parses a discovery payload into a RouterConfig.
// Malformed input never fails; every unusable field falls back to a default.
//
// Payload shape:
//
//	{
//	  "networks": [{"network_id": "...", "active": true, "asset": {"address": "..."}, "pay_to": "..."}],
//	  "eip712_config": {"domain_name": "...", "domain_version": "..."},
//	  "payment_header": "..."
//	}
func Normalize(raw []byte, defaults Defaults) x402.RouterConfig {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		v = nil
	}
	return NormalizeValue(v, defaults)
}

// NormalizeValue is Normalize for an already decoded JSON value.
func NormalizeValue(v interface{}, defaults Defaults) x402.RouterConfig {
	root := x402.Object(v)

	network := defaults.Network
	if network == "" {
		network = tokens.DefaultNetwork
	}
	header := defaults.PaymentHeader
	if header == "" {
		header = x402.DefaultPaymentHeader
	}

	cfg := x402.RouterConfig{
		TokenName:     DefaultTokenName,
		TokenVersion:  DefaultTokenVersion,
		PaymentHeader: header,
	}

	var asset string
	if selected, ok := selectNetwork(root["networks"]); ok {
		if selected.id != "" {
			network = selected.id
		}
		asset = selected.asset
		cfg.PayTo = selected.payTo
	}
	if asset == "" {
		asset = tokens.DefaultAsset(network)
	}
	cfg.Network = network
	cfg.Asset = asset
	cfg.FacilitatorSigner = cfg.PayTo

	if eip712 := x402.Object(root["eip712_config"]); eip712 != nil {
		if name, ok := x402.NonEmptyString(eip712["domain_name"]); ok {
			cfg.TokenName = name
		}
		if version, ok := x402.NonEmptyString(eip712["domain_version"]); ok {
			cfg.TokenVersion = version
		}
	}
	if h, ok := x402.NonEmptyString(root["payment_header"]); ok {
		cfg.PaymentHeader = h
	}

	return cfg
}

// selectNetwork picks the first entry flagged active, else the first entry.
// It reports false when the list is missing or empty.
func selectNetwork(v interface{}) (discoveredNetwork, bool) {
	list, ok := v.([]interface{})
	if !ok || len(list) == 0 {
		return discoveredNetwork{}, false
	}

	parsed := make([]discoveredNetwork, len(list))
	for i, item := range list {
		parsed[i] = parseNetwork(item)
	}
	for _, n := range parsed {
		if n.active {
			return n, true
		}
	}
	return parsed[0], true
}

func parseNetwork(v interface{}) discoveredNetwork {
	m := x402.Object(v)
	if m == nil {
		return discoveredNetwork{}
	}

	var n discoveredNetwork
	n.id, _ = x402.NonEmptyString(m["network_id"])
	n.active, _ = x402.OptBool(m["active"])
	n.payTo, _ = x402.NonEmptyString(m["pay_to"])
	if asset := x402.Object(m["asset"]); asset != nil {
		n.asset, _ = x402.NonEmptyString(asset["address"])
	}
	return n
}
