// Package tokens provides token metadata, formatting, and block explorer URLs.
package tokens

import (
	"sort"
	"strings"
)

// DefaultNetwork is the router network assumed when discovery publishes none.
const DefaultNetwork = "eip155:8453"

// TokenInfo contains metadata for a known token.
type TokenInfo struct {
	Symbol   string
	Decimals int
	Name     string
}

// NetworkInfo contains metadata for a known network.
type NetworkInfo struct {
	Name      string
	IsTestnet bool
}

// usdcAddresses is the built-in USDC deployment per CAIP-2 network. Routers
// that omit an asset address are assumed to settle in this token.
var usdcAddresses = map[string]string{
	"eip155:8453":  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	"eip155:84532": "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	"eip155:1":     "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
}

// knownTokens maps "network:asset" to token metadata.
// Keys are lowercase for case-insensitive lookup.
var knownTokens = map[string]TokenInfo{
	"eip155:8453:0x833589fcd6edb6e08f4c7c32d4f71b54bda02913":     {Symbol: "USDC", Decimals: 6, Name: "USD Coin"},
	"eip155:84532:0x036cbd53842c5426634e7929541ec2318f3dcf7e":    {Symbol: "USDC", Decimals: 6, Name: "USDC (Testnet)"},
	"eip155:1:0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48":        {Symbol: "USDC", Decimals: 6, Name: "USD Coin"},
	"eip155:11155111:0x1c7d4b196cb0c7b01d743fbc6116a902379c7238": {Symbol: "USDC", Decimals: 6, Name: "USDC (Testnet)"},
}

// networkNames maps CAIP-2 identifiers to human-readable names.
var networkNames = map[string]NetworkInfo{
	"eip155:1":        {Name: "Ethereum Mainnet", IsTestnet: false},
	"eip155:8453":     {Name: "Base Mainnet", IsTestnet: false},
	"eip155:84532":    {Name: "Base Sepolia", IsTestnet: true},
	"eip155:11155111": {Name: "Ethereum Sepolia", IsTestnet: true},
	"eip155:137":      {Name: "Polygon Mainnet", IsTestnet: false},
	"eip155:42161":    {Name: "Arbitrum One", IsTestnet: false},
	"eip155:10":       {Name: "Optimism", IsTestnet: false},
}

// DefaultAsset returns the built-in USDC address for network, falling back to
// the DefaultNetwork deployment for networks without one.
func DefaultAsset(network string) string {
	if addr, ok := usdcAddresses[network]; ok {
		return addr
	}
	return usdcAddresses[DefaultNetwork]
}

// GetTokenInfo looks up token metadata by network and asset address.
// Returns nil if the token is not in the registry.
func GetTokenInfo(network, asset string) *TokenInfo {
	key := strings.ToLower(network + ":" + asset)
	if info, ok := knownTokens[key]; ok {
		return &info
	}
	return nil
}

// GetNetworkInfo looks up network metadata by CAIP-2 identifier.
// Returns nil if the network is not in the registry.
func GetNetworkInfo(network string) *NetworkInfo {
	if info, ok := networkNames[network]; ok {
		return &info
	}
	return nil
}

// GetNetworkName returns a human-readable network name.
// Falls back to the raw network identifier if not found.
func GetNetworkName(network string) string {
	if info := GetNetworkInfo(network); info != nil {
		return info.Name
	}
	return network
}

// IsTestnet returns true if the network is a known testnet.
func IsTestnet(network string) bool {
	if info := GetNetworkInfo(network); info != nil {
		return info.IsTestnet
	}
	return false
}

// NetworkEntry is one row of the network listing.
type NetworkEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsTestnet    bool   `json:"isTestnet"`
	Token        string `json:"token,omitempty"`
	DefaultAsset string `json:"defaultAsset,omitempty"`
}

// ListNetworks returns all known networks, mainnets first, sorted by name.
func ListNetworks() []NetworkEntry {
	entries := make([]NetworkEntry, 0, len(networkNames))
	for id, info := range networkNames {
		e := NetworkEntry{ID: id, Name: info.Name, IsTestnet: info.IsTestnet}
		if addr, ok := usdcAddresses[id]; ok {
			e.Token = "USDC"
			e.DefaultAsset = addr
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsTestnet != entries[j].IsTestnet {
			return !entries[i].IsTestnet
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
