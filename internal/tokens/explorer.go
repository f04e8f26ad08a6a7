package tokens

import (
	"fmt"
	"strings"
)

// explorerURLs maps CAIP-2 network identifiers to block explorer base URLs.
var explorerURLs = map[string]string{
	"eip155:1":        "https://etherscan.io",
	"eip155:8453":     "https://basescan.org",
	"eip155:84532":    "https://sepolia.basescan.org",
	"eip155:11155111": "https://sepolia.etherscan.io",
	"eip155:137":      "https://polygonscan.com",
	"eip155:42161":    "https://arbiscan.io",
	"eip155:10":       "https://optimistic.etherscan.io",
}

// GetExplorerURL returns the block explorer URL for a settlement transaction.
// Returns empty string if the network is not in the registry.
func GetExplorerURL(network, txHash string) string {
	baseURL, ok := explorerURLs[network]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", baseURL, txHash)
}

// GetAddressExplorerURL returns the block explorer URL for an address.
func GetAddressExplorerURL(network, address string) string {
	baseURL, ok := explorerURLs[network]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", baseURL, address)
}

// GetExplorerHost returns the explorer host name for display, or "-".
func GetExplorerHost(network string) string {
	baseURL, ok := explorerURLs[network]
	if !ok {
		return "-"
	}
	return strings.TrimPrefix(baseURL, "https://")
}
