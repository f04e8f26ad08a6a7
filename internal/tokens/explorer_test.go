package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExplorerURL(t *testing.T) {
	tests := []struct {
		network  string
		txHash   string
		expected string
	}{
		{"eip155:1", "0xabc123", "https://etherscan.io/tx/0xabc123"},
		{"eip155:8453", "0xdef456", "https://basescan.org/tx/0xdef456"},
		{"eip155:84532", "0x789", "https://sepolia.basescan.org/tx/0x789"},
		{"eip155:10", "0xopt", "https://optimistic.etherscan.io/tx/0xopt"},
	}

	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetExplorerURL(tt.network, tt.txHash))
		})
	}
}

func TestGetExplorerURL_UnknownNetwork(t *testing.T) {
	assert.Empty(t, GetExplorerURL("eip155:999999", "0xabc"))
	assert.Empty(t, GetExplorerURL("base", "0xabc"))
}

func TestGetAddressExplorerURL(t *testing.T) {
	assert.Equal(t, "https://basescan.org/address/0xPayTo", GetAddressExplorerURL("eip155:8453", "0xPayTo"))
	assert.Empty(t, GetAddressExplorerURL("eip155:999999", "0xPayTo"))
}

func TestGetExplorerHost(t *testing.T) {
	assert.Equal(t, "sepolia.basescan.org", GetExplorerHost("eip155:84532"))
	assert.Equal(t, "-", GetExplorerHost("eip155:999999"))
}
