package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// caip2EVMPrefix is the prefix for EVM chains in CAIP-2 format.
const caip2EVMPrefix = "eip155:"

// ParsePaymentResponse extracts the settlement receipt from a successful response.
// Checks the appropriate header based on protocol version.
func ParsePaymentResponse(resp *http.Response, protocolVersion int) (*PaymentResponse, error) {
	var headerName string
	if protocolVersion == ProtocolV2 {
		headerName = HeaderPaymentResponse
	} else {
		headerName = HeaderXPaymentResponse
	}

	headerValue := resp.Header.Get(headerName)
	if headerValue == "" {
		// No payment response header - may still be success
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(headerValue)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 in %s header: %w", headerName, err)
	}

	var pr PaymentResponse
	if err := json.Unmarshal(decoded, &pr); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s header: %w", headerName, err)
	}

	return &pr, nil
}

// networkNameToChainID maps common network names to their chain IDs.
// Routers on older releases publish simple names instead of CAIP-2 identifiers.
var networkNameToChainID = map[string]int64{
	// Mainnets
	"ethereum":  1,
	"mainnet":   1,
	"base":      8453,
	"polygon":   137,
	"arbitrum":  42161,
	"optimism":  10,
	"avalanche": 43114,
	"bsc":       56,
	// Testnets
	"sepolia":      11155111,
	"goerli":       5,
	"base-sepolia": 84532,
	"base_sepolia": 84532,
	"basesepolia":  84532,
	"mumbai":       80001,
}

// IsEVMNetwork checks if the network is an EVM-compatible chain.
// Supports both CAIP-2 format (eip155:*) and common network names.
func IsEVMNetwork(network string) bool {
	// Check CAIP-2 format (must have content after prefix)
	if strings.HasPrefix(network, caip2EVMPrefix) && len(network) > len(caip2EVMPrefix) {
		return true
	}
	_, ok := networkNameToChainID[network]
	return ok
}

// ExtractChainID extracts the numeric chain ID from a network string.
// Supports both CAIP-2 format (eip155:8453) and common names (base).
func ExtractChainID(network string) (int64, error) {
	if strings.HasPrefix(network, caip2EVMPrefix) {
		var chainID int64
		_, err := fmt.Sscanf(network, caip2EVMPrefix+"%d", &chainID)
		if err != nil {
			return 0, fmt.Errorf("invalid chain ID in network %s: %w", network, err)
		}
		return chainID, nil
	}

	if chainID, ok := networkNameToChainID[network]; ok {
		return chainID, nil
	}

	return 0, fmt.Errorf("unknown network: %s", network)
}
