package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// NonceSource returns the current EIP-2612 nonce of owner on token.
type NonceSource interface {
	Nonce(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// StaticNonce always returns the same nonce. Useful offline and in tests.
type StaticNonce int64

// Nonce returns n.
func (n StaticNonce) Nonce(context.Context, common.Address, common.Address) (*big.Int, error) {
	return big.NewInt(int64(n)), nil
}

// noncesSelector is the 4-byte selector of nonces(address).
var noncesSelector = crypto.Keccak256([]byte("nonces(address)"))[:4]

// RPCNonceSource reads nonces(owner) from the token contract.
type RPCNonceSource struct {
	caller ethereum.ContractCaller
}

// NewRPCNonceSource creates a nonce source backed by any contract caller,
// such as an *ethclient.Client.
func NewRPCNonceSource(caller ethereum.ContractCaller) *RPCNonceSource {
	return &RPCNonceSource{caller: caller}
}

// DialNonceSource connects to the JSON-RPC endpoint at rpcURL.
// The returned close function releases the connection.
func DialNonceSource(ctx context.Context, rpcURL string) (*RPCNonceSource, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return NewRPCNonceSource(client), client.Close, nil
}

// Nonce calls nonces(owner) at the latest block.
func (s *RPCNonceSource) Nonce(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data := make([]byte, 0, len(noncesSelector)+common.HashLength)
	data = append(data, noncesSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), common.HashLength)...)

	out, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("nonces(%s) call failed: %w", owner.Hex(), err)
	}
	if len(out) != common.HashLength {
		return nil, fmt.Errorf("unexpected nonces(%s) result length %d", owner.Hex(), len(out))
	}
	return new(big.Int).SetBytes(out), nil
}
