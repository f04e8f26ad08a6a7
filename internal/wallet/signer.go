package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/port402/x402-router/internal/payment"
	"github.com/port402/x402-router/internal/tokens"
	"github.com/port402/x402-router/internal/x402"
)

// DefaultPermitTTL is how long a signed permit stays valid.
const DefaultPermitTTL = time.Hour

// PermitSigner signs EIP-2612 permits authorizing the router's facilitator to
// spend up to the permit cap. It implements payment.Signer.
type PermitSigner struct {
	nonces NonceSource
	ttl    time.Duration
	now    func() time.Time
}

// SignerOption configures the PermitSigner.
type SignerOption func(*PermitSigner)

// WithNonceSource sets where permit nonces come from. The default is StaticNonce(0).
func WithNonceSource(n NonceSource) SignerOption {
	return func(s *PermitSigner) {
		s.nonces = n
	}
}

// WithPermitTTL sets the permit lifetime.
func WithPermitTTL(ttl time.Duration) SignerOption {
	return func(s *PermitSigner) {
		s.ttl = ttl
	}
}

// WithSignerClock replaces the clock used to compute deadlines.
func WithSignerClock(now func() time.Time) SignerOption {
	return func(s *PermitSigner) {
		s.now = now
	}
}

// NewPermitSigner creates a PermitSigner.
func NewPermitSigner(opts ...SignerOption) *PermitSigner {
	s := &PermitSigner{
		nonces: StaticNonce(0),
		ttl:    DefaultPermitTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ payment.Signer = (*PermitSigner)(nil)

// SignPermit signs Permit(owner, spender, value, nonce, deadline) where the
// owner is the key's address, the spender is the facilitator signer and the
// value is the cap. The returned PaymentSig is the encoded permit payload.
func (s *PermitSigner) SignPermit(ctx context.Context, req payment.PermitRequest) (x402.CachedPermit, error) {
	key, err := LoadFromHex(req.PrivateKey)
	if err != nil {
		return x402.CachedPermit{}, err
	}

	cfg := req.Router
	if !x402.IsEVMNetwork(cfg.Network) {
		return x402.CachedPermit{}, fmt.Errorf("permits require an EVM network, got %q", cfg.Network)
	}
	chainID, err := x402.ExtractChainID(cfg.Network)
	if err != nil {
		return x402.CachedPermit{}, err
	}
	if !common.IsHexAddress(cfg.Asset) {
		return x402.CachedPermit{}, fmt.Errorf("invalid token address: %q", cfg.Asset)
	}
	if !common.IsHexAddress(cfg.FacilitatorSigner) {
		return x402.CachedPermit{}, fmt.Errorf("invalid facilitator signer address: %q", cfg.FacilitatorSigner)
	}

	value, err := tokens.ParseCap(req.Cap)
	if err != nil {
		return x402.CachedPermit{}, fmt.Errorf("invalid permit cap: %w", err)
	}

	owner := crypto.PubkeyToAddress(key.PublicKey)
	nonce, err := s.nonces.Nonce(ctx, common.HexToAddress(cfg.Asset), owner)
	if err != nil {
		return x402.CachedPermit{}, fmt.Errorf("failed to fetch permit nonce: %w", err)
	}

	deadline := s.now().Add(s.ttl).Unix()
	auth := x402.PermitAuthorization{
		Owner:    owner.Hex(),
		Spender:  common.HexToAddress(cfg.FacilitatorSigner).Hex(),
		Value:    value.String(),
		Nonce:    nonce.String(),
		Deadline: fmt.Sprintf("%d", deadline),
	}

	signature, err := signTypedData(key, PermitTypedData(cfg, chainID, auth))
	if err != nil {
		return x402.CachedPermit{}, err
	}

	encoded, err := x402.EncodePayload(x402.BuildPermitPayload(cfg, signature, auth))
	if err != nil {
		return x402.CachedPermit{}, fmt.Errorf("failed to encode permit payload: %w", err)
	}

	return x402.CachedPermit{
		PaymentSig: encoded,
		Deadline:   deadline,
		MaxValue:   req.Cap,
		Nonce:      auth.Nonce,
		Network:    cfg.Network,
		Asset:      cfg.Asset,
		PayTo:      cfg.PayTo,
	}, nil
}

// PermitTypedData builds the EIP-712 typed data for an EIP-2612 Permit on the
// token at cfg.Asset.
func PermitTypedData(cfg x402.RouterConfig, chainID int64, auth x402.PermitAuthorization) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Permit": {
				{Name: "owner", Type: "address"},
				{Name: "spender", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "Permit",
		Domain: apitypes.TypedDataDomain{
			Name:              cfg.TokenName,
			Version:           cfg.TokenVersion,
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: common.HexToAddress(cfg.Asset).Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner":    auth.Owner,
			"spender":  auth.Spender,
			"value":    auth.Value,
			"nonce":    auth.Nonce,
			"deadline": auth.Deadline,
		},
	}
}

// TypedDataHash returns keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func TypedDataHash(typedData apitypes.TypedData) (common.Hash, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte{0x19, 0x01}
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, messageHash...)
	return crypto.Keccak256Hash(rawData), nil
}

// signTypedData returns the 0x-prefixed 65-byte signature with v in {27, 28}.
func signTypedData(key *ecdsa.PrivateKey, typedData apitypes.TypedData) (string, error) {
	hash, err := TypedDataHash(typedData)
	if err != nil {
		return "", err
	}

	signature, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	if signature[64] < 27 {
		signature[64] += 27
	}
	return "0x" + common.Bytes2Hex(signature), nil
}
