package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// SchemePermit identifies EIP-2612 permit payments.
const SchemePermit = "permit"

// PermitAuthorization contains the EIP-2612 Permit parameters that were signed.
type PermitAuthorization struct {
	Owner    string `json:"owner"`
	Spender  string `json:"spender"`
	Value    string `json:"value"`
	Nonce    string `json:"nonce"`
	Deadline string `json:"deadline"`
}

// PermitEvmPayload contains the signature and authorization for a permit.
type PermitEvmPayload struct {
	Signature     string              `json:"signature"`
	Authorization PermitAuthorization `json:"authorization"`
}

// PermitPayload is the value sent in the payment header (base64 encoded).
type PermitPayload struct {
	X402Version int              `json:"x402Version"`
	Scheme      string           `json:"scheme"`
	Network     string           `json:"network"`
	Asset       string           `json:"asset"`
	Payload     PermitEvmPayload `json:"payload"`
}

// BuildPermitPayload constructs the payment header payload for a signed permit.
func BuildPermitPayload(cfg RouterConfig, signature string, auth PermitAuthorization) *PermitPayload {
	return &PermitPayload{
		X402Version: ProtocolV2,
		Scheme:      SchemePermit,
		Network:     cfg.Network,
		Asset:       cfg.Asset,
		Payload: PermitEvmPayload{
			Signature:     signature,
			Authorization: auth,
		},
	}
}

// EncodePayload serializes a payload to base64-encoded JSON.
func EncodePayload(payload interface{}) (string, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(jsonBytes), nil
}

// DecodePermitPayload parses a payment header value produced by EncodePayload.
// Unpadded and URL-safe base64 are accepted as for challenges.
func DecodePermitPayload(value string) (*PermitPayload, error) {
	decoded, err := decodeBase64(value)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payment payload: %w", err)
	}

	var p PermitPayload
	if err := json.Unmarshal(decoded, &p); err != nil {
		return nil, fmt.Errorf("invalid JSON payment payload: %w", err)
	}
	return &p, nil
}
