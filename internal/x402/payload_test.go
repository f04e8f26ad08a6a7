package x402

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPermitPayload(t *testing.T) {
	auth := PermitAuthorization{
		Owner:    "0xOwner",
		Spender:  "0xSpender",
		Value:    "10000000",
		Nonce:    "3",
		Deadline: "1700003600",
	}

	payload := BuildPermitPayload(baseConfig, "0xabc123", auth)

	assert.Equal(t, ProtocolV2, payload.X402Version)
	assert.Equal(t, SchemePermit, payload.Scheme)
	assert.Equal(t, "eip155:8453", payload.Network)
	assert.Equal(t, "0xAsset", payload.Asset)
	assert.Equal(t, "0xabc123", payload.Payload.Signature)
	assert.Equal(t, auth, payload.Payload.Authorization)
}

func TestEncodePayload_DecodePermitPayload(t *testing.T) {
	payload := BuildPermitPayload(baseConfig, "0xsig", PermitAuthorization{Owner: "0xOwner", Value: "1"})

	encoded, err := EncodePayload(payload)
	require.NoError(t, err)

	decoded, err := DecodePermitPayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestDecodePermitPayload_Unpadded(t *testing.T) {
	payload := BuildPermitPayload(baseConfig, "0xsig", PermitAuthorization{Owner: "0xOwner", Value: "12"})
	encoded, err := EncodePayload(payload)
	require.NoError(t, err)

	decoded, err := DecodePermitPayload(strings.TrimRight(encoded, "="))
	require.NoError(t, err)
	assert.Equal(t, "12", decoded.Payload.Authorization.Value)
}

func TestDecodePermitPayload_Invalid(t *testing.T) {
	_, err := DecodePermitPayload("%%%")
	assert.Error(t, err)

	_, err = DecodePermitPayload(encodeRaw("{bad"))
	assert.Error(t, err)
}
