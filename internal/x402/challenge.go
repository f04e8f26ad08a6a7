package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DecodeChallenge decodes a PAYMENT-REQUIRED header value.
// The value is base64 of UTF-8 JSON, padded or not, in the standard or the
// URL-safe alphabet. Any decode or parse failure yields nil.
func DecodeChallenge(headerValue string) *PaymentRequired {
	decoded, err := decodeBase64(headerValue)
	if err != nil {
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(decoded, &raw); err != nil {
		return nil
	}
	root := Object(raw)
	if root == nil {
		return nil
	}

	pr := &PaymentRequired{
		X402Version: optInt(root["x402Version"]),
		Error:       OptString(root["error"]),
	}
	if accepts, ok := root["accepts"].([]interface{}); ok {
		pr.Accepts = make([]PaymentRequirement, 0, len(accepts))
		for _, a := range accepts {
			pr.Accepts = append(pr.Accepts, decodeRequirement(a))
		}
	}
	return pr
}

// decodeBase64 decodes value leniently: surrounding whitespace and trailing
// padding are dropped before trying the standard and then the URL alphabet.
func decodeBase64(value string) ([]byte, error) {
	value = strings.TrimRight(strings.TrimSpace(value), "=")
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(value)
}

// ChallengeFromResponse decodes the PAYMENT-REQUIRED header of resp, if any.
func ChallengeFromResponse(resp *http.Response) *PaymentRequired {
	value := resp.Header.Get(HeaderPaymentRequired)
	if value == "" {
		return nil
	}
	return DecodeChallenge(value)
}

// EncodeChallenge serializes a challenge to its header value.
func EncodeChallenge(pr *PaymentRequired) (string, error) {
	jsonBytes, err := json.Marshal(pr)
	if err != nil {
		return "", fmt.Errorf("encoding challenge: %w", err)
	}
	return base64.StdEncoding.EncodeToString(jsonBytes), nil
}

// FirstRequirement returns the first accepted requirement. Later entries are ignored.
func (p *PaymentRequired) FirstRequirement() *PaymentRequirement {
	if p == nil || len(p.Accepts) == 0 {
		return nil
	}
	return &p.Accepts[0]
}

func decodeRequirement(v interface{}) PaymentRequirement {
	m := Object(v)
	if m == nil {
		return PaymentRequirement{}
	}

	req := PaymentRequirement{
		Network:    OptString(m["network"]),
		Asset:      OptString(m["asset"]),
		PayTo:      OptString(m["payTo"]),
		PayToSnake: OptString(m["pay_to"]),
	}
	if extra := Object(m["extra"]); extra != nil {
		req.Extra = &RequirementExtra{
			Name:                   OptString(extra["name"]),
			Version:                OptString(extra["version"]),
			MaxAmountRequired:      OptString(extra["maxAmountRequired"]),
			MaxAmountRequiredSnake: OptString(extra["max_amount_required"]),
			MaxAmount:              OptString(extra["maxAmount"]),
			MaxAmountSnake:         OptString(extra["max_amount"]),
		}
	}
	return req
}
