// Package x402 implements the x402 payment protocol types, the PAYMENT-REQUIRED
// challenge codec and the error classification used to renegotiate permits.
package x402

// RouterConfig holds the negotiated payment parameters for one router.
type RouterConfig struct {
	Network           string `json:"network"`
	Asset             string `json:"asset"`
	PayTo             string `json:"payTo"`
	FacilitatorSigner string `json:"facilitatorSigner"`
	TokenName         string `json:"tokenName"`
	TokenVersion      string `json:"tokenVersion"`
	PaymentHeader     string `json:"paymentHeader"`
}

// CachedPermit is a signed authorization valid until Deadline (unix seconds).
// Permits are never mutated; a cache entry is replaced wholesale.
type CachedPermit struct {
	PaymentSig string `json:"paymentSig"`
	Deadline   int64  `json:"deadline"`
	MaxValue   string `json:"maxValue"`
	Nonce      string `json:"nonce"`
	Network    string `json:"network"`
	Asset      string `json:"asset"`
	PayTo      string `json:"payTo"`
}

// PaymentRequired is the decoded PAYMENT-REQUIRED challenge.
// Every field is optional on the wire.
type PaymentRequired struct {
	X402Version *int                 `json:"x402Version,omitempty"`
	Error       *string              `json:"error,omitempty"`
	Accepts     []PaymentRequirement `json:"accepts,omitempty"`
}

// PaymentRequirement is a server-issued correction to the payment parameters.
// Absent fields fall back to the current RouterConfig value.
type PaymentRequirement struct {
	Network    *string           `json:"network,omitempty"`
	Asset      *string           `json:"asset,omitempty"`
	PayTo      *string           `json:"payTo,omitempty"`
	PayToSnake *string           `json:"pay_to,omitempty"`
	Extra      *RequirementExtra `json:"extra,omitempty"`
}

// RequirementExtra carries token metadata and the required cap.
// The cap is published under four aliases depending on the router version.
type RequirementExtra struct {
	Name                   *string `json:"name,omitempty"`
	Version                *string `json:"version,omitempty"`
	MaxAmountRequired      *string `json:"maxAmountRequired,omitempty"`
	MaxAmountRequiredSnake *string `json:"max_amount_required,omitempty"`
	MaxAmount              *string `json:"maxAmount,omitempty"`
	MaxAmountSnake         *string `json:"max_amount,omitempty"`
}

// ErrorResponse is the normalized error body of a failed request.
type ErrorResponse struct {
	Code    *string `json:"code,omitempty"`
	Error   *string `json:"error,omitempty"`
	Message *string `json:"message,omitempty"`
}

// PaymentResponse represents the router's settlement receipt after a paid request.
type PaymentResponse struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Protocol version constants.
const (
	ProtocolV1 = 1
	ProtocolV2 = 2
)

// Header names for x402 protocol.
const (
	HeaderPaymentRequired = "Payment-Required"
	HeaderPaymentResponse = "Payment-Response"

	// v1 settlement header
	HeaderXPaymentResponse = "X-Payment-Response"
)

// DefaultPaymentHeader is the payment header name used when the router does not publish one.
const DefaultPaymentHeader = "PAYMENT-SIGNATURE"

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
