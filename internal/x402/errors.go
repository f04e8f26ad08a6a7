package x402

import (
	"encoding/json"
	"strings"
)

// staleMarkers are substrings of router errors that mean the permit must be re-signed.
var staleMarkers = []string{
	"invalid_payment_signature",
	"invalid payment signature",
	"invalid permit",
	"permit expired",
	"nonce too low",
}

// ParseErrorBody normalizes an error body into an ErrorResponse.
//
// Two shapes are recognized, in order:
//   - flat: {"code": "...", "error": "...", "message": "..."} with code or error a string
//   - nested: {"error": {"code": "...", "message": "..."}} where the message may
//     also be published as error.error
//
// Any other shape, including invalid JSON, yields nil.
func ParseErrorBody(data []byte) *ErrorResponse {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return ParseErrorValue(raw)
}

// ParseErrorValue is ParseErrorBody for an already decoded JSON value.
func ParseErrorValue(v interface{}) *ErrorResponse {
	root := Object(v)
	if root == nil {
		return nil
	}

	code := OptString(root["code"])
	errText := OptString(root["error"])
	if code != nil || errText != nil {
		return &ErrorResponse{
			Code:    code,
			Error:   errText,
			Message: OptString(root["message"]),
		}
	}

	nested := Object(root["error"])
	if nested == nil {
		return nil
	}

	message := OptString(nested["message"])
	if message == nil {
		message = OptString(nested["error"])
	}
	return &ErrorResponse{
		Code:    OptString(nested["code"]),
		Error:   message,
		Message: message,
	}
}

// IsPaymentStale reports whether the error means the permit was rejected as
// stale, underpaid or badly signed, so a fresh permit may succeed.
func IsPaymentStale(e *ErrorResponse) bool {
	if e == nil {
		return false
	}

	combined := strings.ToLower(deref(e.Code) + " " + deref(e.Error) + " " + deref(e.Message))
	for _, marker := range staleMarkers {
		if strings.Contains(combined, marker) {
			return true
		}
	}
	return false
}
