package tokens

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// DefaultDecimals is assumed for tokens missing from the registry.
const DefaultDecimals = 6

// ErrNonPositiveCap is returned for a permit cap of zero.
var ErrNonPositiveCap = errors.New("permit cap must be positive")

// ParseCap parses a permit cap given in atomic units. Only plain base-10
// digits are accepted: no sign, no separators, no exponent.
func ParseCap(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if !isDigits(raw) {
		return nil, fmt.Errorf("%q is not an integer amount of atomic units", raw)
	}
	v, _ := new(big.Int).SetString(raw, 10)
	if v.Sign() == 0 {
		return nil, ErrNonPositiveCap
	}
	return v, nil
}

// ParseHumanCap converts a token amount such as "0.25" to a permit cap in
// atomic units. Amounts finer than the token's precision are rejected rather
// than rounded, so a cap never silently shrinks.
func ParseHumanCap(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if (whole != "" && !isDigits(whole)) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if trimmed := strings.TrimRight(frac, "0"); len(trimmed) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}

	frac = strings.TrimRight(frac, "0")
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if v.Sign() == 0 {
		return nil, ErrNonPositiveCap
	}
	return v, nil
}

// ParseNetworkCap converts a human amount of network's default token to a cap.
func ParseNetworkCap(amount, network string) (*big.Int, error) {
	return ParseHumanCap(amount, Decimals(network, DefaultAsset(network)))
}

// Decimals returns the token's precision, or DefaultDecimals when unknown.
func Decimals(network, asset string) int {
	if info := GetTokenInfo(network, asset); info != nil {
		return info.Decimals
	}
	return DefaultDecimals
}

// RaisesCap reports whether next is a strictly larger cap than prev.
// Unparseable caps never count as raised.
func RaisesCap(prev, next string) bool {
	a, ok := new(big.Int).SetString(prev, 10)
	if !ok {
		return false
	}
	b, ok := new(big.Int).SetString(next, 10)
	if !ok {
		return false
	}
	return b.Cmp(a) > 0
}

// FormatUnits renders atomic units with the token's precision, keeping at
// least two fractional digits: 2500000 with 6 decimals is "2.50".
func FormatUnits(v *big.Int, decimals int) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(v), scale, new(big.Int))

	fracStr := frac.String()
	if pad := decimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	for len(fracStr) < 2 {
		fracStr += "0"
	}

	sign := ""
	if v.Sign() < 0 {
		sign = "-"
	}
	return sign + whole.String() + "." + fracStr
}

// FormatCap renders a raw cap for display, e.g. "10.00 USDC". Caps of unknown
// tokens are shown as raw units and reported as not known.
func FormatCap(raw, network, asset string) (formatted string, known bool) {
	info := GetTokenInfo(network, asset)
	v, ok := new(big.Int).SetString(raw, 10)
	if info == nil || !ok {
		return raw + " raw units", false
	}
	return FormatUnits(v, info.Decimals) + " " + info.Symbol, true
}

// ShortAddress abbreviates a hex address as 0x1234...abcd.
func ShortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
