package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/port402/x402-router/internal/tokens"
	"github.com/port402/x402-router/internal/x402"
)

// Exit codes shared by commands.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitNetwork  = 3
	ExitProtocol = 4
	ExitPayment  = 5
)

// RouterConfigResult is the resolved router configuration as printed by `config`.
type RouterConfigResult struct {
	RouterURL         string `json:"routerUrl"`
	ProviderBaseURL   string `json:"providerBaseUrl"`
	Network           string `json:"network"`
	NetworkName       string `json:"networkName"`
	Asset             string `json:"asset"`
	AssetSymbol       string `json:"assetSymbol,omitempty"`
	PayTo             string `json:"payTo"`
	PayToURL          string `json:"payToUrl,omitempty"`
	FacilitatorSigner string `json:"facilitatorSigner"`
	TokenName         string `json:"tokenName"`
	TokenVersion      string `json:"tokenVersion"`
	PaymentHeader     string `json:"paymentHeader"`
	PermitCap         string `json:"permitCap"`
	PermitCapHuman    string `json:"permitCapHuman"`
	ModelID           string `json:"modelId"`
	ModelName         string `json:"modelName"`
}

// NewRouterConfigResult fills the display fields derived from cfg.
func NewRouterConfigResult(routerURL, providerBaseURL string, cfg x402.RouterConfig, permitCap string) *RouterConfigResult {
	r := &RouterConfigResult{
		RouterURL:         routerURL,
		ProviderBaseURL:   providerBaseURL,
		Network:           cfg.Network,
		NetworkName:       tokens.GetNetworkName(cfg.Network),
		Asset:             cfg.Asset,
		PayTo:             cfg.PayTo,
		PayToURL:          tokens.GetAddressExplorerURL(cfg.Network, cfg.PayTo),
		FacilitatorSigner: cfg.FacilitatorSigner,
		TokenName:         cfg.TokenName,
		TokenVersion:      cfg.TokenVersion,
		PaymentHeader:     cfg.PaymentHeader,
		PermitCap:         permitCap,
	}
	if info := tokens.GetTokenInfo(cfg.Network, cfg.Asset); info != nil {
		r.AssetSymbol = info.Symbol
	}
	r.PermitCapHuman, _ = tokens.FormatCap(permitCap, cfg.Network, cfg.Asset)
	return r
}

// PaymentOptionDisplay contains formatted payment option info for display.
type PaymentOptionDisplay struct {
	Index          int    `json:"index"`
	Network        string `json:"network,omitempty"`
	NetworkName    string `json:"networkName,omitempty"`
	Asset          string `json:"asset,omitempty"`
	AssetSymbol    string `json:"assetSymbol,omitempty"`
	PayTo          string `json:"payTo,omitempty"`
	TokenName      string `json:"tokenName,omitempty"`
	TokenVersion   string `json:"tokenVersion,omitempty"`
	MaxAmount      string `json:"maxAmount,omitempty"`
	MaxAmountHuman string `json:"maxAmountHuman,omitempty"`
}

// ChallengeResult is a decoded PAYMENT-REQUIRED value.
type ChallengeResult struct {
	Valid       bool                   `json:"valid"`
	X402Version *int                   `json:"x402Version,omitempty"`
	Error       *string                `json:"error,omitempty"`
	Options     []PaymentOptionDisplay `json:"options,omitempty"`
}

// NewChallengeResult builds the display form of a decoded challenge.
// A nil challenge yields an invalid result.
func NewChallengeResult(pr *x402.PaymentRequired) *ChallengeResult {
	if pr == nil {
		return &ChallengeResult{}
	}

	r := &ChallengeResult{Valid: true, X402Version: pr.X402Version, Error: pr.Error}
	for i := range pr.Accepts {
		r.Options = append(r.Options, newPaymentOption(i+1, &pr.Accepts[i]))
	}
	return r
}

func newPaymentOption(index int, req *x402.PaymentRequirement) PaymentOptionDisplay {
	opt := PaymentOptionDisplay{Index: index}
	if req.Network != nil {
		opt.Network = *req.Network
		opt.NetworkName = tokens.GetNetworkName(opt.Network)
	}
	if req.Asset != nil {
		opt.Asset = *req.Asset
		if info := tokens.GetTokenInfo(opt.Network, opt.Asset); info != nil {
			opt.AssetSymbol = info.Symbol
		}
	}
	if req.PayTo != nil {
		opt.PayTo = *req.PayTo
	} else if req.PayToSnake != nil {
		opt.PayTo = *req.PayToSnake
	}
	if req.Extra != nil {
		if req.Extra.Name != nil {
			opt.TokenName = *req.Extra.Name
		}
		if req.Extra.Version != nil {
			opt.TokenVersion = *req.Extra.Version
		}
	}
	if amount, ok := x402.MaxAmountRequired(req); ok {
		opt.MaxAmount = amount
		opt.MaxAmountHuman, _ = tokens.FormatCap(amount, opt.Network, opt.Asset)
	}
	return opt
}

// PermitResult is the display form of a decoded payment header value.
type PermitResult struct {
	Valid       bool   `json:"valid"`
	Scheme      string `json:"scheme,omitempty"`
	Network     string `json:"network,omitempty"`
	NetworkName string `json:"networkName,omitempty"`
	Asset       string `json:"asset,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Spender     string `json:"spender,omitempty"`
	Value       string `json:"value,omitempty"`
	ValueHuman  string `json:"valueHuman,omitempty"`
	Nonce       string `json:"nonce,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
	Expired     bool   `json:"expired"`
	Error       string `json:"error,omitempty"`
}

// NewPermitResult builds the display form of p, judging expiry against now.
// A nil payload yields an invalid result carrying err.
func NewPermitResult(p *x402.PermitPayload, err error, now time.Time) *PermitResult {
	if p == nil {
		r := &PermitResult{}
		if err != nil {
			r.Error = err.Error()
		}
		return r
	}

	auth := p.Payload.Authorization
	r := &PermitResult{
		Valid:       true,
		Scheme:      p.Scheme,
		Network:     p.Network,
		NetworkName: tokens.GetNetworkName(p.Network),
		Asset:       p.Asset,
		Owner:       auth.Owner,
		Spender:     auth.Spender,
		Value:       auth.Value,
		Nonce:       auth.Nonce,
		Deadline:    auth.Deadline,
	}
	r.ValueHuman, _ = tokens.FormatCap(auth.Value, p.Network, p.Asset)
	if deadline, perr := strconv.ParseInt(auth.Deadline, 10, 64); perr == nil {
		expires := time.Unix(deadline, 0).UTC()
		r.ExpiresAt = expires.Format(time.RFC3339)
		r.Expired = !expires.After(now)
	}
	return r
}

// RequestResult contains the outcome of a paid request.
type RequestResult struct {
	URL               string                `json:"url"`
	Method            string                `json:"method"`
	RequestID         string                `json:"requestId,omitempty"`
	Status            int                   `json:"status"`
	StatusText        string                `json:"statusText"`
	LatencyMs         int64                 `json:"latencyMs"`
	Network           string                `json:"network,omitempty"`
	Paid              bool                  `json:"paid"`
	Attempts          int                   `json:"attempts"`
	PermitsSigned     int                   `json:"permitsSigned"`
	PermitsReused     int                   `json:"permitsReused"`
	Renegotiated      bool                  `json:"renegotiated"`
	PermitCap         string                `json:"permitCap,omitempty"`
	PermitCapHuman    string                `json:"permitCapHuman,omitempty"`
	Transaction       string                `json:"transaction,omitempty"`
	TransactionURL    string                `json:"transactionUrl,omitempty"`
	PaymentResponse   *x402.PaymentResponse `json:"paymentResponse,omitempty"`
	ResponseBody      string                `json:"responseBody,omitempty"`
	RetryAfterSeconds int64                 `json:"retryAfterSeconds,omitempty"`
	ExitCode          int                   `json:"exitCode"`
	Error             string                `json:"error,omitempty"`
}

// PrintRouterConfig outputs the router configuration in human-readable format.
func PrintRouterConfig(w io.Writer, r *RouterConfigResult) {
	fmt.Fprintf(w, "Router:   %s\n", r.RouterURL)
	fmt.Fprintf(w, "Provider: %s\n", r.ProviderBaseURL)
	fmt.Fprintln(w)
	testnet := ""
	if tokens.IsTestnet(r.Network) {
		testnet = ", testnet"
	}
	fmt.Fprintf(w, "  Network:     %s (%s%s)\n", r.NetworkName, r.Network, testnet)
	asset := r.Asset
	if r.AssetSymbol != "" {
		asset = fmt.Sprintf("%s (%s)", r.Asset, r.AssetSymbol)
	}
	fmt.Fprintf(w, "  Asset:       %s\n", asset)
	fmt.Fprintf(w, "  Token:       %s v%s\n", r.TokenName, r.TokenVersion)
	fmt.Fprintf(w, "  Pay to:      %s\n", r.PayTo)
	if r.PayToURL != "" {
		fmt.Fprintf(w, "               %s\n", r.PayToURL)
	}
	if r.FacilitatorSigner != r.PayTo {
		fmt.Fprintf(w, "  Facilitator: %s\n", r.FacilitatorSigner)
	}
	fmt.Fprintf(w, "  Header:      %s\n", r.PaymentHeader)
	fmt.Fprintf(w, "  Permit cap:  %s\n", r.PermitCapHuman)
	if r.ModelID != "" {
		fmt.Fprintf(w, "  Model:       %s (%s)\n", r.ModelName, r.ModelID)
	}
}

// PrintChallenge outputs a decoded challenge in human-readable format.
func PrintChallenge(w io.Writer, r *ChallengeResult) {
	if !r.Valid {
		fmt.Fprintln(w, "✗ Not a valid PAYMENT-REQUIRED value")
		return
	}

	fmt.Fprintln(w, "✓ PAYMENT-REQUIRED")
	fmt.Fprintln(w)
	if r.X402Version != nil {
		fmt.Fprintf(w, "  Version:  %d\n", *r.X402Version)
	}
	if r.Error != nil {
		fmt.Fprintf(w, "  Error:    %s\n", *r.Error)
	}
	if len(r.Options) == 0 {
		fmt.Fprintln(w, "  Accepts:  none")
		return
	}

	fmt.Fprintln(w, "  Accepts:")
	for _, opt := range r.Options {
		network := opt.NetworkName
		if network == "" {
			network = "-"
		}
		amount := opt.MaxAmountHuman
		if amount == "" {
			amount = "no cap"
		}
		fmt.Fprintf(w, "    [%d] %s on %s\n", opt.Index, amount, network)
		if opt.PayTo != "" {
			fmt.Fprintf(w, "        pay to %s\n", tokens.ShortAddress(opt.PayTo))
		}
	}
}

// PrintPermit outputs a decoded payment header value in human-readable format.
func PrintPermit(w io.Writer, r *PermitResult) {
	if !r.Valid {
		fmt.Fprintln(w, "✗ Not a valid payment header value")
		if r.Error != "" {
			fmt.Fprintf(w, "  %s\n", r.Error)
		}
		return
	}

	fmt.Fprintf(w, "✓ %s payment on %s\n", r.Scheme, r.NetworkName)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Owner:    %s\n", r.Owner)
	fmt.Fprintf(w, "  Spender:  %s\n", r.Spender)
	fmt.Fprintf(w, "  Cap:      %s\n", r.ValueHuman)
	fmt.Fprintf(w, "  Nonce:    %s\n", r.Nonce)
	switch {
	case r.ExpiresAt == "":
		fmt.Fprintf(w, "  Deadline: %s\n", r.Deadline)
	case r.Expired:
		fmt.Fprintf(w, "  Deadline: %s (expired)\n", r.ExpiresAt)
	default:
		fmt.Fprintf(w, "  Deadline: %s\n", r.ExpiresAt)
	}
}

// PrintRequestResult outputs the result of a paid request in human-readable format.
func PrintRequestResult(w io.Writer, r *RequestResult, verbose bool) {
	if r.Error != "" {
		fmt.Fprintf(w, "✗ %s %s\n", r.Method, r.URL)
	} else {
		fmt.Fprintf(w, "✓ %s %s\n", r.Method, r.URL)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Status:   %s\n", r.StatusText)
	fmt.Fprintf(w, "  Latency:  %dms\n", r.LatencyMs)
	if r.Paid {
		fmt.Fprintf(w, "  Permit:   up to %s on %s\n", r.PermitCapHuman, tokens.GetNetworkName(r.Network))
		if r.Renegotiated {
			fmt.Fprintln(w, "            renegotiated after the router rejected the first permit")
		}
		if verbose {
			fmt.Fprintf(w, "  Attempts: %d (signed %d, reused %d)\n", r.Attempts, r.PermitsSigned, r.PermitsReused)
			fmt.Fprintf(w, "  Request:  %s\n", r.RequestID)
		}
	}

	if r.Transaction != "" {
		fmt.Fprintf(w, "  TxHash:   %s\n", r.Transaction)
		if r.TransactionURL != "" {
			fmt.Fprintf(w, "  View:     %s\n", r.TransactionURL)
		}
	}

	if r.ResponseBody != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Response:")
		fmt.Fprintln(w, formatResponseBody(r.ResponseBody))
	}

	if r.Error != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Error: %s\n", r.Error)
		if r.RetryAfterSeconds > 0 {
			fmt.Fprintf(w, "Retry: after %ds\n", r.RetryAfterSeconds)
		}
		if r.ExitCode == ExitPayment {
			fmt.Fprintln(w, "Hint:  check the permit cap (X402_PERMIT_CAP) and the wallet balance")
		}
	}
}

// PrintNetworks outputs the supported networks table.
func PrintNetworks(w io.Writer, entries []tokens.NetworkEntry) {
	fmt.Fprintln(w, "Supported Networks")
	fmt.Fprintln(w)

	for _, e := range entries {
		testnet := ""
		if e.IsTestnet {
			testnet = "  (testnet)"
		}

		tokenStr := e.Token
		if tokenStr == "" {
			tokenStr = "-"
		}

		fmt.Fprintf(w, "  %-18s %-14s %-6s %s%s\n", e.Name, e.ID, tokenStr, tokens.GetExplorerHost(e.ID), testnet)
	}
	fmt.Fprintln(w)
}

// PrintError outputs an error message to stderr.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// PrintWarning outputs a warning message to stderr.
func PrintWarning(msg string) {
	fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
}

// maxPrettyPrintSize is the maximum response size (in bytes) to pretty-print.
const maxPrettyPrintSize = 50 * 1024

// formatResponseBody pretty-prints JSON when outputting to a terminal,
// otherwise returns the raw body for piping to other tools.
func formatResponseBody(body string) string {
	if !IsTTY() || len(body) > maxPrettyPrintSize {
		return body
	}

	// json.Indent rejects invalid JSON
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(body), "", "  "); err != nil {
		return body
	}
	return pretty.String()
}
