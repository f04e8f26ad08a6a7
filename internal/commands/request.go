package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/port402/x402-router/internal/client"
	"github.com/port402/x402-router/internal/output"
	"github.com/port402/x402-router/internal/payment"
	"github.com/port402/x402-router/internal/router"
	"github.com/port402/x402-router/internal/tokens"
	"github.com/port402/x402-router/internal/wallet"
	"github.com/port402/x402-router/internal/x402"
)

// Request command flags
var (
	requestData    string
	requestMethod  string
	requestHeaders []string
	requestTimeout int
	maxAmount      string
	keyFromStdin   bool
)

// maxResponseBody caps how much of the router's response is kept for output.
const maxResponseBody = 10 << 20

var requestCmd = &cobra.Command{
	Use:   "request <path>",
	Short: "Send a paid request through the router",
	Long: `Send a request to the router with a signed permit attached.

The path is resolved against X402_ROUTER_URL; absolute URLs are sent as-is and
only paid when they point at the router. Discovery paths (/config, /models)
are never paid.

Examples:
  x402-router request /v1/models
  x402-router request /v1/chat/completions -X POST -d @body.json
  x402-router request /v1/chat/completions -X POST -d '{"model":"auto"}' -H "X-Trace: 1"
  x402-router request /v1/chat/completions -X POST -d @body.json --max-amount 0.25`,
	Args: cobra.ExactArgs(1),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().StringVarP(&requestData, "data", "d", "", "Request body (prefix with @ to read a file)")
	requestCmd.Flags().StringVarP(&requestMethod, "method", "X", "GET", "HTTP method")
	requestCmd.Flags().StringArrayVarP(&requestHeaders, "header", "H", nil, "Custom headers (repeatable)")
	requestCmd.Flags().IntVar(&requestTimeout, "timeout", 60, "Request timeout in seconds")
	requestCmd.Flags().StringVar(&maxAmount, "max-amount", "", "Permit cap in token units, e.g. 0.50 (overrides X402_PERMIT_CAP)")
	requestCmd.Flags().BoolVar(&keyFromStdin, "key-stdin", false, "Read the private key from piped stdin when no other key is set")
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return printErrorJSON(err)
	}
	logger := newLogger(cmd.ErrOrStderr())

	if maxAmount != "" {
		capValue, err := tokens.ParseNetworkCap(maxAmount, cfg.Network)
		if err != nil {
			return printErrorJSON(exitErr(output.ExitError, fmt.Errorf("invalid --max-amount: %w", err)))
		}
		cfg.PermitCap = capValue.String()
	}

	body, err := readRequestData(requestData)
	if err != nil {
		return printErrorJSON(exitErr(output.ExitError, err))
	}
	headers := parseHeaders(requestHeaders)
	if body != nil && headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", "application/json")
	}

	var outcome payment.Outcome
	resolver := newResolver(cfg, logger)
	transport, release, err := newPaymentTransport(ctx, cfg, keyReader(cmd), resolver, logger, func(o payment.Outcome) {
		outcome = o
	})
	if err != nil {
		return printErrorJSON(err)
	}
	defer release()

	httpClient := client.New(
		client.WithTransport(transport),
		client.WithBaseURL(cfg.RouterURL),
		client.WithTimeout(time.Duration(requestTimeout)*time.Second),
		client.WithHeaders(cfg.StaticHeaders()),
	)

	method := strings.ToUpper(requestMethod)
	result := &output.RequestResult{
		URL:    httpClient.URL(args[0]),
		Method: method,
	}

	res, err := httpClient.TimedRequest(ctx, method, args[0], headers, body)
	if err != nil {
		result.ExitCode = requestErrorCode(err)
		result.Error = err.Error()
		return reportRequest(cmd, result, err)
	}
	defer res.Response.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(res.Response.Body, maxResponseBody))
	if err != nil {
		result.ExitCode = output.ExitNetwork
		result.Error = fmt.Sprintf("reading response: %v", err)
		return reportRequest(cmd, result, errors.New(result.Error))
	}

	result.Status = res.Response.StatusCode
	result.StatusText = res.Response.Status
	result.LatencyMs = res.LatencyMs
	result.ResponseBody = string(respBody)
	if wait := client.ParseRetryAfter(res.Response); wait > 0 {
		result.RetryAfterSeconds = int64(wait / time.Second)
	}
	applyOutcome(result, outcome)
	applySettlement(result, res.Response)
	if result.Renegotiated && tokens.RaisesCap(cfg.PermitCap, result.PermitCap) && !GetJSONOutput() {
		output.PrintWarning(fmt.Sprintf("router raised the permit cap from %s to %s", cfg.PermitCap, result.PermitCap))
	}

	if res.Response.StatusCode >= http.StatusBadRequest {
		result.ExitCode = output.ExitError
		if res.Response.StatusCode == http.StatusPaymentRequired || res.Response.StatusCode == http.StatusUnauthorized {
			result.ExitCode = output.ExitPayment
		}
		result.Error = fmt.Sprintf("router returned %s", res.Response.Status)
		if e := x402.ParseErrorBody(respBody); e != nil && e.Message != nil {
			result.Error += ": " + *e.Message
		}
		return reportRequest(cmd, result, errors.New(result.Error))
	}

	return reportRequest(cmd, result, nil)
}

// keyReader returns the reader used as the last key source, or nil without --key-stdin.
func keyReader(cmd *cobra.Command) io.Reader {
	if !keyFromStdin {
		return nil
	}
	in := cmd.InOrStdin()
	if in == os.Stdin {
		// An interactive terminal is not a key source.
		if piped := wallet.PipedStdin(); piped != nil {
			return piped
		}
		return nil
	}
	return in
}

// reportRequest prints the result and converts a failure into an exit error.
func reportRequest(cmd *cobra.Command, result *output.RequestResult, err error) error {
	if GetJSONOutput() {
		if perr := output.PrintJSON(result); perr != nil {
			return perr
		}
	} else if output.IsTTY() || err != nil {
		output.PrintRequestResult(cmd.OutOrStdout(), result, GetVerbose())
	} else {
		// Pipe mode: response body only
		fmt.Fprint(cmd.OutOrStdout(), result.ResponseBody)
	}

	if err != nil {
		return exitErr(result.ExitCode, err)
	}
	return nil
}

// applyOutcome copies the payment transport's bookkeeping into the result.
func applyOutcome(result *output.RequestResult, o payment.Outcome) {
	if o.Bypassed || o.RequestID == "" {
		return
	}

	result.Paid = o.Attempts > 0
	result.RequestID = o.RequestID
	result.Attempts = o.Attempts
	result.PermitsSigned = o.Signed
	result.PermitsReused = o.Reused
	result.Renegotiated = o.Retried
	result.PermitCap = o.Cap
	result.Network = o.Network
	result.PermitCapHuman, _ = tokens.FormatCap(o.Cap, o.Network, o.Asset)
}

// applySettlement records a settlement receipt from PAYMENT-RESPONSE or X-PAYMENT-RESPONSE.
func applySettlement(result *output.RequestResult, resp *http.Response) {
	receipt, _ := x402.ParsePaymentResponse(resp, x402.ProtocolV2)
	if receipt == nil {
		receipt, _ = x402.ParsePaymentResponse(resp, x402.ProtocolV1)
	}
	if receipt == nil {
		return
	}

	result.PaymentResponse = receipt
	if receipt.Network != "" {
		result.Network = receipt.Network
	}
	if receipt.Transaction != "" {
		result.Transaction = receipt.Transaction
		result.TransactionURL = tokens.GetExplorerURL(result.Network, receipt.Transaction)
	}
}

// requestErrorCode maps a request failure to an exit code.
func requestErrorCode(err error) int {
	var ee *ExitError
	switch {
	case errors.As(err, &ee):
		return ee.Code
	case errors.Is(err, router.ErrDiscoveryStatus):
		return output.ExitProtocol
	default:
		return output.ExitNetwork
	}
}

// parseHeaders turns "Key: Value" flags into a header set.
func parseHeaders(raw []string) http.Header {
	headers := http.Header{}
	for _, h := range raw {
		if key, value, found := strings.Cut(h, ":"); found {
			headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
		}
	}
	return headers
}

// readRequestData returns the body given by -d, reading a file for "@path".
func readRequestData(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	if path, ok := strings.CutPrefix(data, "@"); ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		return content, nil
	}
	return []byte(data), nil
}
