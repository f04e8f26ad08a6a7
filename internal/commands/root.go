// Package commands implements the CLI commands using Cobra.
package commands

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/port402/x402-router/internal/config"
	"github.com/port402/x402-router/internal/output"
)

// Version information (set at build time via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global flags
var (
	verbose    bool
	jsonOutput bool
	configPath string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "x402-router",
	Short: "Client for x402 payment routers",
	Long: `x402-router sends requests through an x402 payment router, attaching a
signed EIP-2612 permit to every request and renegotiating once when the router
rejects a permit as stale.

Settings come from X402_* environment variables or a YAML file (--config):
  X402_ROUTER_URL      router base URL (default http://localhost:8080)
  X402_PRIVATE_KEY     hex private key (or X402_KEYSTORE for a keystore file)
  X402_PERMIT_CAP      permit cap in atomic units (default 10000000)
  X402_RPC_URL         JSON-RPC endpoint used to read permit nonces

Examples:
  # Show the router's payment configuration
  x402-router config

  # Send a paid chat completion
  x402-router request /v1/chat/completions -X POST -d '{"model":"auto","messages":[]}'

  # Decode a PAYMENT-REQUIRED header
  x402-router challenge eyJhY2NlcHRzIjpbXX0=`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitErr wraps err with code.
func exitErr(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	code := output.ExitError
	var ee *ExitError
	if errors.As(err, &ee) {
		code = ee.Code
	}
	if !jsonOutput {
		output.PrintError(err)
	}
	os.Exit(code)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output and debug logs")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
}

// GetVerbose returns the verbose flag value.
func GetVerbose() bool {
	return verbose
}

// GetJSONOutput returns the json output flag value.
func GetJSONOutput() bool {
	return jsonOutput
}

// loadConfig reads settings from the environment and --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, exitErr(output.ExitError, err)
	}
	return cfg, nil
}

// newLogger returns a text logger on w: debug level with --verbose, warnings otherwise.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printErrorJSON reports err in JSON mode and passes it through.
func printErrorJSON(err error) error {
	if jsonOutput {
		code := output.ExitError
		var ee *ExitError
		if errors.As(err, &ee) {
			code = ee.Code
		}
		output.PrintJSONError(err, code)
	}
	return err
}
