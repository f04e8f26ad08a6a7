package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/port402/x402-router/internal/output"
	"github.com/port402/x402-router/internal/router"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the router's payment configuration",
	Long: `Fetch /v1/config from the router and print the normalized payment
configuration that permits are signed against.

Examples:
  x402-router config
  X402_ROUTER_URL=https://router.example.com x402-router config --json`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return printErrorJSON(err)
	}

	routerCfg, err := newResolver(cfg, newLogger(cmd.ErrOrStderr())).Resolve(cmd.Context())
	if err != nil {
		code := output.ExitNetwork
		if errors.Is(err, router.ErrDiscoveryStatus) {
			code = output.ExitProtocol
		}
		return printErrorJSON(exitErr(code, fmt.Errorf("discovering router config: %w", err)))
	}

	result := output.NewRouterConfigResult(cfg.RouterURL, cfg.ProviderBaseURL(), routerCfg, cfg.PermitCap)
	result.ModelID = cfg.ModelID
	result.ModelName = cfg.ModelName

	if GetJSONOutput() {
		return output.PrintJSON(result)
	}
	output.PrintRouterConfig(cmd.OutOrStdout(), result)
	return nil
}
