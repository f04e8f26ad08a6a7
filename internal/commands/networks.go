package commands

import (
	"github.com/spf13/cobra"

	"github.com/port402/x402-router/internal/output"
	"github.com/port402/x402-router/internal/tokens"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List supported networks",
	Long: `List the EVM networks permits can be signed for, with their CAIP-2
identifiers, default tokens, and block explorers.

Examples:
  x402-router networks
  x402-router networks --json`,
	Args: cobra.NoArgs,
	RunE: runNetworks,
}

func init() {
	rootCmd.AddCommand(networksCmd)
}

func runNetworks(cmd *cobra.Command, args []string) error {
	entries := tokens.ListNetworks()

	if GetJSONOutput() {
		return output.PrintJSON(entries)
	}

	output.PrintNetworks(cmd.OutOrStdout(), entries)
	return nil
}
