package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/port402/x402-router/internal/output"
	"github.com/port402/x402-router/internal/x402"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the x402-router build, the x402 protocol version it speaks and the payment scheme it signs.`,
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	if GetJSONOutput() {
		return output.PrintJSON(map[string]interface{}{
			"version":   Version,
			"commit":    Commit,
			"buildDate": BuildDate,
			"protocol":  x402.ProtocolV2,
			"scheme":    x402.SchemePermit,
			"go":        runtime.Version(),
			"platform":  runtime.GOOS + "/" + runtime.GOARCH,
		})
	}

	w := cmd.OutOrStdout()
	if commit := shortCommit(Commit); commit != "" {
		fmt.Fprintf(w, "x402-router %s (%s)\n", Version, commit)
	} else {
		fmt.Fprintf(w, "x402-router %s\n", Version)
	}
	if BuildDate != "unknown" {
		fmt.Fprintf(w, "  Built:    %s\n", truncate(BuildDate, 10))
	}
	fmt.Fprintf(w, "  Protocol: x402 v%d, %s (EIP-2612)\n", x402.ProtocolV2, x402.SchemePermit)
	fmt.Fprintf(w, "  Go:       %s %s/%s\n", strings.TrimPrefix(runtime.Version(), "go"), runtime.GOOS, runtime.GOARCH)
	return nil
}

// shortCommit abbreviates a commit hash, or returns "" when none was stamped.
func shortCommit(commit string) string {
	if commit == "" || commit == "none" {
		return ""
	}
	return truncate(commit, 7)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
