package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/port402/x402-router/internal/output"
	"github.com/port402/x402-router/internal/x402"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge <value>",
	Short: "Decode a PAYMENT-REQUIRED header value",
	Long: `Decode the base64 JSON carried by a router's PAYMENT-REQUIRED header and
show the payment options it accepts. Pass "-" to read the value from stdin.

Examples:
  x402-router challenge eyJhY2NlcHRzIjpbXX0=
  curl -si https://router.example.com/v1/chat/completions | grep -i payment-required | cut -d' ' -f2 | x402-router challenge -`,
	Args: cobra.ExactArgs(1),
	RunE: runChallenge,
}

func init() {
	rootCmd.AddCommand(challengeCmd)
}

func runChallenge(cmd *cobra.Command, args []string) error {
	value := args[0]
	if value == "-" {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		if !scanner.Scan() {
			return printErrorJSON(exitErr(output.ExitError, errors.New("no challenge value on stdin")))
		}
		value = scanner.Text()
	}

	result := output.NewChallengeResult(x402.DecodeChallenge(strings.TrimSpace(value)))

	if GetJSONOutput() {
		if err := output.PrintJSON(result); err != nil {
			return err
		}
	} else {
		output.PrintChallenge(cmd.OutOrStdout(), result)
	}

	if !result.Valid {
		return exitErr(output.ExitProtocol, fmt.Errorf("invalid PAYMENT-REQUIRED value"))
	}
	return nil
}
