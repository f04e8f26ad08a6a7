package commands

import (
	"bufio"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/port402/x402-router/internal/output"
	"github.com/port402/x402-router/internal/x402"
)

var permitCmd = &cobra.Command{
	Use:   "permit <value>",
	Short: "Decode a payment header value",
	Long: `Decode a signed permit as sent in the router's payment header and show who
signed it, the cap it authorizes and when it expires. Pass "-" to read the
value from stdin.

Useful for checking a static X402_PAYMENT_SIGNATURE before sending it.

Examples:
  x402-router permit "$X402_PAYMENT_SIGNATURE"
  x402-router permit - < permit.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runPermit,
}

func init() {
	rootCmd.AddCommand(permitCmd)
}

func runPermit(cmd *cobra.Command, args []string) error {
	value := args[0]
	if value == "-" {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		if !scanner.Scan() {
			return printErrorJSON(exitErr(output.ExitError, errors.New("no permit value on stdin")))
		}
		value = scanner.Text()
	}

	p, err := x402.DecodePermitPayload(strings.TrimSpace(value))
	result := output.NewPermitResult(p, err, time.Now())

	if GetJSONOutput() {
		if perr := output.PrintJSON(result); perr != nil {
			return perr
		}
	} else {
		output.PrintPermit(cmd.OutOrStdout(), result)
	}

	if err != nil {
		return exitErr(output.ExitProtocol, err)
	}
	return nil
}
