package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// routerPaths are the endpoints offered when completing `request <path>`.
var routerPaths = []string{
	"/v1/chat/completions\tpaid chat completion",
	"/v1/completions\tpaid text completion",
	"/v1/embeddings\tpaid embeddings",
	"/v1/models\tmodel list (never paid)",
	"/v1/config\tpayment configuration (never paid)",
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Print a completion script for x402-router. Besides commands and flags,
"request" completes the router's OpenAI-compatible paths.

  bash:        source <(x402-router completion bash)
  zsh:         x402-router completion zsh > "${fpath[1]}/_x402-router"
  fish:        x402-router completion fish > ~/.config/fish/completions/x402-router.fish
  powershell:  x402-router completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func init() {
	requestCmd.ValidArgsFunction = completeRouterPath
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	root := cmd.Root()

	var err error
	switch args[0] {
	case "bash":
		err = root.GenBashCompletionV2(w, true)
	case "zsh":
		err = root.GenZshCompletion(w)
	case "fish":
		err = root.GenFishCompletion(w, true)
	case "powershell":
		err = root.GenPowerShellCompletionWithDesc(w)
	}
	if err != nil {
		return fmt.Errorf("generating %s completion: %w", args[0], err)
	}
	return nil
}

// completeRouterPath offers router endpoints for the first argument of request.
func completeRouterPath(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var matches []string
	for _, p := range routerPaths {
		if strings.HasPrefix(p, toComplete) {
			matches = append(matches, p)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}
