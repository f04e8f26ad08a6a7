package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := executeCommand(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "x402-router")
		})
	}
}

func TestCompletionCommand_UnknownShell(t *testing.T) {
	_, err := executeCommand(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCompleteRouterPath(t *testing.T) {
	matches, directive := completeRouterPath(requestCmd, nil, "/v1/c")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []string{
		"/v1/chat/completions\tpaid chat completion",
		"/v1/completions\tpaid text completion",
		"/v1/config\tpayment configuration (never paid)",
	}, matches)

	matches, _ = completeRouterPath(requestCmd, []string{"/v1/models"}, "")
	assert.Empty(t, matches)
}
