package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rescribe", cmd.Use)
	assert.Contains(t, cmd.Long, "reasoning cells")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"rewrite", "trace", "prompt", "validate", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestRewriteCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	rewriteCmd, _, err := cmd.Find([]string{"rewrite"})
	require.NoError(t, err)

	for _, name := range []string{"config", "out", "dry-run", "ledger", "model", "timeout"} {
		flag := rewriteCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag --%s should exist", name)
	}

	dryRunFlag := rewriteCmd.Flags().Lookup("dry-run")
	assert.Equal(t, "false", dryRunFlag.DefValue)
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	for _, name := range []string{"config", "ledger", "run", "path", "status", "reason", "limit"} {
		flag := historyCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag --%s should exist", name)
	}
}

func TestPromptCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	promptCmd, _, err := cmd.Find([]string{"prompt"})
	require.NoError(t, err)

	configFlag := promptCmd.Flags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "trace", "x.ipynb"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
