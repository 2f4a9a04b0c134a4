package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCmd_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"chat"})
	require.NoError(t, err)
	assert.Equal(t, chatCmd, cmd)

	alias, _, err := rootCmd.Find([]string{"tui"})
	require.NoError(t, err)
	assert.Equal(t, chatCmd, alias)
}

func TestChatCmd_HelpOutput(t *testing.T) {
	out, err := executeCommand(t, "", "chat", "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "Launch the interactive chat")
	assert.Contains(t, out, "Controls:")
	assert.Contains(t, out, "--sample")
}
