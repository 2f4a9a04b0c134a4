package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui"
)

var chatSamples []string

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Chat with your documents in the terminal",
	Long: `Launch the interactive chat for askdocs.

Questions are answered from the documents indexed with 'askdocs index',
using the conversation so far as context.

Controls:
  Enter    - Ask the question
  Tab      - Use a sample question (before the first question)
  PgUp/Dn  - Scroll the conversation
  Ctrl+S   - Show the sources behind the last answer
  Ctrl+R   - Start a new conversation
  F1       - Toggle help
  Ctrl+C   - Quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringArrayVar(&chatSamples, "sample", nil, "sample question to offer (repeatable)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if sessionService == nil {
		return errors.New("session service not configured")
	}

	ctx := cmd.Context()
	watchPrompts(ctx)

	app, err := tui.NewApp(tui.NewPorts(sessionService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(ctx).WithSampleQuestions(chatSamples).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
