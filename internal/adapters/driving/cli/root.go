// Package cli provides the askdocs command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// version is set at build time through SetVersion.
var version = "dev"

var verbose bool

// Services injected by main.
var (
	sessionService  driving.SessionService
	settingsService driving.SettingsService
	serverMetrics   httpapi.Metrics
	promptWatcher   driven.PromptWatcher
)

// Services holds everything the commands drive.
// A nil field disables the commands that need it.
type Services struct {
	Session  driving.SessionService
	Settings driving.SettingsService
	Metrics  httpapi.Metrics
	Prompts  driven.PromptWatcher
}

var rootCmd = &cobra.Command{
	Use:   "askdocs",
	Short: "Ask questions about your documents",
	Long: `askdocs indexes PDF, text, Markdown, HTML and DOCX files and answers
questions about them with a language model, grounded in the most relevant
passages and the conversation so far.

Get started:
  askdocs settings show
  askdocs index report.pdf notes.md
  askdocs ask "What are the key findings?"
  askdocs chat`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	sessionService = s.Session
	settingsService = s.Settings
	serverMetrics = s.Metrics
	promptWatcher = s.Prompts
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// userError logs the detail of a session error and returns its user-facing form.
func userError(err error) error {
	logger.Error("%v", err)
	return errors.New(sessionService.UserMessage(err))
}

// watchPrompts reloads prompts in the background until ctx ends.
func watchPrompts(ctx context.Context) {
	if promptWatcher == nil {
		return
	}
	go func() {
		if err := promptWatcher.Watch(ctx); err != nil {
			logger.Warn("prompt watcher stopped: %v", err)
		}
	}()
}
