package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the conversation so far",
	RunE:  runHistory,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the conversation history",
	Long:  `Clear the conversation history. Indexed documents are kept.`,
	RunE:  runReset,
}

var clearIndexCmd = &cobra.Command{
	Use:   "clear-index",
	Short: "Remove all indexed documents",
	RunE:  runClearIndex,
}

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and conversation status",
	RunE:  runStatus,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output history as JSON")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(clearIndexCmd)
	rootCmd.AddCommand(statusCmd)
}

type turnJSON struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	turns, err := sessionService.History(cmd.Context())
	if err != nil {
		return userError(err)
	}

	if historyJSON {
		out := make([]turnJSON, 0, len(turns))
		for _, t := range turns {
			out = append(out, turnJSON(t))
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(turns) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}
	for i, t := range turns {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("Human: %s\n", t.Question)
		cmd.Printf("Assistant: %s\n", t.Answer)
	}
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if err := sessionService.Reset(cmd.Context()); err != nil {
		return userError(err)
	}
	cmd.Println("Conversation cleared.")
	return nil
}

func runClearIndex(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if err := sessionService.ClearIndex(cmd.Context()); err != nil {
		return userError(err)
	}
	cmd.Println("Index cleared. Upload documents with 'askdocs index' to ask questions again.")
	return nil
}

type statusOutput struct {
	State  string `json:"state"`
	Chunks int    `json:"chunks"`
	Turns  int    `json:"turns"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	stats, err := sessionService.Stats(cmd.Context())
	if err != nil {
		return userError(err)
	}

	out := statusOutput{State: stats.State.String(), Chunks: stats.Chunks, Turns: stats.Turns}
	if statusJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("State:  %s\n", out.State)
	cmd.Printf("Chunks: %d\n", out.Chunks)
	cmd.Printf("Turns:  %d\n", out.Turns)
	if stats.State == domain.SessionEmpty {
		cmd.Println()
		cmd.Println("No documents indexed. Run 'askdocs index <file>...' to get started.")
	}
	return nil
}
