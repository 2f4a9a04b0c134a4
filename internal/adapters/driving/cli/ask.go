package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var (
	askJSON    bool
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the indexed documents",
	Long: `Answer a question from the indexed documents.

The answer is grounded in the most relevant passages and the conversation
so far, so follow-up questions can refer to earlier answers. When the
documents do not contain the answer the model says so.`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "list the passages the answer was based on")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		cmd.Println("Please enter a question.")
		return nil
	}

	if sessionService == nil {
		return errors.New("session service not configured")
	}

	answer, err := sessionService.Ask(cmd.Context(), question)
	if err != nil {
		return userError(err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if askSources && len(answer.UsedChunks) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range answer.UsedChunks {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, c.Chunk.SourceID, c.Score)
		}
	}
	return nil
}

type sourceJSON struct {
	SourceID string  `json:"source_id"`
	ChunkID  string  `json:"chunk_id"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

type answerJSON struct {
	Answer   string       `json:"answer"`
	Fallback bool         `json:"fallback"`
	Sources  []sourceJSON `json:"sources"`
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := answerJSON{
		Answer:   answer.Text,
		Fallback: answer.Fallback,
		Sources:  make([]sourceJSON, 0, len(answer.UsedChunks)),
	}
	for _, c := range answer.UsedChunks {
		out.Sources = append(out.Sources, sourceJSON{
			SourceID: c.Chunk.SourceID,
			ChunkID:  c.Chunk.ID,
			Score:    c.Score,
			Text:     c.Chunk.Content,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
