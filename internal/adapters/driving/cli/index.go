package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/connectors/filesystem"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var (
	indexAppend  bool
	indexJSON    bool
	indexMaxSize int64
)

var indexCmd = &cobra.Command{
	Use:   "index <file or directory>...",
	Short: "Index documents for questions",
	Long: `Extract, chunk and embed the given files and build the document index.

By default the new files replace everything indexed before and the
conversation starts over. Use --append to add them to the existing index.

Supported formats: PDF, plain text, Markdown, HTML and DOCX.
Directories are searched recursively for files with those extensions;
hidden files are skipped. Files that cannot be read are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexAppend, "append", "a", false, "add to the existing index instead of replacing it")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the report as JSON")
	indexCmd.Flags().Int64Var(&indexMaxSize, "max-size", 0, "skip files larger than this many bytes (0 for no limit)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	loader := filesystem.New(filesystem.WithMaxFileSize(indexMaxSize))
	docs, unreadable, err := loader.Load(cmd.Context(), args)
	if err != nil {
		return err
	}

	opts := domain.IndexOptions{}
	if indexAppend {
		opts.Policy = domain.IndexPolicyAppend
	}

	report, err := sessionService.Process(cmd.Context(), docs, opts)
	if report != nil {
		report.Failures = append(unreadable, report.Failures...)
	}
	if err != nil {
		if report != nil {
			printFailures(cmd, report.Failures)
		}
		return userError(err)
	}

	if indexJSON {
		return outputIndexJSON(cmd, report)
	}

	cmd.Printf("Indexed %d chunks from %d documents (%s).\n", report.Chunks, report.Documents, report.Policy)
	if report.MemoryCleared {
		cmd.Println("Conversation history was cleared.")
	}
	printFailures(cmd, report.Failures)
	return nil
}

func printFailures(cmd *cobra.Command, failures []domain.DocumentFailure) {
	if len(failures) == 0 {
		return
	}
	cmd.Println()
	cmd.Printf("Skipped %d documents:\n", len(failures))
	for _, f := range failures {
		cmd.Printf("  %s: %s\n", f.SourceID, failureReason(f.Err))
	}
}

// failureReason keeps file system errors readable and maps everything else to a user message.
func failureReason(err error) string {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	if errors.Is(err, filesystem.ErrFileTooLarge) {
		return err.Error()
	}
	return domain.UserMessage(err, "could not be processed")
}

type indexReportJSON struct {
	Policy        string            `json:"policy"`
	Documents     int               `json:"documents"`
	Chunks        int               `json:"chunks"`
	MemoryCleared bool              `json:"memory_cleared"`
	Failures      map[string]string `json:"failures,omitempty"`
}

func outputIndexJSON(cmd *cobra.Command, report *domain.IndexReport) error {
	out := indexReportJSON{
		Policy:        report.Policy.String(),
		Documents:     report.Documents,
		Chunks:        report.Chunks,
		MemoryCleared: report.MemoryCleared,
	}
	if len(report.Failures) > 0 {
		out.Failures = make(map[string]string, len(report.Failures))
		for _, f := range report.Failures {
			out.Failures[f.SourceID] = failureReason(f.Err)
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
