package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/httpapi"
)

var (
	serveAddr      string
	serveOrigins   []string
	serveMaxUpload int64
	serveMCP       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve the question-answering session over HTTP.

Endpoints:
  POST   /v1/documents   upload files (multipart field "files", ?policy=replace|append)
  POST   /v1/ask         {"question": "..."}
  GET    /v1/history     conversation so far
  DELETE /v1/history     clear the conversation
  DELETE /v1/index       remove all indexed documents
  GET    /v1/status      index and conversation status
  GET    /healthz        liveness
  GET    /metrics        Prometheus metrics
  *      /mcp            MCP streamable HTTP transport (with --mcp)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", []string{"*"}, "allowed CORS origins")
	serveCmd.Flags().Int64Var(&serveMaxUpload, "max-upload", httpapi.DefaultMaxUploadBytes, "maximum upload size in bytes")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve the MCP transport at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	watchPrompts(ctx)

	opts := []httpapi.Option{
		httpapi.WithAllowedOrigins(serveOrigins...),
		httpapi.WithMaxUploadBytes(serveMaxUpload),
	}
	if serverMetrics != nil {
		opts = append(opts, httpapi.WithMetrics(serverMetrics))
	}
	if serveMCP {
		mcpServer, err := newMCPServer()
		if err != nil {
			return err
		}
		opts = append(opts, httpapi.WithMount("/mcp", mcpServer.Handler()))
	}
	server := httpapi.NewServer(sessionService, opts...)

	cmd.Printf("Listening on http://%s\n", serveAddr)
	return server.ListenAndServe(ctx, serveAddr)
}
