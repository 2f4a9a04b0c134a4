package cli

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer questions for an MCP client",
	Long: `Expose the session to an MCP client such as Claude Desktop.

Tools:     ask, history, reset
Resources: askdocs://history, askdocs://status, askdocs://turns/{n}

Index documents first with 'askdocs index'. The server answers from
whatever the session holds when each question arrives.

Without --port the server speaks JSON-RPC on stdin/stdout, which is what
desktop clients launch:

  {
    "mcpServers": {
      "askdocs": {"command": "/path/to/askdocs", "args": ["mcp", "serve"]}
    }
  }

With --port it serves the streamable HTTP transport instead, for the MCP
Inspector or remote clients. 'askdocs serve --mcp' mounts the same
endpoint at /mcp next to the HTTP API.`,
	Example: `  askdocs mcp serve
  askdocs mcp serve --port 8765
  askdocs mcp serve --port 8765 --host 0.0.0.0`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "interface to bind with --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() (*mcp.Server, error) {
	if sessionService == nil {
		return nil, errors.New("session service not configured")
	}
	return mcp.NewServer(&mcp.Ports{Session: sessionService}, mcp.WithVersion(version))
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	server, err := newMCPServer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	watchPrompts(ctx)

	if mcpPort == 0 {
		return server.Run(ctx)
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	// stdout is free in HTTP mode.
	cmd.Printf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(ctx, addr)
}
