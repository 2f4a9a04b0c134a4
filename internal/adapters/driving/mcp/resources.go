package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/askdocs/internal/core/services"
)

const (
	// uriScheme is the custom URI scheme for askdocs resources.
	uriScheme = "askdocs://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "The conversation so far as Human/Assistant lines",
		MIMEType:    "text/plain",
	}, s.handleHistoryResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Index state, chunk count and turn count",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "turns/{index}",
		Name:        "turn",
		Description: "A single question and answer, numbered from 1",
		MIMEType:    "text/plain",
	}, s.handleTurnResource)
}

// handleHistoryResource renders the whole conversation.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	turns, err := s.ports.Session.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return textResult(req.Params.URI, "text/plain", services.RenderHistory(turns)), nil
}

// handleStatusResource reports the session summary.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Session.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}

	data, err := json.MarshalIndent(map[string]any{
		"state":  stats.State.String(),
		"chunks": stats.Chunks,
		"turns":  stats.Turns,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return textResult(req.Params.URI, "application/json", string(data)), nil
}

// handleTurnResource returns one turn by its 1-based position.
func (s *Server) handleTurnResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	n := extractTurnIndex(req.Params.URI)
	if n < 1 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	turns, err := s.ports.Session.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if n > len(turns) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return textResult(req.Params.URI, "text/plain", services.RenderHistory(turns[n-1:n])), nil
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}

// extractTurnIndex extracts n from askdocs://turns/{n}. It returns 0 when the URI does not match.
func extractTurnIndex(uri string) int {
	const prefix = uriScheme + "turns/"

	if !strings.HasPrefix(uri, prefix) {
		return 0
	}

	n, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
	if err != nil || n < 1 {
		return 0
	}
	return n
}
