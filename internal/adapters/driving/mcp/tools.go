package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/askdocs/internal/logger"
)

var mcpLog = logger.Named("mcp")

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Fallback bool           `json:"fallback"`
	Sources  []SourceOutput `json:"sources"`
}

// SourceOutput is a passage an answer was grounded in.
type SourceOutput struct {
	SourceID string  `json:"source_id"`
	ChunkID  string  `json:"chunk_id"`
	Score    float64 `json:"score"`
	Content  string  `json:"content,omitempty"`
}

// HistoryInput is the input schema for the history tool.
type HistoryInput struct{}

// HistoryOutput is the output schema for the history tool.
type HistoryOutput struct {
	Turns []TurnOutput `json:"turns"`
	Count int          `json:"count"`
}

// TurnOutput is one question and answer.
type TurnOutput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ResetInput is the input schema for the reset tool.
type ResetInput struct{}

// ResetOutput is the output schema for the reset tool.
type ResetOutput struct {
	Cleared bool `json:"cleared"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents, taking the conversation so far into account",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "history",
		Description: "List the questions and answers of the current conversation, oldest first",
	}, s.handleHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset",
		Description: "Clear the conversation history; indexed documents are kept",
	}, s.handleReset)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Session.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, s.userError(err)
	}

	output := AskOutput{
		Answer:   answer.Text,
		Fallback: answer.Fallback,
		Sources:  make([]SourceOutput, len(answer.UsedChunks)),
	}
	for i, c := range answer.UsedChunks {
		output.Sources[i] = SourceOutput{
			SourceID: c.Chunk.SourceID,
			ChunkID:  c.Chunk.ID,
			Score:    c.Score,
			Content:  c.Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleHistory handles the history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	turns, err := s.ports.Session.History(ctx)
	if err != nil {
		return nil, HistoryOutput{}, s.userError(err)
	}

	output := HistoryOutput{
		Turns: make([]TurnOutput, len(turns)),
		Count: len(turns),
	}
	for i, t := range turns {
		output.Turns[i] = TurnOutput{Question: t.Question, Answer: t.Answer}
	}

	return nil, output, nil
}

// handleReset handles the reset tool invocation.
func (s *Server) handleReset(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ResetInput,
) (*mcp.CallToolResult, ResetOutput, error) {
	if err := s.ports.Session.Reset(ctx); err != nil {
		return nil, ResetOutput{}, s.userError(err)
	}
	return nil, ResetOutput{Cleared: true}, nil
}

// userError logs err and returns the message safe to show the caller.
func (s *Server) userError(err error) error {
	mcpLog.Error("%v", err)
	return errors.New(s.ports.Session.UserMessage(err))
}
