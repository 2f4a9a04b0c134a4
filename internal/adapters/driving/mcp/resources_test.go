package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestExtractTurnIndex(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected int
	}{
		{name: "valid turn URI", uri: "askdocs://turns/3", expected: 3},
		{name: "zero", uri: "askdocs://turns/0", expected: 0},
		{name: "negative", uri: "askdocs://turns/-1", expected: 0},
		{name: "not a number", uri: "askdocs://turns/last", expected: 0},
		{name: "invalid prefix", uri: "file://turns/1", expected: 0},
		{name: "empty URI", uri: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTurnIndex(tt.uri))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func newTestServer(t *testing.T, session *mockSessionService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Session: session})
	require.NoError(t, err)
	return server
}

func TestServer_handleHistoryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("renders turns as Human/Assistant lines", func(t *testing.T) {
		server := newTestServer(t, &mockSessionService{
			turns: []domain.Turn{
				{Question: "What is X?", Answer: "X is a letter."},
				{Question: "And Y?", Answer: "Also a letter."},
			},
		})

		result, err := server.handleHistoryResource(ctx, readRequest("askdocs://history"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t,
			"Human: What is X?\nAssistant: X is a letter.\nHuman: And Y?\nAssistant: Also a letter.",
			result.Contents[0].Text)
	})

	t.Run("empty conversation", func(t *testing.T) {
		server := newTestServer(t, &mockSessionService{})

		result, err := server.handleHistoryResource(ctx, readRequest("askdocs://history"))

		require.NoError(t, err)
		assert.Empty(t, result.Contents[0].Text)
	})

	t.Run("history error", func(t *testing.T) {
		server := newTestServer(t, &mockSessionService{err: errors.New("db closed")})

		_, err := server.handleHistoryResource(ctx, readRequest("askdocs://history"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading history")
	})
}

func TestServer_handleStatusResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &mockSessionService{
		stats: &domain.SessionStats{State: domain.SessionIndexed, Chunks: 42, Turns: 3},
	})

	result, err := server.handleStatusResource(ctx, readRequest("askdocs://status"))

	require.NoError(t, err)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.JSONEq(t, `{"state":"indexed","chunks":42,"turns":3}`, result.Contents[0].Text)
}

func TestServer_handleTurnResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &mockSessionService{
		turns: []domain.Turn{
			{Question: "q1", Answer: "a1"},
			{Question: "q2", Answer: "a2"},
		},
	})

	t.Run("returns the numbered turn", func(t *testing.T) {
		result, err := server.handleTurnResource(ctx, readRequest("askdocs://turns/2"))

		require.NoError(t, err)
		assert.Equal(t, "Human: q2\nAssistant: a2", result.Contents[0].Text)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := server.handleTurnResource(ctx, readRequest("askdocs://turns/3"))
		assert.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		_, err := server.handleTurnResource(ctx, readRequest("askdocs://turns/abc"))
		assert.Error(t, err)
	})
}
