package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func scored(content string, seq int, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.TextChunk{ID: "doc#" + content, Content: content, SequenceIndex: seq},
		Score: score,
	}
}

func TestAnswerGenerator_BuildPrompt(t *testing.T) {
	g := NewAnswerGenerator(&mockLLMService{}, newMockPromptStore(), memory.NewConversationMemory(),
		WithFallbackText("No idea."))

	history := []domain.Turn{
		{Question: "Who wrote Hamlet?", Answer: "Shakespeare."},
		{Question: "When?", Answer: "Around 1600."},
	}
	chunks := []domain.ScoredChunk{scored("First passage.", 0, 0.9), scored("  Second passage.\n", 1, 0.8)}

	system, prompt, err := g.BuildPrompt("Where was he born?", chunks, history)
	require.NoError(t, err)

	assert.Equal(t, "Answer only from the context.", system)
	assert.Equal(t,
		"Context:\nFirst passage.\n\nSecond passage.\n\n"+
			"History:\nHuman: Who wrote Hamlet?\nAssistant: Shakespeare.\nHuman: When?\nAssistant: Around 1600.\n\n"+
			"Question: Where was he born?\nFallback: No idea.",
		prompt)
}

func TestAnswerGenerator_BuildPrompt_PlaceholdersInContentStayLiteral(t *testing.T) {
	g := NewAnswerGenerator(&mockLLMService{}, newMockPromptStore(), memory.NewConversationMemory())

	_, prompt, err := g.BuildPrompt("What does {context} mean?", []domain.ScoredChunk{scored("Use {question} here.", 0, 1)}, nil)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Use {question} here.")
	assert.Contains(t, prompt, "Question: What does {context} mean?")
}

func TestAnswerGenerator_Answer_RecordsTurn(t *testing.T) {
	llm := &mockLLMService{respond: func(string) (string, error) { return "  Paris.\n", nil }}
	mem := memory.NewConversationMemory()
	sampling := domain.SamplingSettings{Temperature: 0.2, TopP: 0.8, TopK: 50, MaxTokens: 512}
	g := NewAnswerGenerator(llm, newMockPromptStore(), mem, WithSampling(sampling))

	chunks := []domain.ScoredChunk{scored("The capital of France is Paris.", 0, 0.9)}
	answer, err := g.Answer(context.Background(), "Capital of France?", chunks, nil)
	require.NoError(t, err)

	assert.Equal(t, "Paris.", answer.Text)
	assert.False(t, answer.Fallback)
	assert.Equal(t, chunks, answer.UsedChunks)

	turns, err := mem.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "Capital of France?", turns[0].Question)
	assert.Equal(t, "Paris.", turns[0].Answer)

	require.Len(t, llm.opts, 1)
	opts := llm.opts[0]
	assert.Equal(t, "Answer only from the context.", opts.System)
	assert.InDelta(t, 0.2, opts.Temperature, 1e-9)
	assert.InDelta(t, 0.8, opts.TopP, 1e-9)
	assert.Equal(t, 50, opts.TopK)
	assert.Equal(t, 512, opts.MaxTokens)
}

func TestAnswerGenerator_Answer_Fallback(t *testing.T) {
	mem := memory.NewConversationMemory()
	g := NewAnswerGenerator(&mockLLMService{}, newMockPromptStore(), mem)

	answer, err := g.Answer(context.Background(), "Unrelated?", nil, nil)
	require.NoError(t, err)

	assert.True(t, answer.Fallback)
	assert.Equal(t, domain.DefaultFallbackText, answer.Text)
	assert.Equal(t, domain.DefaultFallbackText, g.FallbackText())

	turns, err := mem.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, domain.DefaultFallbackText, turns[0].Answer)
}

func TestAnswerGenerator_Answer_FailuresLeaveMemoryUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		llm     *mockLLMService
		prompts *mockPromptStore
		timeout time.Duration
		want    []error
	}{
		{
			name:    "model error",
			llm:     &mockLLMService{respond: func(string) (string, error) { return "", errors.New("overloaded") }},
			prompts: newMockPromptStore(),
			want:    []error{domain.ErrGeneration},
		},
		{
			name:    "empty reply",
			llm:     &mockLLMService{respond: func(string) (string, error) { return "  \n", nil }},
			prompts: newMockPromptStore(),
			want:    []error{domain.ErrGeneration},
		},
		{
			name:    "timeout",
			llm:     &mockLLMService{block: true},
			prompts: newMockPromptStore(),
			timeout: 20 * time.Millisecond,
			want:    []error{domain.ErrGeneration, domain.ErrTimeout},
		},
		{
			name:    "prompt unavailable",
			llm:     &mockLLMService{},
			prompts: &mockPromptStore{err: errors.New("permission denied")},
			want:    []error{domain.ErrGeneration},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.NewConversationMemory()
			require.NoError(t, mem.Append(context.Background(), domain.Turn{Question: "q1", Answer: "a1"}))

			g := NewAnswerGenerator(tt.llm, tt.prompts, mem, WithGenerateTimeout(tt.timeout))

			answer, err := g.Answer(context.Background(), "q2", nil, nil)
			assert.Nil(t, answer)
			for _, target := range tt.want {
				assert.ErrorIs(t, err, target)
			}

			turns, err := mem.Read(context.Background())
			require.NoError(t, err)
			assert.Len(t, turns, 1)
		})
	}
}

func TestAnswerGenerator_Answer_Cancelled(t *testing.T) {
	mem := memory.NewConversationMemory()
	g := NewAnswerGenerator(&mockLLMService{block: true}, newMockPromptStore(), mem)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Answer(ctx, "q", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrTimeout)

	turns, err := mem.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAnswerGenerator_Answer_NoLLM(t *testing.T) {
	g := NewAnswerGenerator(nil, newMockPromptStore(), memory.NewConversationMemory())

	_, err := g.Answer(context.Background(), "q", nil, nil)
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestAnswerGenerator_Answer_MemoryFailure(t *testing.T) {
	mem := &flakyMemory{ConversationMemory: memory.NewConversationMemory(), appendErr: errors.New("disk full")}
	g := NewAnswerGenerator(&mockLLMService{}, newMockPromptStore(), mem)

	answer, err := g.Answer(context.Background(), "q", nil, nil)
	assert.Nil(t, answer)
	assert.ErrorContains(t, err, "disk full")
}

func TestRenderHistory_Empty(t *testing.T) {
	assert.Empty(t, RenderHistory(nil))
	assert.Empty(t, RenderContext(nil))
}

func TestAnswerGenerator_Answer_FallbackDetection(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{"exact", domain.DefaultFallbackText, true},
		{"answer prefix", "Based on the provided context: " + domain.DefaultFallbackText, true},
		{"quoted", `"` + domain.DefaultFallbackText + `"`, true},
		{"curly apostrophe and rewrapped", strings.Replace(
			strings.Replace(domain.DefaultFallbackText, "don't", "don’t", 1), "context. ", "context.\n", 1), true},
		{"grounded answer", "Based on the provided context: Paris is the capital of France.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLMService{respond: func(string) (string, error) { return tt.reply, nil }}
			g := NewAnswerGenerator(llm, newMockPromptStore(), memory.NewConversationMemory())

			answer, err := g.Answer(context.Background(), "Who wrote Hamlet?", nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer.Fallback)
		})
	}
}

func TestAnswerGenerator_Condense(t *testing.T) {
	history := []domain.Turn{{Question: "Tell me about Mount Everest.", Answer: "It is the highest mountain."}}

	tests := []struct {
		name    string
		history []domain.Turn
		llm     *mockLLMService
		prompts *mockPromptStore
		want    string
		calls   int
	}{
		{
			name:    "rewritten",
			history: history,
			llm:     &mockLLMService{respond: func(string) (string, error) { return ` "How tall is Mount Everest?"` + "\nExtra line", nil }},
			prompts: newMockPromptStore(),
			want:    "How tall is Mount Everest?",
			calls:   1,
		},
		{
			name:    "no history",
			llm:     &mockLLMService{},
			prompts: newMockPromptStore(),
			want:    "How tall is it?",
		},
		{
			name:    "model error",
			history: history,
			llm:     &mockLLMService{respond: func(string) (string, error) { return "", errors.New("overloaded") }},
			prompts: newMockPromptStore(),
			want:    "How tall is it?",
			calls:   1,
		},
		{
			name:    "timeout",
			history: history,
			llm:     &mockLLMService{block: true},
			prompts: newMockPromptStore(),
			want:    "How tall is it?",
			calls:   1,
		},
		{
			name:    "prompt unavailable",
			history: history,
			llm:     &mockLLMService{},
			prompts: &mockPromptStore{err: errors.New("permission denied")},
			want:    "How tall is it?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewAnswerGenerator(tt.llm, tt.prompts, memory.NewConversationMemory(),
				WithGenerateTimeout(20*time.Millisecond))

			got := g.Condense(context.Background(), "How tall is it?", tt.history)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.calls, tt.llm.calls())
			if tt.calls > 0 {
				assert.Equal(t, "Condense:\nHuman: Tell me about Mount Everest.\nAssistant: It is the highest mountain.\n"+
					"Follow-up: How tall is it?", tt.llm.lastPrompt())
				assert.Equal(t, condenseMaxTokens, tt.llm.opts[0].MaxTokens)
			}
		})
	}
}
