package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var generatorLog = logger.Named("generator")

const (
	// condenseTurns is how many of the latest turns a follow-up is resolved against.
	condenseTurns = 6
	// condenseMaxTokens bounds the rewritten question.
	condenseMaxTokens = 100
)

var quoteFolder = strings.NewReplacer("\u2018", "'", "\u2019", "'", "\u201c", "\"", "\u201d", "\"")

// AnswerGenerator assembles the grounding prompt, calls the language model
// and records successful turns in conversation memory.
type AnswerGenerator struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	memory   driven.ConversationMemory
	sampling domain.SamplingSettings
	fallback string
	timeout  time.Duration
}

// GeneratorOption configures an AnswerGenerator.
type GeneratorOption func(*AnswerGenerator)

// WithSampling sets the sampling parameters passed to the model.
func WithSampling(s domain.SamplingSettings) GeneratorOption {
	return func(g *AnswerGenerator) {
		g.sampling = s
	}
}

// WithFallbackText sets the reply the model is told to give when the context has no answer.
func WithFallbackText(text string) GeneratorOption {
	return func(g *AnswerGenerator) {
		if text != "" {
			g.fallback = text
		}
	}
}

// WithGenerateTimeout bounds each model call.
func WithGenerateTimeout(d time.Duration) GeneratorOption {
	return func(g *AnswerGenerator) {
		g.timeout = d
	}
}

// NewAnswerGenerator creates an answer generator.
func NewAnswerGenerator(
	llm driven.LLMService,
	prompts driven.PromptStore,
	memory driven.ConversationMemory,
	opts ...GeneratorOption,
) *AnswerGenerator {
	defaults := domain.DefaultAppSettings()
	g := &AnswerGenerator{
		llm:      llm,
		prompts:  prompts,
		memory:   memory,
		sampling: defaults.Sampling,
		fallback: defaults.Prompt.FallbackText,
		timeout:  defaults.Session.CallTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FallbackText returns the configured fallback reply.
func (g *AnswerGenerator) FallbackText() string {
	return g.fallback
}

// Answer generates a reply grounded in chunks and history.
// The turn is appended to memory only when generation succeeds.
func (g *AnswerGenerator) Answer(
	ctx context.Context,
	question string,
	chunks []domain.ScoredChunk,
	history []domain.Turn,
) (*domain.Answer, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, domain.ErrLLMUnavailable)
	}

	system, prompt, err := g.BuildPrompt(question, chunks, history)
	if err != nil {
		return nil, err
	}

	reply, err := g.generate(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	turn := domain.Turn{Question: question, Answer: reply, CreatedAt: time.Now()}
	if err := g.memory.Append(ctx, turn); err != nil {
		generatorLog.Error("record turn: %v", err)
		return nil, fmt.Errorf("record turn: %w", err)
	}

	return &domain.Answer{
		Text:       reply,
		UsedChunks: chunks,
		Fallback:   g.isFallback(reply),
	}, nil
}

// Condense rewrites a follow-up into a question that stands alone, for use
// as the retrieval query. The question is returned unchanged when there is
// no history or the rewrite fails.
func (g *AnswerGenerator) Condense(ctx context.Context, question string, history []domain.Turn) string {
	if len(history) == 0 || g.llm == nil || g.prompts == nil {
		return question
	}

	tmpl, err := g.prompts.Load(driven.PromptCondense)
	if err != nil {
		generatorLog.Warn("load condense prompt: %v (using question as asked)", err)
		return question
	}
	recent := history[max(0, len(history)-condenseTurns):]
	prompt := strings.NewReplacer(
		"{history}", RenderHistory(recent),
		"{question}", question,
	).Replace(tmpl)

	defer generatorLog.Timer("condense")()

	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.llm.Generate(callCtx, prompt, driven.GenerateOptions{
		MaxTokens:   condenseMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		generatorLog.Warn("condense question failed: %v (using question as asked)", err)
		return question
	}

	standalone, _, _ := strings.Cut(strings.TrimSpace(reply), "\n")
	standalone = strings.TrimSpace(strings.Trim(strings.TrimSpace(standalone), `"'`))
	if standalone == "" {
		return question
	}
	generatorLog.Debug("condensed %q to %q", question, standalone)
	return standalone
}

// isFallback reports whether reply is the fallback line, allowing for the
// answer prefix, quoting and rewrapping the model may add around it.
func (g *AnswerGenerator) isFallback(reply string) bool {
	want := foldReply(g.fallback)
	return want != "" && strings.Contains(foldReply(reply), want)
}

func foldReply(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(quoteFolder.Replace(s))), " ")
}

// BuildPrompt renders the system instruction and the grounding prompt.
func (g *AnswerGenerator) BuildPrompt(
	question string,
	chunks []domain.ScoredChunk,
	history []domain.Turn,
) (system, prompt string, err error) {
	if g.prompts == nil {
		return "", "", fmt.Errorf("%w: no prompt store", domain.ErrGeneration)
	}

	system, err = g.prompts.Load(driven.PromptSystem)
	if err != nil {
		return "", "", fmt.Errorf("%w: load system prompt: %w", domain.ErrGeneration, err)
	}
	tmpl, err := g.prompts.Load(driven.PromptGrounding)
	if err != nil {
		return "", "", fmt.Errorf("%w: load grounding prompt: %w", domain.ErrGeneration, err)
	}

	// A single-pass replacer keeps placeholders inside documents or answers literal.
	r := strings.NewReplacer(
		"{context}", RenderContext(chunks),
		"{history}", RenderHistory(history),
		"{question}", question,
		"{fallback}", g.fallback,
	)
	return system, r.Replace(tmpl), nil
}

func (g *AnswerGenerator) generate(ctx context.Context, system, prompt string) (string, error) {
	defer generatorLog.Timer("generate")()

	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.llm.Generate(callCtx, prompt, driven.GenerateOptions{
		System:      system,
		MaxTokens:   g.sampling.MaxTokens,
		Temperature: g.sampling.Temperature,
		TopP:        g.sampling.TopP,
		TopK:        g.sampling.TopK,
	})
	if err != nil {
		return "", classify(domain.ErrGeneration, "generate", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("generate: %w", errors.Join(domain.ErrGeneration, errors.New("empty reply")))
	}
	return reply, nil
}

// RenderContext joins chunk contents with blank lines, best first.
func RenderContext(chunks []domain.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if text := strings.TrimSpace(c.Chunk.Content); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// RenderHistory writes turns oldest first as Human/Assistant lines.
func RenderHistory(history []domain.Turn) string {
	var b strings.Builder
	for i, t := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Human: ")
		b.WriteString(t.Question)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Answer)
	}
	return b.String()
}
