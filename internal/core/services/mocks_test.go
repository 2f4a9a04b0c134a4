package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

const testDimensions = 32

// mockEmbeddingService hashes words into a fixed-size bag-of-words vector,
// so texts sharing words have a positive cosine similarity.
type mockEmbeddingService struct {
	mu         sync.Mutex
	err        error
	batchErr   error
	short      bool
	embeds     int
	batchCalls int
	block      bool
	queries    []string
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embeds++
	m.queries = append(m.queries, text)
	err, block := m.err, m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return bagOfWords(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	err, short := m.batchErr, m.short
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, bagOfWords(t))
	}
	if short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int            { return testDimensions }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embed" }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error               { return nil }

func (m *mockEmbeddingService) embedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embeds
}

func (m *mockEmbeddingService) lastQuery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queries) == 0 {
		return ""
	}
	return m.queries[len(m.queries)-1]
}

func bagOfWords(text string) []float32 {
	v := make([]float32, testDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%testDimensions]++
	}
	return v
}

var stopWords = map[string]bool{
	"the": true, "is": true, "of": true, "what": true, "a": true, "in": true, "and": true,
}

// mockLLMService answers with respond, or echoes the fallback when respond is nil.
type mockLLMService struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	block   bool
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	respond, block := m.respond, m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if respond == nil {
		return domain.DefaultFallbackText, nil
	}
	return respond(prompt)
}

func (m *mockLLMService) ModelName() string          { return "mock-llm" }
func (m *mockLLMService) Ping(context.Context) error { return nil }
func (m *mockLLMService) Close() error               { return nil }

func (m *mockLLMService) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockLLMService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// groundedResponder answers from the context section of the test template.
// It replies with the first context sentence mentioning a question keyword,
// or with the fallback line when none does. Condense requests get the
// follow-up back unchanged.
func groundedResponder(prompt string) (string, error) {
	if strings.HasPrefix(prompt, "Condense:") {
		return between(prompt, "Follow-up: ", "\x00"), nil
	}
	contextPart := between(prompt, "Context:\n", "\n\nHistory:")
	question := between(prompt, "Question: ", "\n")
	fallback := between(prompt, "Fallback: ", "\x00")

	for _, sentence := range strings.Split(contextPart, ".") {
		for _, word := range strings.Fields(strings.ToLower(strings.Trim(question, "?"))) {
			if stopWords[word] || len(word) < 4 {
				continue
			}
			if strings.Contains(strings.ToLower(sentence), word) {
				return strings.TrimSpace(sentence) + ".", nil
			}
		}
	}
	return fallback, nil
}

func between(s, start, end string) string {
	_, after, ok := strings.Cut(s, start)
	if !ok {
		return ""
	}
	before, _, _ := strings.Cut(after, end)
	return before
}

// mockPromptStore serves fixed templates.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptSystem:    "Answer only from the context.",
		driven.PromptGrounding: "Context:\n{context}\n\nHistory:\n{history}\n\nQuestion: {question}\nFallback: {fallback}",
		driven.PromptCondense:  "Condense:\n{history}\nFollow-up: {question}",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockNormaliser treats content as plain text. Content "corrupt" fails.
type mockNormaliser struct {
	types    []string
	priority int
	name     string
}

func (m *mockNormaliser) SupportedMIMETypes() []string { return m.types }
func (m *mockNormaliser) Priority() int                { return m.priority }

func (m *mockNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if string(raw.Content) == "corrupt" {
		return nil, errors.New("malformed document")
	}
	return &driven.NormaliseResult{Document: domain.Document{
		ID:       "doc-" + raw.SourceID,
		SourceID: raw.SourceID,
		Title:    m.name,
		Content:  string(raw.Content),
		Metadata: map[string]any{"mime_type": raw.MIMEType},
	}}, nil
}

// flakyIndex wraps the in-memory index with injectable failures.
type flakyIndex struct {
	*memory.VectorIndex
	replaceErr error
	upsertErr  error
	queryErr   error
	emptyErr   error
	queries    int
}

func newFlakyIndex() *flakyIndex {
	return &flakyIndex{VectorIndex: memory.NewVectorIndex()}
}

func (f *flakyIndex) Replace(ctx context.Context, records []domain.EmbeddingRecord) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	return f.VectorIndex.Replace(ctx, records)
}

func (f *flakyIndex) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorIndex.Upsert(ctx, records)
}

func (f *flakyIndex) Query(ctx context.Context, v []float32, k int) ([]driven.VectorHit, error) {
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.VectorIndex.Query(ctx, v, k)
}

func (f *flakyIndex) IsEmpty(ctx context.Context) (bool, error) {
	if f.emptyErr != nil {
		return false, f.emptyErr
	}
	return f.VectorIndex.IsEmpty(ctx)
}

// flakyMemory wraps the in-memory conversation with injectable failures.
type flakyMemory struct {
	*memory.ConversationMemory
	appendErr error
	clearErr  error
}

func (f *flakyMemory) Append(ctx context.Context, turn domain.Turn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.ConversationMemory.Append(ctx, turn)
}

func (f *flakyMemory) Clear(ctx context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.ConversationMemory.Clear(ctx)
}

// recordingMetrics counts observations by outcome.
type recordingMetrics struct {
	mu     sync.Mutex
	asks   map[string]int
	builds map[string]int
	chunks int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{asks: map[string]int{}, builds: map[string]int{}}
}

func (r *recordingMetrics) ObserveAsk(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asks[outcome]++
}

func (r *recordingMetrics) ObserveIndex(outcome string, chunks int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds[outcome]++
	r.chunks += chunks
}
