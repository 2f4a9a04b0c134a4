package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var sessionLog = logger.Named("session")

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// embedBatchSize is the number of chunk texts sent per embedding call.
const embedBatchSize = 32

// Metric outcomes.
const (
	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomeError    = "error"
	outcomeTimeout  = "timeout"
	outcomeEmpty    = "empty"
)

// SessionConfig holds the settings a session reads once at construction.
type SessionConfig struct {
	Session      domain.SessionSettings
	TopK         int
	ErrorMessage string
}

// SessionConfigFrom extracts the session configuration from application settings.
func SessionConfigFrom(s domain.AppSettings) SessionConfig {
	return SessionConfig{
		Session:      s.Session,
		TopK:         s.Retrieval.TopK,
		ErrorMessage: s.Prompt.ErrorMessage,
	}
}

// SessionService owns the single conversation and the active index.
// Every action holds mu for its whole duration, so actions complete in call order.
type SessionService struct {
	mu sync.Mutex

	registry  driven.NormaliserRegistry
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	memory    driven.ConversationMemory
	retriever *Retriever
	generator *AnswerGenerator
	metrics   driven.Metrics
	cfg       SessionConfig

	// state is read without mu so status checks never wait on a long build.
	state atomic.Int32
}

// NewSessionService creates a session. The initial state is Indexed when the
// index already holds records, which restores a persistent index across runs.
// metrics may be nil.
func NewSessionService(
	ctx context.Context,
	registry driven.NormaliserRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	memory driven.ConversationMemory,
	generator *AnswerGenerator,
	metrics driven.Metrics,
	cfg SessionConfig,
) (*SessionService, error) {
	if index == nil || memory == nil || generator == nil {
		return nil, fmt.Errorf("%w: session needs an index, a memory and a generator", domain.ErrInvalidInput)
	}
	if cfg.TopK < 1 {
		return nil, fmt.Errorf("%w: top-k %d must be at least 1", domain.ErrInvalidParameter, cfg.TopK)
	}
	if cfg.Session.CallTimeout <= 0 {
		cfg.Session.CallTimeout = domain.DefaultCallTimeout
	}
	if !cfg.Session.IndexPolicy.IsValid() {
		cfg.Session.IndexPolicy = domain.IndexPolicyReplace
	}

	s := &SessionService{
		registry:  registry,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		memory:    memory,
		retriever: NewRetriever(embedder, index, cfg.Session.CallTimeout),
		generator: generator,
		metrics:   metrics,
		cfg:       cfg,
	}

	callCtx, cancel := withTimeout(ctx, cfg.Session.CallTimeout)
	defer cancel()
	empty, err := index.IsEmpty(callCtx)
	if err != nil {
		return nil, classify(domain.ErrVectorIndex, "check index", err)
	}
	if !empty {
		s.setState(domain.SessionIndexed)
	}

	return s, nil
}

// Process extracts, chunks, embeds and indexes docs.
// When no document yields any text the report is returned together with ErrEmptyInput.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *SessionService) Process(
	ctx context.Context,
	docs []domain.RawDocument,
	opts domain.IndexOptions,
) (*domain.IndexReport, error) {
	policy := opts.Policy
	if policy == "" {
		policy = s.cfg.Session.IndexPolicy
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("%w: index policy %q", domain.ErrInvalidParameter, policy)
	}
	if s.registry == nil || s.chunker == nil {
		return nil, fmt.Errorf("%w: no extractor or chunker configured", domain.ErrInvalidParameter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Index Build")
	start := time.Now()
	report := &domain.IndexReport{Policy: policy}

	// 1. Extract and chunk each document. Failures only skip that document.
	var chunks []domain.TextChunk
	names := make(map[string]int, len(docs))
	for i := range docs {
		raw := docs[i]
		raw.SourceID = distinctName(names, sourceIDOf(&raw, i))
		docChunks, err := s.extract(ctx, &raw)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			failure := domain.DocumentFailure{SourceID: raw.SourceID, Err: err}
			sessionLog.Warn("skip document: %v", failure)
			report.Failures = append(report.Failures, failure)
			continue
		}
		report.Documents++
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		s.observeIndex(outcomeEmpty, 0, start)
		return report, fmt.Errorf("%w: no document produced any text", domain.ErrEmptyInput)
	}

	// 2. Number chunks across the whole build. Append continues after the current
	// maximum, so IDs stay unique across builds.
	base := 0
	if policy == domain.IndexPolicyAppend {
		maxSeq, err := s.maxSequence(ctx)
		if err != nil {
			s.observeIndex(outcomeOf(err), 0, start)
			return nil, err
		}
		base = maxSeq + 1
	}
	for i := range chunks {
		chunks[i].SequenceIndex = base + i
		chunks[i].ID = fmt.Sprintf("%s#%d", chunks[i].SourceID, chunks[i].SequenceIndex)
	}

	// 3. Embed everything before the index is touched.
	records, err := s.embedChunks(ctx, chunks)
	if err != nil {
		s.observeIndex(outcomeOf(err), 0, start)
		sessionLog.Error("index build aborted: %v", err)
		return nil, err
	}

	// 4. One atomic write.
	if err := s.write(ctx, policy, records); err != nil {
		s.observeIndex(outcomeOf(err), 0, start)
		sessionLog.Error("index build aborted: %v", err)
		return nil, err
	}
	report.Chunks = len(records)
	s.setState(domain.SessionIndexed)

	// 5. Start a fresh conversation over a replaced index.
	if policy == domain.IndexPolicyReplace && s.cfg.Session.ClearMemoryOnReplace {
		if err := s.memory.Clear(ctx); err != nil {
			sessionLog.Error("clear conversation after re-index: %v", err)
		} else {
			report.MemoryCleared = true
		}
	}

	s.observeIndex(outcomeOK, report.Chunks, start)
	sessionLog.Info("Indexed %d chunks from %d documents (%s, %d failed)",
		report.Chunks, report.Documents, policy, len(report.Failures))
	return report, nil
}

// Ask answers question from the active index and records the turn.
func (s *SessionService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Question")
	start := time.Now()

	answer, err := s.ask(ctx, question)
	if err != nil {
		s.observeAsk(outcomeOf(err), start)
		if !errors.Is(err, context.Canceled) {
			sessionLog.Error("answer question: %v", err)
		}
		return nil, err
	}

	outcome := outcomeOK
	if answer.Fallback {
		outcome = outcomeFallback
	}
	s.observeAsk(outcome, start)
	return answer, nil
}

// ask retrieves with the follow-up condensed against history, then answers
// the question as asked.
func (s *SessionService) ask(ctx context.Context, question string) (*domain.Answer, error) {
	history, err := s.memory.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	query := question
	if len(history) > 0 && s.State() == domain.SessionIndexed {
		query = s.generator.Condense(ctx, question, history)
	}

	chunks, err := s.retriever.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		sessionLog.Debug("  %.4f %s", c.Score, c.Chunk.ID)
	}

	return s.generator.Answer(ctx, question, chunks, history)
}

// History returns all turns, oldest first.
func (s *SessionService) History(ctx context.Context) ([]domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.memory.Read(ctx)
}

// Reset clears the conversation. The index is kept.
func (s *SessionService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.memory.Clear(ctx); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	sessionLog.Info("Conversation cleared")
	return nil
}

// ClearIndex removes every indexed chunk and returns the session to Empty.
func (s *SessionService) ClearIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	callCtx, cancel := withTimeout(ctx, s.cfg.Session.CallTimeout)
	defer cancel()

	if err := s.index.Clear(callCtx); err != nil {
		return classify(domain.ErrVectorIndex, "clear index", err)
	}
	s.setState(domain.SessionEmpty)
	sessionLog.Info("Index cleared")
	return nil
}

// State returns the current indexing state.
func (s *SessionService) State() domain.SessionState {
	return domain.SessionState(s.state.Load())
}

// Stats reports the state, the number of indexed chunks and the number of turns.
func (s *SessionService) Stats(ctx context.Context) (*domain.SessionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	callCtx, cancel := withTimeout(ctx, s.cfg.Session.CallTimeout)
	defer cancel()

	count, err := s.index.Count(callCtx)
	if err != nil {
		return nil, classify(domain.ErrVectorIndex, "count chunks", err)
	}
	turns, err := s.memory.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	return &domain.SessionStats{
		State:  s.State(),
		Chunks: count,
		Turns:  len(turns),
	}, nil
}

// UserMessage converts err into text safe to show users.
func (s *SessionService) UserMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled."
	}
	return domain.UserMessage(err, s.cfg.ErrorMessage)
}

// extract normalises one document and splits its text.
func (s *SessionService) extract(ctx context.Context, raw *domain.RawDocument) ([]domain.TextChunk, error) {
	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	doc := result.Document
	chunks, err := s.chunker.Split(raw.SourceID, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}

	for j := range chunks {
		if chunks[j].Metadata == nil {
			chunks[j].Metadata = make(map[string]any)
		}
		chunks[j].Metadata["document_id"] = doc.ID
		if doc.Title != "" {
			chunks[j].Metadata["title"] = doc.Title
		}
		if raw.URI != "" {
			chunks[j].Metadata["uri"] = raw.URI
		}
	}

	sessionLog.Debug("%s: %d characters, %d chunks", raw.SourceID, len(doc.Content), len(chunks))
	return chunks, nil
}

func (s *SessionService) maxSequence(ctx context.Context) (int, error) {
	callCtx, cancel := withTimeout(ctx, s.cfg.Session.CallTimeout)
	defer cancel()

	maxSeq, err := s.index.MaxSequence(callCtx)
	if err != nil {
		return 0, classify(domain.ErrVectorIndex, "read sequence", err)
	}
	return maxSeq, nil
}

func (s *SessionService) embedChunks(ctx context.Context, chunks []domain.TextChunk) ([]domain.EmbeddingRecord, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embed chunks: %w", errors.Join(domain.ErrEmbeddingService, domain.ErrEmbeddingUnavailable))
	}
	defer sessionLog.Timer("embed chunks")()

	records := make([]domain.EmbeddingRecord, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := s.embedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		for i, c := range batch {
			records = append(records, domain.EmbeddingRecord{Vector: vectors[i], Chunk: c})
		}
	}

	return records, nil
}

func (s *SessionService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := withTimeout(ctx, s.cfg.Session.CallTimeout)
	defer cancel()

	vectors, err := s.embedder.EmbedBatch(callCtx, texts)
	if err != nil {
		return nil, classify(domain.ErrEmbeddingService, "embed chunks", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed chunks: %w: got %d vectors for %d texts",
			domain.ErrEmbeddingService, len(vectors), len(texts))
	}
	return vectors, nil
}

func (s *SessionService) write(ctx context.Context, policy domain.IndexPolicy, records []domain.EmbeddingRecord) error {
	defer sessionLog.Timer("write index")()

	callCtx, cancel := withTimeout(ctx, s.cfg.Session.CallTimeout)
	defer cancel()

	var err error
	if policy == domain.IndexPolicyReplace {
		err = s.index.Replace(callCtx, records)
	} else {
		err = s.index.Upsert(callCtx, records)
	}
	return classify(domain.ErrVectorIndex, "write index", err)
}

func (s *SessionService) setState(state domain.SessionState) {
	s.state.Store(int32(state))
}

func (s *SessionService) observeAsk(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAsk(outcome, time.Since(start))
	}
}

func (s *SessionService) observeIndex(outcome string, chunks int, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveIndex(outcome, chunks, time.Since(start))
	}
}

// sourceIDOf names a document for reports, preferring its source ID then its URI.
func sourceIDOf(raw *domain.RawDocument, i int) string {
	switch {
	case raw.SourceID != "":
		return raw.SourceID
	case raw.URI != "":
		return raw.URI
	default:
		return fmt.Sprintf("document-%d", i+1)
	}
}

// distinctName returns name, or name with a " (n)" suffix when an earlier
// document in the same build already took it.
func distinctName(taken map[string]int, name string) string {
	candidate := name
	for taken[candidate] > 0 {
		taken[name]++
		candidate = fmt.Sprintf("%s (%d)", name, taken[name])
	}
	taken[candidate]++
	return candidate
}

func outcomeOf(err error) string {
	if errors.Is(err, domain.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return outcomeTimeout
	}
	return outcomeError
}
