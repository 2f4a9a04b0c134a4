package driving

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// SessionService is the conversational question-answering session.
// Actions are handled one at a time, in call order.
type SessionService interface {
	// Process extracts, chunks, embeds and indexes a batch of documents.
	// Per-document extraction failures are reported, not fatal. Any index
	// build failure leaves the previous index and state untouched.
	Process(ctx context.Context, docs []domain.RawDocument, opts domain.IndexOptions) (*domain.IndexReport, error)

	// Ask answers a question from the indexed documents and records the turn.
	Ask(ctx context.Context, question string) (*domain.Answer, error)

	// History returns all recorded turns, oldest first.
	History(ctx context.Context) ([]domain.Turn, error)

	// Reset clears the conversation history.
	Reset(ctx context.Context) error

	// ClearIndex removes all indexed documents and returns the session to Empty.
	ClearIndex(ctx context.Context) error

	// State returns the current indexing state.
	State() domain.SessionState

	// Stats summarises the session.
	Stats(ctx context.Context) (*domain.SessionStats, error)

	// UserMessage converts an error from this service into text safe to show users.
	UserMessage(err error) string
}
