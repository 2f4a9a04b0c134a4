package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// ConversationMemory is an ordered, append-only log of turns.
// There is no size cap.
type ConversationMemory interface {
	// Append records a turn after every earlier turn.
	Append(ctx context.Context, turn domain.Turn) error

	// Read returns all turns, oldest first.
	Read(ctx context.Context) ([]domain.Turn, error)

	// Clear removes all turns.
	Clear(ctx context.Context) error
}
