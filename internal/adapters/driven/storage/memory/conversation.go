package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure ConversationMemory implements the interface.
var _ driven.ConversationMemory = (*ConversationMemory)(nil)

// ConversationMemory is an in-memory, unbounded turn log.
type ConversationMemory struct {
	mu    sync.RWMutex
	turns []domain.Turn
}

// NewConversationMemory creates an empty conversation.
func NewConversationMemory() *ConversationMemory {
	return &ConversationMemory{}
}

// Append records a turn after every earlier turn.
func (m *ConversationMemory) Append(_ context.Context, turn domain.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	return nil
}

// Read returns a copy of all turns, oldest first.
func (m *ConversationMemory) Read(_ context.Context) ([]domain.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Turn, len(m.turns))
	copy(out, m.turns)
	return out, nil
}

// Clear removes all turns.
func (m *ConversationMemory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
	return nil
}
