package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// conversationMemory implements driven.ConversationMemory on the turns table.
type conversationMemory struct {
	store *Store
}

var _ driven.ConversationMemory = (*conversationMemory)(nil)

// Append inserts a turn. The autoincrement ID fixes its position.
func (m *conversationMemory) Append(ctx context.Context, turn domain.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	_, err := m.store.db.ExecContext(ctx,
		"INSERT INTO turns (question, answer, created_at) VALUES (?, ?, ?)",
		turn.Question, turn.Answer, turn.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving turn: %w", err)
	}
	return nil
}

// Read returns all turns, oldest first.
func (m *conversationMemory) Read(ctx context.Context) ([]domain.Turn, error) {
	rows, err := m.store.db.QueryContext(ctx, "SELECT question, answer, created_at FROM turns ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var t domain.Turn
		if err := rows.Scan(&t.Question, &t.Answer, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// Clear removes all turns.
func (m *conversationMemory) Clear(ctx context.Context) error {
	if _, err := m.store.db.ExecContext(ctx, "DELETE FROM turns"); err != nil {
		return fmt.Errorf("clearing turns: %w", err)
	}
	return nil
}
