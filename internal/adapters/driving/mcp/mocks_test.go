package mcp

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	answer   *domain.Answer
	turns    []domain.Turn
	stats    *domain.SessionStats
	err      error
	asked    []string
	resetErr error
	resets   int
}

func (m *mockSessionService) Process(
	_ context.Context,
	_ []domain.RawDocument,
	_ domain.IndexOptions,
) (*domain.IndexReport, error) {
	return &domain.IndexReport{}, m.err
}

func (m *mockSessionService) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.asked = append(m.asked, question)
	return m.answer, m.err
}

func (m *mockSessionService) History(_ context.Context) ([]domain.Turn, error) {
	return m.turns, m.err
}

func (m *mockSessionService) Reset(_ context.Context) error {
	m.resets++
	return m.resetErr
}

func (m *mockSessionService) ClearIndex(_ context.Context) error {
	return m.err
}

func (m *mockSessionService) State() domain.SessionState {
	if m.stats != nil {
		return m.stats.State
	}
	return domain.SessionEmpty
}

func (m *mockSessionService) Stats(_ context.Context) (*domain.SessionStats, error) {
	return m.stats, m.err
}

func (m *mockSessionService) UserMessage(err error) string {
	return domain.UserMessage(err, "")
}

var _ driving.SessionService = (*mockSessionService)(nil)
