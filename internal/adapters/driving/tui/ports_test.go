package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// MockSessionService implements driving.SessionService for testing.
type MockSessionService struct {
	AskFunc     func(ctx context.Context, question string) (*domain.Answer, error)
	HistoryFunc func(ctx context.Context) ([]domain.Turn, error)
}

func (m *MockSessionService) Process(
	context.Context, []domain.RawDocument, domain.IndexOptions,
) (*domain.IndexReport, error) {
	return &domain.IndexReport{}, nil
}

func (m *MockSessionService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question)
	}
	return &domain.Answer{Text: "ok"}, nil
}

func (m *MockSessionService) History(ctx context.Context) ([]domain.Turn, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx)
	}
	return nil, nil
}

func (m *MockSessionService) Reset(context.Context) error { return nil }

func (m *MockSessionService) ClearIndex(context.Context) error { return nil }

func (m *MockSessionService) State() domain.SessionState { return domain.SessionEmpty }

func (m *MockSessionService) Stats(context.Context) (*domain.SessionStats, error) {
	return &domain.SessionStats{}, nil
}

func (m *MockSessionService) UserMessage(err error) string {
	return domain.UserMessage(err, "")
}

var _ driving.SessionService = (*MockSessionService)(nil)

func TestNewPorts(t *testing.T) {
	session := &MockSessionService{}

	ports := NewPorts(session)

	require.NotNil(t, ports)
	assert.Equal(t, session, ports.Session)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"valid", &Ports{Session: &MockSessionService{}}, nil},
		{"missing session", &Ports{}, ErrMissingSessionService},
		{"nil ports", nil, ErrMissingSessionService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
