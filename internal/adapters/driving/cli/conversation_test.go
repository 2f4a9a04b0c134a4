package cli

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestHistoryCmd(t *testing.T) {
	setServices(t, &fakeSession{turns: []domain.Turn{
		{Question: "What is covered?", Answer: "Parts and labour."},
		{Question: "For how long?", Answer: "Two years."},
	}}, nil)

	out, err := executeCommand(t, "", "history")

	require.NoError(t, err)
	assert.Contains(t, out, "Human: What is covered?\nAssistant: Parts and labour.\n\nHuman: For how long?")
}

func TestHistoryCmd_Empty(t *testing.T) {
	setServices(t, &fakeSession{}, nil)

	out, err := executeCommand(t, "", "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No questions asked yet.")
}

func TestHistoryCmd_JSON(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	setServices(t, &fakeSession{turns: []domain.Turn{{Question: "q", Answer: "a", CreatedAt: at}}}, nil)

	out, err := executeCommand(t, "", "history", "--json")

	require.NoError(t, err)
	var turns []turnJSON
	require.NoError(t, json.Unmarshal([]byte(out), &turns))
	require.Len(t, turns, 1)
	assert.Equal(t, "q", turns[0].Question)
	assert.True(t, at.Equal(turns[0].CreatedAt))
}

func TestResetCmd(t *testing.T) {
	session := &fakeSession{}
	setServices(t, session, nil)

	out, err := executeCommand(t, "", "reset")

	require.NoError(t, err)
	assert.Contains(t, out, "Conversation cleared.")
	assert.Equal(t, 1, session.resets)
}

func TestClearIndexCmd(t *testing.T) {
	session := &fakeSession{}
	setServices(t, session, nil)

	out, err := executeCommand(t, "", "clear-index")

	require.NoError(t, err)
	assert.Contains(t, out, "Index cleared.")
	assert.Equal(t, 1, session.clears)
}

func TestClearIndexCmd_Error(t *testing.T) {
	setServices(t, &fakeSession{err: errors.New("disk gone")}, nil)

	_, err := executeCommand(t, "", "clear-index")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "disk gone")
}

func TestStatusCmd(t *testing.T) {
	tests := []struct {
		name     string
		stats    domain.SessionStats
		contains []string
		hint     bool
	}{
		{
			name:     "empty",
			stats:    domain.SessionStats{State: domain.SessionEmpty},
			contains: []string{"State:  empty", "Chunks: 0"},
			hint:     true,
		},
		{
			name:     "indexed",
			stats:    domain.SessionStats{State: domain.SessionIndexed, Chunks: 42, Turns: 3},
			contains: []string{"State:  indexed", "Chunks: 42", "Turns:  3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setServices(t, &fakeSession{stats: tt.stats}, nil)

			out, err := executeCommand(t, "", "status")

			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			if tt.hint {
				assert.Contains(t, out, "No documents indexed.")
			} else {
				assert.NotContains(t, out, "No documents indexed.")
			}
		})
	}
}

func TestStatusCmd_JSON(t *testing.T) {
	setServices(t, &fakeSession{stats: domain.SessionStats{State: domain.SessionIndexed, Chunks: 5, Turns: 1}}, nil)

	out, err := executeCommand(t, "", "status", "--json")

	require.NoError(t, err)
	var got statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, statusOutput{State: "indexed", Chunks: 5, Turns: 1}, got)
}
