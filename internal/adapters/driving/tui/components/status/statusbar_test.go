package status

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func newMonoBar() *Bar {
	return NewBar(styles.NewStyles(styles.MonoPalette()), nil)
}

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar.styles)
	require.NotNil(t, bar.keymap)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.Width())
}

func TestBar_Transitions(t *testing.T) {
	bar := newMonoBar()

	cmd := bar.Busy()
	require.NotNil(t, cmd)
	assert.IsType(t, spinner.TickMsg{}, cmd())
	assert.Equal(t, StateThinking, bar.State())

	bar.Fail("The language model is unavailable.")
	assert.Equal(t, StateError, bar.State())
	assert.Equal(t, "The language model is unavailable.", bar.Message())

	bar.SetStats(domain.SessionStats{State: domain.SessionIndexed, Chunks: 3})
	bar.Clear()
	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Equal(t, 3, bar.Stats().Chunks, "clear keeps stats")
}

func TestBar_UpdateOnlySpinsWhileThinking(t *testing.T) {
	bar := newMonoBar()

	_, cmd := bar.Update(bar.spinner.Tick())
	assert.Nil(t, cmd)

	tick := bar.Busy()()
	_, cmd = bar.Update(tick)
	assert.NotNil(t, cmd)

	_, cmd = bar.Update("unrelated")
	assert.Nil(t, cmd)
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*Bar)
		contains []string
		excludes []string
	}{
		{
			name:     "empty session",
			setup:    func(b *Bar) { b.SetStats(domain.SessionStats{State: domain.SessionEmpty}) },
			contains: []string{"No documents indexed", "tab sample question"},
		},
		{
			name: "indexed session",
			setup: func(b *Bar) {
				b.SetStats(domain.SessionStats{State: domain.SessionIndexed, Chunks: 12, Turns: 3})
			},
			contains: []string{"12 chunks · 3 turns", "enter ask", "f1 help"},
			excludes: []string{"sample question"},
		},
		{
			name: "thinking shows elapsed time",
			setup: func(b *Bar) {
				start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
				b.now = func() time.Time { return start }
				b.Busy()
				b.now = func() time.Time { return start.Add(3500 * time.Millisecond) }
			},
			contains: []string{"Thinking 3s"},
		},
		{
			name:     "error message",
			setup:    func(b *Bar) { b.Fail("Please enter a question.") },
			contains: []string{"Please enter a question."},
		},
		{
			name:     "error without message",
			setup:    func(b *Bar) { b.Fail("") },
			contains: []string{"Error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := newMonoBar()
			bar.SetWidth(100)
			tt.setup(bar)

			view := bar.View()
			for _, want := range tt.contains {
				assert.Contains(t, view, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, view, unwanted)
			}
		})
	}
}

func TestBar_ViewNarrow(t *testing.T) {
	bar := newMonoBar()
	bar.Fail("The embedding service is unavailable. Please try again later.")

	bar.SetWidth(50)
	view := bar.View()
	assert.Equal(t, 50, lipgloss.Width(view))
	assert.NotContains(t, view, "enter ask", "hints are dropped when there is no room")
	assert.Contains(t, view, "…")

	bar.SetWidth(5)
	assert.NotPanics(t, func() { _ = bar.View() })
}
