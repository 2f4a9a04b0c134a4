// Package status renders the one-line bar under the chat input.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// State is what the left side of the bar shows.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Bar shows the session summary, a spinner while a question is answered,
// or the last error, with key hints on the right.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	now     func() time.Time

	state   State
	message string
	since   time.Time
	stats   domain.SessionStats
	width   int
}

// NewBar creates a status bar. Nil arguments select the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(s.Muted)),
		now:     time.Now,
		state:   StateReady,
		width:   80,
	}
}

// Busy switches to the thinking state and starts the spinner.
func (b *Bar) Busy() tea.Cmd {
	b.state = StateThinking
	b.message = ""
	b.since = b.now()
	return b.spinner.Tick
}

// Fail shows message in the error state. An empty message shows "Error".
func (b *Bar) Fail(message string) {
	b.state = StateError
	b.message = message
}

// Clear returns to the ready state. Stats are kept.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
}

// Update advances the spinner while thinking.
func (b *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	tick, ok := msg.(spinner.TickMsg)
	if !ok || b.state != StateThinking {
		return b, nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(tick)
	return b, cmd
}

// View renders the bar at its width. The left side is truncated before
// the key hints are dropped.
func (b *Bar) View() string {
	room := b.width - 2
	right := b.hints()
	if hintsWidth := lipgloss.Width(right); room-hintsWidth > 12 {
		room -= hintsWidth + 1
	} else {
		right = ""
	}

	left := ansi.Truncate(b.left(), max(room, 0), "…")
	gap := max(room-lipgloss.Width(left), 0)
	if right != "" {
		gap++
	}
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) left() string {
	switch b.state {
	case StateThinking:
		elapsed := b.now().Sub(b.since).Truncate(time.Second)
		return b.spinner.View() + b.styles.Muted.Render(fmt.Sprintf(" Thinking %s", elapsed))
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render(b.message)
	case StateReady:
	}

	if b.stats.State == domain.SessionEmpty {
		return b.styles.Warning.Render("No documents indexed")
	}
	return b.styles.Normal.Render(fmt.Sprintf("%d chunks · %d turns", b.stats.Chunks, b.stats.Turns))
}

func (b *Bar) hints() string {
	bindings := b.keymap.ShortHelp()
	if b.stats.Turns == 0 {
		bindings = b.keymap.EmptyHelp()
	}

	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return b.styles.Muted.Render(strings.Join(parts, "  "))
}

// State returns the current state.
func (b *Bar) State() State { return b.state }

// Message returns the error message, if any.
func (b *Bar) Message() string { return b.message }

// SetStats records the session summary shown when ready.
func (b *Bar) SetStats(stats domain.SessionStats) { b.stats = stats }

// Stats returns the last recorded session summary.
func (b *Bar) Stats() domain.SessionStats { return b.stats }

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) { b.width = width }

// Width returns the bar width.
func (b *Bar) Width() int { return b.width }
