// Package styles holds the colours and lipgloss styles of the chat TUI.
package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colours the styles are built from. Each colour
// carries a light and a dark variant; lipgloss picks one from the
// terminal background.
type Palette struct {
	Accent    lipgloss.TerminalColor
	User      lipgloss.TerminalColor
	Text      lipgloss.TerminalColor
	Faint     lipgloss.TerminalColor
	Warning   lipgloss.TerminalColor
	Error     lipgloss.TerminalColor
	Border    lipgloss.TerminalColor
	BarBg     lipgloss.TerminalColor
	Highlight lipgloss.TerminalColor
}

// DefaultPalette is used unless NO_COLOR is set.
func DefaultPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"},
		User:      lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#67E8F9"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Faint:     lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Warning:   lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"},
		Error:     lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
		Border:    lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		BarBg:     lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"},
		Highlight: lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#4C1D95"},
	}
}

// MonoPalette has no colours; emphasis comes from bold, italic and faint text.
func MonoPalette() Palette {
	none := lipgloss.NoColor{}
	return Palette{
		Accent: none, User: none, Text: none, Faint: none, Warning: none,
		Error: none, Border: none, BarBg: none, Highlight: none,
	}
}

// Styles are the lipgloss styles used by the views and components.
type Styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Warning    lipgloss.Style
	Help       lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Transcript turns.
	Question lipgloss.Style
	Answer   lipgloss.Style
	Source   lipgloss.Style
}

// NewStyles builds styles from a palette.
func NewStyles(p Palette) *Styles {
	_, mono := p.Text.(lipgloss.NoColor)

	s := &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.User),
		Normal:   lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.Faint),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.Text).Background(p.Highlight),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(p.Error),
		Warning:  lipgloss.NewStyle().Foreground(p.Warning),
		Help:     lipgloss.NewStyle().Foreground(p.Faint),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().Foreground(p.Faint).Background(p.BarBg).Padding(0, 1),
		Question:  lipgloss.NewStyle().Bold(true).Foreground(p.User),
		Answer:    lipgloss.NewStyle().Foreground(p.Text).PaddingLeft(2),
		Source:    lipgloss.NewStyle().Foreground(p.Faint).Italic(true).PaddingLeft(4),
	}

	if mono {
		s.Muted = s.Muted.Faint(true)
		s.Help = s.Help.Faint(true)
		s.Selected = s.Selected.Reverse(true)
		s.Source = s.Source.Faint(true)
	}
	return s
}

// DefaultStyles returns styles for the current environment: the mono
// palette when NO_COLOR is set (https://no-color.org), otherwise the default.
func DefaultStyles() *Styles {
	if os.Getenv("NO_COLOR") != "" {
		return NewStyles(MonoPalette())
	}
	return NewStyles(DefaultPalette())
}
