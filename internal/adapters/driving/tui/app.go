package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/views/chat"
)

var _ tea.Model = (*App)(nil)

// App is the root bubbletea model. It owns the chat view and overlays the
// key reference on top of it.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	chat *chat.View
	view messages.ViewType

	width, height int
	sized         bool
}

// NewApp builds the chat application for ports.Session.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	st := styles.DefaultStyles()
	keys := keymap.DefaultKeyMap()
	return &App{
		ports:  ports,
		ctx:    context.Background(),
		styles: st,
		keys:   keys,
		help:   help.New(),
		chat:   chat.NewView(st, keys, ports.Session),
		view:   messages.ViewChat,
	}, nil
}

// WithContext bounds every session call, and the program itself, by ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chat.WithContext(ctx)
	return a
}

// WithSampleQuestions sets the questions offered while the conversation is
// empty. An empty list keeps the built-in ones.
func (a *App) WithSampleQuestions(samples []string) *App {
	if len(samples) > 0 {
		a.chat.WithSampleQuestions(samples)
	}
	return a
}

// Init sets the window title and loads history and stats.
func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("askdocs"), a.chat.Init())
}

// Update routes keys by the active view. Everything else goes to the chat
// view, so answers that arrive while help is open are not lost.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		return a, a.key(msg)
	case messages.ViewChanged:
		a.view = msg.View
		return a, nil
	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

func (a *App) key(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keys.Quit):
		return tea.Quit
	case a.view == messages.ViewHelp:
		if keymap.Matches(k, a.keys.Back) || keymap.Matches(k, a.keys.Help) {
			a.view = messages.ViewChat
		}
		return nil
	case keymap.Matches(k, a.keys.Help):
		a.view = messages.ViewHelp
		return nil
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return cmd
}

// View renders the active view.
func (a *App) View() string {
	switch {
	case !a.sized:
		return "Initialising..."
	case a.view == messages.ViewHelp:
		return a.helpView()
	default:
		return a.chat.View()
	}
}

func (a *App) helpView() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Normal.Render("Ask about the indexed documents and press enter."),
		a.styles.Normal.Render("Follow-up questions can refer to earlier answers."),
		a.styles.Muted.Render("Nothing indexed yet? Run 'askdocs index <files>' first."),
		"",
		a.help.FullHelpView(a.keys.FullHelp()),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render("Help"),
		"",
		body,
		"",
		a.styles.Help.Render("esc back to chat"),
	)
}

// Run blocks until the user quits or the context ends.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// SetDimensions resizes every view. The first call makes the app ready.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.sized = true
	a.help.Width = width
	a.chat.SetDimensions(width, height)
}

// CurrentView is the view shown.
func (a *App) CurrentView() messages.ViewType { return a.view }

// Chat is the conversation view.
func (a *App) Chat() *chat.View { return a.chat }

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool { return a.sized }
