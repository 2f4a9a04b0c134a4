// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// ErrNoSessionService indicates that no session service was provided.
var ErrNoSessionService = errors.New("session service is required")

// DefaultSampleQuestions are offered while the conversation is empty.
var DefaultSampleQuestions = []string{
	"Summarise the main points of these documents",
	"What are the key terms defined in the documents?",
	"Which sections mention deadlines or dates?",
	"What recommendations do the documents make?",
}

// chrome is the number of rows used by everything except the transcript.
const chrome = 8

// View is the conversation view: transcript, question input and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	sources    *list.SourceList
	statusbar  *status.Bar
	transcript viewport.Model

	session driving.SessionService
	ctx     context.Context

	turns       []domain.Turn
	pending     string
	samples     []string
	sampleIndex int
	showSources bool

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, session driving.SessionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		sources:     list.NewSourceList(s),
		statusbar:   status.NewBar(s, km),
		transcript:  viewport.New(80, 24-chrome),
		session:     session,
		ctx:         context.Background(),
		samples:     DefaultSampleQuestions,
		sampleIndex: -1,
		width:       80,
		height:      24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithSampleQuestions replaces the sample questions.
func (v *View) WithSampleQuestions(samples []string) *View {
	v.samples = samples
	return v
}

// Init loads the conversation and session summary.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadHistory(), v.loadStats())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, v.loadStats()

	case messages.HistoryLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.turns = msg.Turns
		v.refresh()
		return v, nil

	case messages.StatsLoaded:
		if msg.Err == nil && msg.Stats != nil {
			v.statusbar.SetStats(*msg.Stats)
		}
		return v, nil

	case messages.ConversationReset:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.turns = nil
		v.sources.SetSources(nil)
		v.showSources = false
		v.ClearError()
		v.refresh()
		return v, v.loadStats()

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.statusbar, cmd = v.statusbar.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Send):
		return v.submit()

	case keymap.Matches(key, v.keymap.Sample):
		v.nextSample()
		return v, nil

	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		if v.showSources {
			if keymap.Matches(key, v.keymap.ScrollUp) {
				v.sources.MoveUp()
			} else {
				v.sources.MoveDown()
			}
			return v, nil
		}
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(normaliseScroll(msg, v.keymap))
		return v, cmd

	case keymap.Matches(key, v.keymap.Sources):
		v.showSources = !v.showSources && !v.sources.IsEmpty()
		return v, nil

	case keymap.Matches(key, v.keymap.Reset):
		return v, v.resetConversation()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// normaliseScroll maps the alternate scroll keys onto the viewport's own page keys.
func normaliseScroll(msg tea.KeyMsg, km *keymap.KeyMap) tea.KeyMsg {
	if keymap.Matches(msg.String(), km.ScrollUp) {
		return tea.KeyMsg{Type: tea.KeyPgUp}
	}
	return tea.KeyMsg{Type: tea.KeyPgDown}
}

// submit sends the question in the input, if any.
func (v *View) submit() (*View, tea.Cmd) {
	if v.pending != "" {
		return v, nil
	}
	question := v.input.Question()
	if question == "" {
		v.statusbar.Fail(domain.UserMessage(domain.ErrInvalidInput, ""))
		return v, nil
	}

	v.pending = question
	v.input.Remember(question)
	v.input.Reset()
	v.sampleIndex = -1
	v.err = nil
	busy := v.statusbar.Busy()
	v.refresh()
	return v, tea.Batch(busy, v.ask(question))
}

// nextSample cycles the next sample question into the input while the conversation is empty.
func (v *View) nextSample() {
	if len(v.turns) > 0 || len(v.samples) == 0 {
		return
	}
	v.sampleIndex = (v.sampleIndex + 1) % len(v.samples)
	v.input.SetValue(v.samples[v.sampleIndex])
}

// ask runs the question against the session.
func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if v.session == nil {
			return messages.ErrorOccurred{Err: ErrNoSessionService}
		}
		answer, err := v.session.Ask(v.ctx, question)
		if err != nil {
			return messages.AnswerReceived{Question: question, Err: err, Message: v.session.UserMessage(err)}
		}
		return messages.AnswerReceived{Question: question, Answer: answer}
	}
}

func (v *View) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if v.session == nil {
			return messages.ErrorOccurred{Err: ErrNoSessionService}
		}
		turns, err := v.session.History(v.ctx)
		return messages.HistoryLoaded{Turns: turns, Err: err}
	}
}

func (v *View) loadStats() tea.Cmd {
	return func() tea.Msg {
		if v.session == nil {
			return messages.StatsLoaded{Err: ErrNoSessionService}
		}
		stats, err := v.session.Stats(v.ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

func (v *View) resetConversation() tea.Cmd {
	return func() tea.Msg {
		if v.session == nil {
			return messages.ConversationReset{Err: ErrNoSessionService}
		}
		return messages.ConversationReset{Err: v.session.Reset(v.ctx)}
	}
}

// handleAnswer records a finished turn or shows why it failed.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = ""
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Fail(msg.Message)
		v.refresh()
		return
	}

	v.turns = append(v.turns, domain.Turn{Question: msg.Question, Answer: msg.Answer.Text})
	v.sources.SetSources(msg.Answer.UsedChunks)
	v.ClearError()
	v.refresh()
}

func (v *View) setError(err error) {
	v.err = err
	if v.session != nil {
		v.statusbar.Fail(v.session.UserMessage(err))
		return
	}
	v.statusbar.Fail(domain.UserMessage(err, ""))
}

// refresh re-renders the transcript and keeps it scrolled to the latest turn.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

// renderTranscript renders every turn, plus the question awaiting an answer.
func (v *View) renderTranscript() string {
	if len(v.turns) == 0 && v.pending == "" {
		return v.renderSamples()
	}

	wrap := lipgloss.NewStyle().Width(v.width - 4)
	blocks := make([]string, 0, len(v.turns)+1)
	for _, t := range v.turns {
		blocks = append(blocks, v.renderTurn(wrap, t.Question, t.Answer))
	}
	if v.pending != "" {
		blocks = append(blocks, v.renderTurn(wrap, v.pending, v.styles.Muted.Render("...")))
	}
	return strings.Join(blocks, "\n\n")
}

func (v *View) renderTurn(wrap lipgloss.Style, question, answer string) string {
	return v.styles.Question.Render(wrap.Render("You: "+question)) + "\n" +
		v.styles.Answer.Render(wrap.Render(answer))
}

func (v *View) renderSamples() string {
	if len(v.samples) == 0 {
		return v.styles.Muted.Render("Ask a question about your documents.")
	}

	lines := make([]string, 0, len(v.samples)+2)
	lines = append(lines, v.styles.Subtitle.Render("Sample questions"), "")
	for i, q := range v.samples {
		if i == v.sampleIndex {
			lines = append(lines, v.styles.Selected.Render("> "+q))
			continue
		}
		lines = append(lines, v.styles.Muted.Render("  "+q))
	}
	lines = append(lines, "", v.styles.Help.Render("Press tab to use a sample question."))
	return strings.Join(lines, "\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("askdocs"), "")

	if v.showSources {
		sections = append(sections, v.sources.View())
	} else {
		sections = append(sections, v.transcript.View())
	}

	sections = append(sections, "", v.input.View(), v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	body := height - chrome
	if body < 3 {
		body = 3
	}
	v.transcript.Width = width
	v.transcript.Height = body
	v.sources.SetDimensions(width, body)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Turns returns the conversation shown in the transcript.
func (v *View) Turns() []domain.Turn {
	return v.turns
}

// Pending returns the question awaiting an answer, if any.
func (v *View) Pending() string {
	return v.pending
}

// Question returns the current input.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the current input.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// ShowingSources reports whether the source list replaces the transcript.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the current error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.Clear()
}
