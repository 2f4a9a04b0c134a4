// Package input is the single-line question field of the chat view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
)

// MaxQuestionLength caps how much a user can type into one question.
const MaxQuestionLength = 4000

const (
	minFieldWidth = 20
	labelWidth    = 10
)

// QuestionInput is a text field that remembers submitted questions. Up and
// down step through them like a shell history; the unsent draft is kept
// and comes back after the newest entry.
type QuestionInput struct {
	field  textinput.Model
	styles *styles.Styles
	width  int

	asked  []string
	recall int
	draft  string
}

// NewQuestionInput creates a focused field. Nil styles select the defaults.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Placeholder = "Ask a question about your documents..."
	field.CharLimit = MaxQuestionLength
	field.Prompt = ""
	field.Focus()

	q := &QuestionInput{field: field, styles: s}
	q.SetWidth(60)
	return q
}

// Init starts the cursor blinking.
func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles recall keys and passes everything else to the field.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.Type {
		case tea.KeyUp:
			q.step(-1)
			return q, nil
		case tea.KeyDown:
			q.step(1)
			return q, nil
		}
	}

	var cmd tea.Cmd
	q.field, cmd = q.field.Update(msg)
	return q, cmd
}

// Remember records a submitted question for recall. Blank questions and
// repeats of the last one are not stored.
func (q *QuestionInput) Remember(question string) {
	question = strings.TrimSpace(question)
	if question != "" && (len(q.asked) == 0 || q.asked[len(q.asked)-1] != question) {
		q.asked = append(q.asked, question)
	}
	q.recall = len(q.asked)
	q.draft = ""
}

func (q *QuestionInput) step(delta int) {
	next := q.recall + delta
	if next < 0 || next > len(q.asked) {
		return
	}
	if q.recall == len(q.asked) {
		q.draft = q.field.Value()
	}
	q.recall = next
	if next == len(q.asked) {
		q.SetValue(q.draft)
		return
	}
	q.SetValue(q.asked[next])
}

// View renders the label and the field.
func (q *QuestionInput) View() string {
	//nolint:misspell // lipgloss.Center is the library's spelling
	return lipgloss.JoinHorizontal(lipgloss.Center,
		q.styles.Title.Render("Ask: "),
		q.styles.InputField.Render(q.field.View()))
}

// Value returns the raw field contents.
func (q *QuestionInput) Value() string { return q.field.Value() }

// Question returns the field contents without surrounding whitespace.
func (q *QuestionInput) Question() string { return strings.TrimSpace(q.field.Value()) }

// SetValue replaces the contents and moves the cursor to the end.
func (q *QuestionInput) SetValue(value string) {
	q.field.SetValue(value)
	q.field.CursorEnd()
}

// Focus gives the field keyboard focus.
func (q *QuestionInput) Focus() tea.Cmd { return q.field.Focus() }

// Blur removes keyboard focus.
func (q *QuestionInput) Blur() { q.field.Blur() }

// Focused reports whether the field has focus.
func (q *QuestionInput) Focused() bool { return q.field.Focused() }

// SetWidth sets the total width; the field gets what the label leaves.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	q.field.Width = max(width-labelWidth, minFieldWidth)
}

// Width returns the total width.
func (q *QuestionInput) Width() int { return q.width }

// Reset clears the field and ends any recall in progress.
func (q *QuestionInput) Reset() {
	q.field.Reset()
	q.recall = len(q.asked)
	q.draft = ""
}
