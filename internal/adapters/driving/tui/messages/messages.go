// Package messages holds the tea.Msg types exchanged between the app, the
// chat view and the commands that call the session.
package messages

import (
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// AnswerReceived is the result of asking Question. On failure Answer is
// nil and Message is the text to show instead of Err.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
	Message  string
}

// HistoryLoaded carries the stored turns, oldest first.
type HistoryLoaded struct {
	Turns []domain.Turn
	Err   error
}

// StatsLoaded refreshes the status bar.
type StatsLoaded struct {
	Stats *domain.SessionStats
	Err   error
}

// ConversationReset follows a reset request.
type ConversationReset struct {
	Err error
}

// ErrorOccurred reports a failure outside a question.
type ErrorOccurred struct {
	Err error
}

// ViewChanged asks the app to switch views.
type ViewChanged struct {
	View ViewType
}

// Quit ends the program.
type Quit struct{}

// ViewType names a top-level view.
type ViewType int

const (
	ViewChat ViewType = iota
	ViewHelp
)

var viewNames = [...]string{ViewChat: "chat", ViewHelp: "help"}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}
