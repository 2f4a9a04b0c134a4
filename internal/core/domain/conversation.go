package domain

import "time"

// Turn is one question/answer exchange.
// Turns are appended in question-arrival order and never mutated.
type Turn struct {
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Answer is the result of a successful question.
type Answer struct {
	// Text is the model reply.
	Text string

	// UsedChunks are the chunks placed in the grounding prompt.
	UsedChunks []ScoredChunk

	// Fallback is true when the model replied with the configured fallback text.
	Fallback bool
}

// SessionState is the orchestrator's indexing state.
type SessionState int

const (
	// SessionEmpty means no documents are indexed.
	SessionEmpty SessionState = iota

	// SessionIndexed means the vector index holds at least one record.
	SessionIndexed
)

// String returns the string representation.
func (s SessionState) String() string {
	switch s {
	case SessionEmpty:
		return "empty"
	case SessionIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// SessionStats summarises a session for status displays.
type SessionStats struct {
	State  SessionState
	Chunks int
	Turns  int
}
