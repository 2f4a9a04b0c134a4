package anthropic

import (
	"errors"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// DefaultMaxTokens is used when GenerateOptions.MaxTokens is unset; the
// Messages API requires a value.
const DefaultMaxTokens = 1024

// Errors derived from a successful reply that carries no usable answer.
var (
	ErrEmptyReply = errors.New("no text content in reply")
	ErrRefused    = errors.New("model declined to answer")
)

// MessagesRequest is the Messages API body. Bedrock accepts the same body
// for Claude models, with AnthropicVersion set and Model left empty.
type MessagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version,omitempty"`
	Model            string    `json:"model,omitempty"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Temperature      *float64  `json:"temperature,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
	TopK             *int      `json:"top_k,omitempty"`
	StopSeqs         []string  `json:"stop_sequences,omitempty"`
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewMessagesRequest builds a single-turn request carrying the sampling options.
// Temperature is always sent so that zero means deterministic, not provider default.
func NewMessagesRequest(prompt string, opts driven.GenerateOptions) MessagesRequest {
	req := MessagesRequest{
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		System:      opts.System,
		Temperature: &opts.Temperature,
		StopSeqs:    opts.StopWords,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	if opts.TopP > 0 {
		req.TopP = &opts.TopP
	}
	if opts.TopK > 0 {
		req.TopK = &opts.TopK
	}
	return req
}

// MessagesResponse is the Messages API reply. Error is set on failures.
type MessagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error object of a failed call.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Text concatenates all text content blocks.
func (r *MessagesResponse) Text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// Answer returns the reply text, or an error when the model refused or
// produced no text. A reply cut short by max_tokens is returned as is.
func (r *MessagesResponse) Answer() (string, error) {
	if r.StopReason == "refusal" {
		return "", ErrRefused
	}
	text := r.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
