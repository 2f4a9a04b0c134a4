package driven

import "context"

// LLMService completes one prompt. Conversation history is already folded
// into the prompt text; services never see separate turns.
type LLMService interface {
	// Generate returns the model's reply to prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName identifies the model, for status output and validation.
	ModelName() string

	// Ping makes the cheapest request that proves credentials and model work.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions are the per-call sampling settings. A provider drops any
// field its API has no equivalent for.
type GenerateOptions struct {
	// System is sent as the system message where the API has one, and
	// prepended to the prompt otherwise.
	System string

	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int

	// StopWords end generation when the model emits one of them.
	StopWords []string
}
