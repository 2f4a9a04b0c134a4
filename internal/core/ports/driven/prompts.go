package driven

import "context"

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// PromptWatcher is implemented by stores that can reload themselves when
// templates change on disk.
type PromptWatcher interface {
	// Watch reloads on changes until ctx is cancelled.
	Watch(ctx context.Context) error
}

// Well-known prompt names.
const (
	// PromptSystem is the instruction-style prompt sent with every question.
	// It has no placeholders.
	PromptSystem = "system"

	// PromptGrounding is the per-question body. It uses the named placeholders
	// {context}, {history}, {question} and {fallback}.
	PromptGrounding = "grounding"

	// PromptCondense rewrites a follow-up into a standalone question before
	// retrieval. It uses the placeholders {history} and {question}.
	PromptCondense = "condense"
)
