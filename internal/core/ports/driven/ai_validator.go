package driven

import "github.com/custodia-labs/askdocs/internal/core/domain"

// AIConfigValidator checks provider settings before they are saved, so a bad
// key or unreachable endpoint is reported by the settings commands rather
// than on the first question.
type AIConfigValidator interface {
	// ValidateEmbedding returns nil when settings are unconfigured or the
	// embedding provider answers a ping.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM returns nil when settings are unconfigured or the
	// language model provider answers a ping.
	ValidateLLM(settings *domain.LLMSettings) error
}
