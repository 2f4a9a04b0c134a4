package driving

import "github.com/custodia-labs/askdocs/internal/core/domain"

// SettingsService reads and writes the persisted configuration behind
// `askdocs settings` and the TUI settings view.
type SettingsService interface {
	// Get returns the stored settings layered over the defaults.
	Get() (*domain.AppSettings, error)
	// GetDefaults returns the settings of a fresh install.
	GetDefaults() domain.AppSettings
	// Save writes every field of settings in one update.
	Save(settings *domain.AppSettings) error

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error
	SetSampling(sampling domain.SamplingSettings) error
	// SetSession stores the index policy, memory clearing and call timeout.
	SetSession(session domain.SessionSettings) error

	// Validate reports out-of-range values and unconfigured providers
	// without contacting them.
	Validate() error
	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error
	// ValidateLLMConfig pings the configured language model.
	ValidateLLMConfig() error
}
