package ai

import (
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings from the settings commands by
// building the adapter and pinging it. Unconfigured providers pass.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that waits up to timeout for each
// ping. A zero timeout uses the factory default.
func NewConfigValidator(timeout ...time.Duration) *ConfigValidator {
	v := &ConfigValidator{timeout: pingTimeout}
	if len(timeout) > 0 && timeout[0] > 0 {
		v.timeout = timeout[0]
	}
	return v
}

// ValidateEmbedding pings the embedding provider described by settings.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc, v.timeout)
}

// ValidateLLM pings the LLM provider described by settings.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc, v.timeout)
}
