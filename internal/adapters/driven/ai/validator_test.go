package ai

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestNewConfigValidator_Timeout(t *testing.T) {
	assert.Equal(t, pingTimeout, NewConfigValidator().timeout)
	assert.Equal(t, pingTimeout, NewConfigValidator(0).timeout)
	assert.Equal(t, time.Second, NewConfigValidator(time.Second).timeout)
}

func TestConfigValidator_Unconfigured(t *testing.T) {
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(nil))
	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}))
	assert.NoError(t, v.ValidateLLM(nil))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderAnthropic}))
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	up := ollamaServer(t, 0, "nomic-embed-text")
	down := ollamaServer(t, http.StatusBadGateway)
	v := NewConfigValidator(time.Second)

	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: up.URL,
	}))

	err := v.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: down.URL,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")

	err = v.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, Model: "all-minilm", BaseURL: up.URL,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull all-minilm")

	err = v.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "key"})
	assert.Error(t, err)
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	up := ollamaServer(t, 0, "llama3.2")
	down := ollamaServer(t, http.StatusNotFound)
	v := NewConfigValidator(time.Second)

	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: up.URL}))
	assert.Error(t, v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: down.URL}))
}
