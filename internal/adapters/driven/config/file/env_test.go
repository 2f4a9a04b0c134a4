package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	settings := domain.DefaultAppSettings()

	err := applyEnv(&settings, lookupFrom(map[string]string{
		EnvEmbeddingProvider: "openai",
		EnvEmbeddingModel:    "text-embedding-3-large",
		EnvLLMProvider:       "anthropic",
		EnvLLMModel:          "claude-test",
		EnvDataDir:           "/tmp/askdocs",
		EnvChunkSize:         "500",
		EnvChunkOverlap:      "50",
		EnvTopK:              "5",
		EnvIndexPolicy:       "append",
		EnvCallTimeout:       "90s",
		EnvOpenAIKey:         "sk-env",
		EnvAnthropicKey:      "ak-env",
	}))
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-test", settings.LLM.Model)
	assert.Equal(t, "ak-env", settings.LLM.APIKey)
	assert.Equal(t, "/tmp/askdocs", settings.Storage.DataDir)
	assert.Equal(t, 500, settings.Chunker.Size)
	assert.Equal(t, 50, settings.Chunker.Overlap)
	assert.Equal(t, 5, settings.Retrieval.TopK)
	assert.Equal(t, domain.IndexPolicyAppend, settings.Session.IndexPolicy)
	assert.Equal(t, 90*time.Second, settings.Session.CallTimeout)
}

func TestApplyEnv_KeepsConfiguredKey(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-stored"}

	require.NoError(t, applyEnv(&settings, lookupFrom(map[string]string{EnvOpenAIKey: "sk-env"})))

	assert.Equal(t, "sk-stored", settings.LLM.APIKey)
}

func TestApplyEnv_RegionOnlyForBedrock(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama}

	require.NoError(t, applyEnv(&settings, lookupFrom(map[string]string{EnvAWSRegion: "eu-central-1"})))

	assert.Equal(t, "eu-central-1", settings.Embedding.Region)
	assert.Empty(t, settings.LLM.Region)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"chunk size", map[string]string{EnvChunkSize: "big"}},
		{"top k", map[string]string{EnvTopK: "3.5"}},
		{"timeout", map[string]string{EnvCallTimeout: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultAppSettings()
			err := applyEnv(&settings, lookupFrom(tt.env))
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}
}

func TestApplyEnv_EmptyValuesIgnored(t *testing.T) {
	settings := domain.DefaultAppSettings()

	require.NoError(t, applyEnv(&settings, lookupFrom(map[string]string{
		EnvLLMModel:  "",
		EnvChunkSize: "",
	})))

	assert.Equal(t, domain.DefaultAppSettings(), settings)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ASKDOCS_TEST_DOTENV=from-file\n"), 0600))
	t.Setenv("ASKDOCS_TEST_DOTENV", "")
	os.Unsetenv("ASKDOCS_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("ASKDOCS_TEST_DOTENV"))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ASKDOCS_TEST_KEEP=from-file\n"), 0600))
	t.Setenv("ASKDOCS_TEST_KEEP", "from-shell")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-shell", os.Getenv("ASKDOCS_TEST_KEEP"))
}

func TestEphemeral(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"unset", map[string]string{}, false},
		{"true", map[string]string{EnvEphemeral: "true"}, true},
		{"one", map[string]string{EnvEphemeral: "1"}, true},
		{"false", map[string]string{EnvEphemeral: "false"}, false},
		{"garbage", map[string]string{EnvEphemeral: "yes please"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ephemeral(lookupFrom(tt.env)))
		})
	}
}
