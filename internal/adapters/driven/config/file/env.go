package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// Environment variables that override stored settings.
const (
	EnvEmbeddingProvider = "ASKDOCS_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "ASKDOCS_EMBEDDING_MODEL"
	EnvLLMProvider       = "ASKDOCS_LLM_PROVIDER"
	EnvLLMModel          = "ASKDOCS_LLM_MODEL"
	EnvDataDir           = "ASKDOCS_DATA_DIR"
	EnvChunkSize         = "ASKDOCS_CHUNK_SIZE"
	EnvChunkOverlap      = "ASKDOCS_CHUNK_OVERLAP"
	EnvTopK              = "ASKDOCS_TOP_K"
	EnvIndexPolicy       = "ASKDOCS_INDEX_POLICY"
	EnvCallTimeout       = "ASKDOCS_CALL_TIMEOUT"
	EnvEphemeral         = "ASKDOCS_EPHEMERAL"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvAnthropicKey      = "ANTHROPIC_API_KEY"
	EnvAWSRegion         = "AWS_REGION"
)

// LoadDotEnv loads variables from the given .env files (default ".env").
// Missing files are skipped and variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Ephemeral reports whether ASKDOCS_EPHEMERAL asks for a run that keeps
// settings and indexed data in memory only.
func Ephemeral() bool {
	return ephemeral(os.LookupEnv)
}

func ephemeral(lookup func(string) (string, bool)) bool {
	v, ok := lookup(EnvEphemeral)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// ApplyEnv overlays environment variables on settings.
// Provider API keys only fill a key that is not already configured.
func ApplyEnv(settings *domain.AppSettings) error {
	return applyEnv(settings, os.LookupEnv)
}

//nolint:gocyclo // One branch per variable.
func applyEnv(s *domain.AppSettings, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEmbeddingProvider); ok && v != "" {
		s.Embedding.Provider = domain.AIProvider(v)
	}
	if v, ok := lookup(EnvEmbeddingModel); ok && v != "" {
		s.Embedding.Model = v
	}
	if v, ok := lookup(EnvLLMProvider); ok && v != "" {
		s.LLM.Provider = domain.AIProvider(v)
	}
	if v, ok := lookup(EnvLLMModel); ok && v != "" {
		s.LLM.Model = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		s.Storage.DataDir = v
	}
	if v, ok := lookup(EnvIndexPolicy); ok && v != "" {
		s.Session.IndexPolicy = domain.IndexPolicy(v)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvChunkSize, &s.Chunker.Size},
		{EnvChunkOverlap, &s.Chunker.Overlap},
		{EnvTopK, &s.Retrieval.TopK},
	}
	for _, iv := range ints {
		v, ok := lookup(iv.name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", domain.ErrInvalidParameter, iv.name, v)
		}
		*iv.dst = n
	}

	if v, ok := lookup(EnvCallTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a duration", domain.ErrInvalidParameter, EnvCallTimeout, v)
		}
		s.Session.CallTimeout = d
	}

	fillKey := func(env string, key *string) {
		if v, ok := lookup(env); ok && *key == "" {
			*key = v
		}
	}
	if s.Embedding.Provider == domain.AIProviderOpenAI {
		fillKey(EnvOpenAIKey, &s.Embedding.APIKey)
	}
	switch s.LLM.Provider {
	case domain.AIProviderOpenAI:
		fillKey(EnvOpenAIKey, &s.LLM.APIKey)
	case domain.AIProviderAnthropic:
		fillKey(EnvAnthropicKey, &s.LLM.APIKey)
	}

	if v, ok := lookup(EnvAWSRegion); ok && v != "" {
		if s.Embedding.Provider == domain.AIProviderBedrock {
			s.Embedding.Region = v
		}
		if s.LLM.Provider == domain.AIProviderBedrock {
			s.LLM.Region = v
		}
	}

	return nil
}
