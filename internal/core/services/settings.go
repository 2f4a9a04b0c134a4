package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedRegion       = "embedding.region"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMRegion         = "llm.region"
	keyTemperature       = "sampling.temperature"
	keyTopP              = "sampling.top_p"
	keyTopK              = "sampling.top_k"
	keyMaxTokens         = "sampling.max_tokens"
	keyChunkSize         = "chunker.size"
	keyChunkOverlap      = "chunker.overlap"
	keyRetrievalTopK     = "retrieval.top_k"
	keyIndexPolicy       = "session.index_policy"
	keyClearOnReplace    = "session.clear_memory_on_replace"
	keyCallTimeout       = "session.call_timeout"
	keyVectorBackend     = "storage.vector_backend"
	keyMemoryBackend     = "storage.memory_backend"
	keyDataDir           = "storage.data_dir"
	keyFallbackText      = "prompt.fallback_text"
	keyErrorMessage      = "prompt.error_message"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get reads the stored settings. A key that is missing, unparsable or not
// one of its allowed values reads as its default.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()
	c := s.configStore

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: enum(c, keyEmbedProvider, d.Embedding.Provider, domain.AIProvider.IsValid),
			Model:    text(c, keyEmbedModel, d.Embedding.Model),
			BaseURL:  c.GetString(keyEmbedBaseURL),
			APIKey:   c.GetString(keyEmbedAPIKey),
			Region:   text(c, keyEmbedRegion, d.Embedding.Region),
		},
		LLM: domain.LLMSettings{
			Provider: enum(c, keyLLMProvider, d.LLM.Provider, domain.AIProvider.IsValid),
			Model:    text(c, keyLLMModel, d.LLM.Model),
			BaseURL:  c.GetString(keyLLMBaseURL),
			APIKey:   c.GetString(keyLLMAPIKey),
			Region:   text(c, keyLLMRegion, d.LLM.Region),
		},
		Sampling: domain.SamplingSettings{
			Temperature: stored(c, keyTemperature, d.Sampling.Temperature, c.GetFloat),
			TopP:        stored(c, keyTopP, d.Sampling.TopP, c.GetFloat),
			TopK:        stored(c, keyTopK, d.Sampling.TopK, c.GetInt),
			MaxTokens:   stored(c, keyMaxTokens, d.Sampling.MaxTokens, c.GetInt),
		},
		Chunker: domain.ChunkerSettings{
			Size:    stored(c, keyChunkSize, d.Chunker.Size, c.GetInt),
			Overlap: stored(c, keyChunkOverlap, d.Chunker.Overlap, c.GetInt),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: stored(c, keyRetrievalTopK, d.Retrieval.TopK, c.GetInt),
		},
		Session: domain.SessionSettings{
			IndexPolicy:          enum(c, keyIndexPolicy, d.Session.IndexPolicy, domain.IndexPolicy.IsValid),
			ClearMemoryOnReplace: stored(c, keyClearOnReplace, d.Session.ClearMemoryOnReplace, c.GetBool),
			CallTimeout:          duration(c, keyCallTimeout, d.Session.CallTimeout),
		},
		Storage: domain.StorageSettings{
			VectorBackend: enum(c, keyVectorBackend, d.Storage.VectorBackend, domain.StorageBackend.IsValid),
			MemoryBackend: enum(c, keyMemoryBackend, d.Storage.MemoryBackend, domain.StorageBackend.IsValid),
			DataDir:       c.GetString(keyDataDir),
		},
		Prompt: domain.PromptSettings{
			FallbackText: text(c, keyFallbackText, d.Prompt.FallbackText),
			ErrorMessage: text(c, keyErrorMessage, d.Prompt.ErrorMessage),
		},
	}, nil
}

// Save persists application settings.
// Empty API keys are not written so a stored key is never erased by accident.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := map[string]any{
		keyEmbedProvider:  settings.Embedding.Provider.String(),
		keyEmbedModel:     settings.Embedding.Model,
		keyEmbedBaseURL:   settings.Embedding.BaseURL,
		keyEmbedRegion:    settings.Embedding.Region,
		keyLLMProvider:    settings.LLM.Provider.String(),
		keyLLMModel:       settings.LLM.Model,
		keyLLMBaseURL:     settings.LLM.BaseURL,
		keyLLMRegion:      settings.LLM.Region,
		keyTemperature:    settings.Sampling.Temperature,
		keyTopP:           settings.Sampling.TopP,
		keyTopK:           settings.Sampling.TopK,
		keyMaxTokens:      settings.Sampling.MaxTokens,
		keyChunkSize:      settings.Chunker.Size,
		keyChunkOverlap:   settings.Chunker.Overlap,
		keyRetrievalTopK:  settings.Retrieval.TopK,
		keyIndexPolicy:    settings.Session.IndexPolicy.String(),
		keyClearOnReplace: settings.Session.ClearMemoryOnReplace,
		keyCallTimeout:    settings.Session.CallTimeout.String(),
		keyVectorBackend:  settings.Storage.VectorBackend.String(),
		keyMemoryBackend:  settings.Storage.MemoryBackend.String(),
		keyDataDir:        settings.Storage.DataDir,
		keyFallbackText:   settings.Prompt.FallbackText,
		keyErrorMessage:   settings.Prompt.ErrorMessage,
	}
	if settings.Embedding.APIKey != "" {
		values[keyEmbedAPIKey] = settings.Embedding.APIKey
	}
	if settings.LLM.APIKey != "" {
		values[keyLLMAPIKey] = settings.LLM.APIKey
	}

	if err := s.configStore.SetAll(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey
	if provider.RequiresRegion() && settings.Embedding.Region == "" {
		settings.Embedding.Region = domain.DefaultBedrockRegion
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey
	if provider.RequiresRegion() && settings.LLM.Region == "" {
		settings.LLM.Region = domain.DefaultBedrockRegion
	}

	return s.Save(settings)
}

// SetSampling updates the generation sampling parameters.
func (s *SettingsService) SetSampling(sampling domain.SamplingSettings) error {
	if err := sampling.Validate(); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Sampling = sampling
	return s.Save(settings)
}

// SetSession updates index policy, memory clearing and the call timeout.
func (s *SettingsService) SetSession(session domain.SessionSettings) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Session = session
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.Save(settings)
}

// Validate checks that settings are in range and both providers are configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom URL for local providers and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaBaseURL
	}
	return current
}

func text(c driven.ConfigStore, key, def string) string {
	if v := c.GetString(key); v != "" {
		return v
	}
	return def
}

func stored[T any](c driven.ConfigStore, key string, def T, get func(string) T) T {
	if _, ok := c.Get(key); !ok {
		return def
	}
	return get(key)
}

func enum[T ~string](c driven.ConfigStore, key string, def T, valid func(T) bool) T {
	if v := T(c.GetString(key)); valid(v) {
		return v
	}
	return def
}

func duration(c driven.ConfigStore, key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return def
	}
	return d
}
