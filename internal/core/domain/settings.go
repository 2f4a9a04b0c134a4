package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderBedrock is AWS Bedrock, authenticated through the AWS credential chain.
	AIProviderBedrock AIProvider = "bedrock"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderBedrock:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// RequiresRegion returns true if this provider is addressed by cloud region.
func (p AIProvider) RequiresRegion() bool {
	return p == AIProviderBedrock
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderBedrock:
		return "AWS Bedrock (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Region is the cloud region (for Bedrock).
	Region string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return providerConfigured(e.Provider, e.APIKey, e.Region)
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Region is the cloud region (for Bedrock).
	Region string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return providerConfigured(l.Provider, l.APIKey, l.Region)
}

func providerConfigured(p AIProvider, apiKey, region string) bool {
	if !p.IsValid() {
		return false
	}
	if p.RequiresAPIKey() && apiKey == "" {
		return false
	}
	if p.RequiresRegion() && region == "" {
		return false
	}
	return true
}

// SamplingSettings are passed through to the language model unchanged.
type SamplingSettings struct {
	// Temperature is in [0, 1].
	Temperature float64

	// TopP is the nucleus sampling mass in (0, 1].
	TopP float64

	// TopK limits sampling to the K most likely tokens. Zero disables it.
	TopK int

	// MaxTokens caps the reply length.
	MaxTokens int
}

// Validate checks the sampling bounds.
func (s SamplingSettings) Validate() error {
	if s.Temperature < 0 || s.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0, 1]", ErrInvalidParameter, s.Temperature)
	}
	if s.TopP <= 0 || s.TopP > 1 {
		return fmt.Errorf("%w: top_p %.2f outside (0, 1]", ErrInvalidParameter, s.TopP)
	}
	if s.TopK < 0 {
		return fmt.Errorf("%w: top_k %d is negative", ErrInvalidParameter, s.TopK)
	}
	if s.MaxTokens < 1 {
		return fmt.Errorf("%w: max_tokens %d must be positive", ErrInvalidParameter, s.MaxTokens)
	}
	return nil
}

// ChunkerSettings controls how extracted text is split.
type ChunkerSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is how many characters consecutive chunks share. Must be below Size.
	Overlap int
}

// Validate checks Size and Overlap.
func (c ChunkerSettings) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidParameter, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", ErrInvalidParameter, c.Overlap, c.Size)
	}
	return nil
}

// RetrievalSettings controls the retriever.
type RetrievalSettings struct {
	// TopK is how many chunks are retrieved per question.
	TopK int
}

// Call timeout bounds.
const (
	DefaultCallTimeout = 60 * time.Second
	MinCallTimeout     = time.Second
	MaxCallTimeout     = 10 * time.Minute
)

// SessionSettings controls the session orchestrator.
type SessionSettings struct {
	// IndexPolicy decides whether uploads replace or extend the index.
	IndexPolicy IndexPolicy

	// ClearMemoryOnReplace resets the conversation when the index is replaced.
	ClearMemoryOnReplace bool

	// CallTimeout bounds each embedding, index and generation call.
	CallTimeout time.Duration
}

// StorageBackend selects where the index and conversation live.
type StorageBackend string

// Available storage backends.
const (
	// StorageMemory keeps state in process memory.
	StorageMemory StorageBackend = "memory"

	// StorageSQLite persists state in the data directory.
	StorageSQLite StorageBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageMemory || b == StorageSQLite
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// StorageSettings selects backends for the vector index and conversation memory.
type StorageSettings struct {
	VectorBackend StorageBackend
	MemoryBackend StorageBackend

	// DataDir overrides ~/.askdocs/data when set.
	DataDir string
}

// PromptSettings holds user-facing texts.
type PromptSettings struct {
	// FallbackText is the reply used when the context does not answer a question.
	FallbackText string

	// ErrorMessage is shown when answering fails.
	ErrorMessage string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Sampling  SamplingSettings
	Chunker   ChunkerSettings
	Retrieval RetrievalSettings
	Session   SessionSettings
	Storage   StorageSettings
	Prompt    PromptSettings
}

// Validate checks every bounded setting.
// Provider configuration is checked separately with IsConfigured.
func (s AppSettings) Validate() error {
	if err := s.Sampling.Validate(); err != nil {
		return err
	}
	if err := s.Chunker.Validate(); err != nil {
		return err
	}
	if s.Retrieval.TopK < 1 {
		return fmt.Errorf("%w: top-k %d must be at least 1", ErrInvalidParameter, s.Retrieval.TopK)
	}
	if !s.Session.IndexPolicy.IsValid() {
		return fmt.Errorf("%w: index policy %q", ErrInvalidParameter, s.Session.IndexPolicy)
	}
	if s.Session.CallTimeout < MinCallTimeout || s.Session.CallTimeout > MaxCallTimeout {
		return fmt.Errorf("%w: call timeout %s outside [%s, %s]",
			ErrInvalidParameter, s.Session.CallTimeout, MinCallTimeout, MaxCallTimeout)
	}
	if !s.Storage.VectorBackend.IsValid() {
		return fmt.Errorf("%w: vector backend %q", ErrInvalidParameter, s.Storage.VectorBackend)
	}
	if !s.Storage.MemoryBackend.IsValid() {
		return fmt.Errorf("%w: memory backend %q", ErrInvalidParameter, s.Storage.MemoryBackend)
	}
	return nil
}

// Default region for Bedrock.
const DefaultBedrockRegion = "us-west-2"

// DefaultAppSettings returns settings with sensible defaults.
// Both providers default to Bedrock, which authenticates through the
// AWS credential chain and so needs no key in the settings file.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderBedrock,
			Model:    DefaultEmbeddingModels()[AIProviderBedrock],
			Region:   DefaultBedrockRegion,
		},
		LLM: LLMSettings{
			Provider: AIProviderBedrock,
			Model:    DefaultLLMModels()[AIProviderBedrock],
			Region:   DefaultBedrockRegion,
		},
		Sampling: SamplingSettings{
			Temperature: 0.5,
			TopP:        0.9,
			TopK:        250,
			MaxTokens:   8192,
		},
		Chunker: ChunkerSettings{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalSettings{
			TopK: 3,
		},
		Session: SessionSettings{
			IndexPolicy:          IndexPolicyReplace,
			ClearMemoryOnReplace: true,
			CallTimeout:          DefaultCallTimeout,
		},
		Storage: StorageSettings{
			VectorBackend: StorageSQLite,
			MemoryBackend: StorageSQLite,
		},
		Prompt: PromptSettings{
			FallbackText: DefaultFallbackText,
			ErrorMessage: DefaultErrorMessage,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderBedrock,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderBedrock,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderBedrock: "amazon.titan-embed-text-v2:0",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderBedrock:   "anthropic.claude-3-sonnet-20240229-v1:0",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Bedrock models
		"amazon.titan-embed-text-v2:0": 1024,
		"amazon.titan-embed-text-v1":   1536,
	}
}
