// Package ai builds the embedding and language model adapters named in the
// settings and wraps them for rate limiting and circuit breaking.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	bedrockembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/bedrock"
	ollamaembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/anthropic"
	bedrockllm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/bedrock"
	ollamallm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/resilience"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// pingTimeout bounds each connectivity check.
const pingTimeout = 5 * time.Second

var factoryLog = logger.Named("ai")

type (
	embeddingBuilder func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	llmBuilder       func(*domain.LLMSettings) (driven.LLMService, error)
)

var embeddingBuilders = map[domain.AIProvider]embeddingBuilder{
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: knownDimensions(s.Model),
		}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: knownDimensions(s.Model),
		})
	},
	domain.AIProviderBedrock: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return bedrockembed.NewEmbeddingService(context.Background(), bedrockembed.Config{
			Region:     s.Region,
			Model:      s.Model,
			Dimensions: knownDimensions(s.Model),
		})
	},
	domain.AIProviderAnthropic: func(*domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return nil, errors.New("anthropic does not support embeddings, use bedrock, ollama or openai")
	},
}

var llmBuilders = map[domain.AIProvider]llmBuilder{
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderBedrock: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return bedrockllm.NewLLMService(context.Background(), bedrockllm.Config{Region: s.Region, Model: s.Model})
	},
}

// knownDimensions is 0 for models outside the table; adapters then learn
// the size from the first response.
func knownDimensions(model string) int {
	return domain.EmbeddingDimensions()[model]
}

// CreateEmbeddingService builds the configured embedding adapter. It returns
// nil, nil when no usable provider is configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := embeddingBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateLLMService builds the configured language model adapter. It returns
// nil, nil when no usable provider is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := llmBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateAndValidateEmbeddingService builds the embedding adapter and pings
// it. Failures wrap domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	return checked(svc, err, domain.ErrEmbeddingUnavailable, "embedding")
}

// CreateAndValidateLLMService builds the language model adapter and pings
// it. Failures wrap domain.ErrLLMUnavailable.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	return checked(svc, err, domain.ErrLLMUnavailable, "llm")
}

type service interface {
	comparable
	Ping(ctx context.Context) error
	Close() error
}

// checked pings svc and closes it on failure. Errors name the settings
// subcommand that fixes them.
func checked[S service](svc S, err error, sentinel error, section string) (S, error) {
	var zero S
	if err != nil {
		return zero, fmt.Errorf("%w: %w. Run 'askdocs settings %s' to fix", sentinel, err, section)
	}
	if svc == zero {
		return zero, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return zero, fmt.Errorf("%w: service unreachable (%w). Run 'askdocs settings %s' to fix",
			sentinel, err, section)
	}
	return svc, nil
}

// InitResult holds the wrapped services. A nil service failed to build or
// is not configured; Warnings says which.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string
}

// Close closes whichever services were built.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise builds both services, pinging them first when validate is set.
// Build failures become warnings so the session can still start and report
// the problem when the service is needed.
func Initialise(settings *domain.AppSettings, validate bool) *InitResult {
	result := &InitResult{}
	warn := func(kind string, err error) {
		factoryLog.Warn("%s provider: %v", kind, err)
		result.Warnings = append(result.Warnings, err.Error())
	}

	createEmbedding, createLLM := CreateEmbeddingService, CreateLLMService
	if validate {
		createEmbedding, createLLM = CreateAndValidateEmbeddingService, CreateAndValidateLLMService
	}

	if embedder, err := createEmbedding(&settings.Embedding); err != nil {
		warn("embedding", err)
	} else if embedder != nil {
		name := "embedding:" + settings.Embedding.Provider.String()
		result.EmbeddingService = resilience.WrapEmbedding(embedder,
			resilience.NewRateLimiter(settings.Embedding.Provider),
			resilience.NewBreaker(name, resilience.DefaultBreakerConfig()))
	}

	if llm, err := createLLM(&settings.LLM); err != nil {
		warn("llm", err)
	} else if llm != nil {
		name := "llm:" + settings.LLM.Provider.String()
		result.LLMService = resilience.WrapLLM(llm,
			resilience.NewRateLimiter(settings.LLM.Provider),
			resilience.NewBreaker(name, resilience.DefaultBreakerConfig()))
	}

	return result
}
