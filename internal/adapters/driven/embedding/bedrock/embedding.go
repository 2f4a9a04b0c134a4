// Package bedrock provides an embedding service adapter using Amazon Titan on AWS Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultRegion     = "us-west-2"
	DefaultModel      = "amazon.titan-embed-text-v2:0"
	DefaultDimensions = 1024
)

// Runtime is the subset of the Bedrock runtime client used here.
type Runtime interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput,
		optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Config holds configuration for the Bedrock embedding service.
type Config struct {
	// Region is the AWS region (default: us-west-2).
	Region string

	// Model is the embedding model ID (default: amazon.titan-embed-text-v2:0).
	Model string

	// Dimensions is the requested vector size. Titan v2 accepts 256, 512 or 1024.
	Dimensions int

	// Runtime overrides the client built from the default AWS credential chain.
	Runtime Runtime
}

// EmbeddingService generates embeddings using Titan on Bedrock.
type EmbeddingService struct {
	runtime    Runtime
	model      string
	dimensions int
}

// titanRequest is the Titan v2 request body.
type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

// titanResponse is the Titan v2 response body.
type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewEmbeddingService creates a new Bedrock embedding service.
// Credentials come from the standard AWS chain (environment, shared config, instance role).
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	runtime := cfg.Runtime
	if runtime == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
		}
		runtime = bedrockruntime.NewFromConfig(awsCfg)
	}

	return &EmbeddingService{
		runtime:    runtime,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{
		InputText:  text,
		Dimensions: s.dimensions,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	out, err := s.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(s.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, invokeError(s.model, err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("bedrock: no embedding returned")
	}

	return resp.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts.
// Titan has no batch endpoint, so texts are embedded one at a time.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a single word. Bedrock runtime has no cheaper authenticated call.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("bedrock: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// invokeError marks Bedrock throttling so the limiter backs off.
func invokeError(model string, err error) error {
	err = fmt.Errorf("bedrock: invoke %s: %w", model, err)
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return &domain.ThrottleError{Err: err}
	}
	return err
}
