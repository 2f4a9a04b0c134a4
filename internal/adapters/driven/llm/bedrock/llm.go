// Package bedrock provides an LLM service adapter for Claude models on AWS Bedrock.
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

	"github.com/custodia-labs/askdocs/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultRegion = "us-west-2"
	DefaultModel  = "anthropic.claude-3-sonnet-20240229-v1:0"

	// bedrockAnthropicVersion replaces the anthropic-version header on Bedrock.
	bedrockAnthropicVersion = "bedrock-2023-05-31"
)

// Runtime is the subset of the Bedrock runtime client used here.
type Runtime interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput,
		optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Config holds configuration for the Bedrock LLM service.
type Config struct {
	// Region is the AWS region (default: us-west-2).
	Region string

	// Model is the Claude model ID on Bedrock.
	Model string

	// Runtime overrides the client built from the default AWS credential chain.
	Runtime Runtime

	// Credentials overrides the provider used by Ping. Set together with Runtime in tests.
	Credentials aws.CredentialsProvider
}

// LLMService provides LLM operations using Claude on Bedrock.
type LLMService struct {
	runtime     Runtime
	credentials aws.CredentialsProvider
	model       string
}

// NewLLMService creates a new Bedrock LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	runtime, creds := cfg.Runtime, cfg.Credentials
	if runtime == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
		}
		runtime = bedrockruntime.NewFromConfig(awsCfg)
		creds = awsCfg.Credentials
	}

	return &LLMService{
		runtime:     runtime,
		credentials: creds,
		model:       cfg.Model,
	}, nil
}

// Generate produces text completion from a prompt using the Anthropic messages body.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	reqBody := anthropic.NewMessagesRequest(prompt, opts)
	reqBody.AnthropicVersion = bedrockAnthropicVersion

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	out, err := s.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(s.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", invokeError(s.model, err)
	}

	var resp anthropic.MessagesResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("bedrock error: %s", resp.Error.Message)
	}
	text, err := resp.Answer()
	if err != nil {
		return "", fmt.Errorf("bedrock: %w", err)
	}
	return text, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping resolves AWS credentials without invoking the model.
func (s *LLMService) Ping(ctx context.Context) error {
	if s.credentials == nil {
		return nil
	}
	if _, err := s.credentials.Retrieve(ctx); err != nil {
		return fmt.Errorf("bedrock: resolve credentials: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
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
