// Package anthropic generates answers with the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/resilience"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	apiVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is sent in the x-api-key header (required).
	APIKey string

	// BaseURL is the API root (default: https://api.anthropic.com).
	BaseURL string

	// Model is the Claude model (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout bounds one HTTP round-trip (default: 120s).
	Timeout time.Duration
}

// LLMService answers grounded prompts with a single Messages API call.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Generate sends the prompt as one user turn with opts.System as the system prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	payload := NewMessagesRequest(prompt, opts)
	payload.Model = s.model

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var reply MessagesResponse
	if err := s.do(ctx, http.MethodPost, "/v1/messages", bytes.NewReader(body), &reply); err != nil {
		return "", err
	}

	text, err := reply.Answer()
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	return text, nil
}

// do sends a request with the API headers and decodes the JSON reply into out.
func (s *LLMService) do(ctx context.Context, method, path string, body io.Reader, out *MessagesResponse) error {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	if body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: read response: %w", err)
	}

	var decoded MessagesResponse
	decodeErr := json.Unmarshal(raw, &decoded)
	var apiErr error
	switch {
	case decodeErr == nil && decoded.Error != nil:
		apiErr = fmt.Errorf("anthropic error (status %d, %s): %s", resp.StatusCode, decoded.Error.Type, decoded.Error.Message)
	case resp.StatusCode != http.StatusOK:
		apiErr = fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	switch {
	case apiErr != nil && resp.StatusCode == http.StatusTooManyRequests:
		return resilience.Throttled(resp.Header, apiErr)
	case apiErr != nil:
		return apiErr
	case decodeErr != nil:
		return fmt.Errorf("anthropic: decode response: %w", decodeErr)
	}
	if out != nil {
		*out = decoded
	}
	return nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping retrieves the model's metadata, which checks the key and the model
// name without running inference. Aliases such as "-latest" resolve too.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, "/v1/models/"+url.PathEscape(s.model), http.NoBody, nil); err != nil {
		return fmt.Errorf("anthropic: ping: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
