package domain

import (
	"errors"
	"time"
)

// Domain errors represent business logic failures.
// Adapters wrap them with detail; callers match with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates no normaliser handles a document's MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrEmptyInput indicates no usable text remained after extraction.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmbeddingService indicates the embedding provider failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrVectorIndex indicates a vector index connection or query failure.
	ErrVectorIndex = errors.New("vector index error")

	// ErrGeneration indicates the language model call failed.
	ErrGeneration = errors.New("generation error")

	// ErrInvalidParameter indicates a malformed parameter (k, chunk sizes, sampling).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrTimeout indicates an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrRateLimited indicates a provider refused a call for exceeding its quota.
	ErrRateLimited = errors.New("rate limited")
)

// ThrottleError is a provider refusal that matches ErrRateLimited. After is
// how long the provider asked callers to wait; zero means it did not say.
type ThrottleError struct {
	After time.Duration
	Err   error
}

func (e *ThrottleError) Error() string {
	if e.Err == nil {
		return ErrRateLimited.Error()
	}
	return e.Err.Error()
}

func (e *ThrottleError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRateLimited}
	}
	return []error{ErrRateLimited, e.Err}
}

// Default user-facing texts.
const (
	// DefaultFallbackText is the reply the model is told to give when the context has no answer.
	DefaultFallbackText = "I apologize, but I don't find information about that in the provided context. " +
		"Could you rephrase your question?"

	// DefaultErrorMessage is shown when answering a question fails.
	DefaultErrorMessage = "I encountered an error processing your question. " +
		"Please try rephrasing it or uploading your documents again."
)

// UserMessage converts an error into a human-readable sentence.
// Internal detail is never included. generic is used for generation
// failures and anything unrecognised; an empty generic uses DefaultErrorMessage.
func UserMessage(err error, generic string) string {
	if generic == "" {
		generic = DefaultErrorMessage
	}

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "The request took too long to complete. Please try again."
	case errors.Is(err, ErrEmptyInput):
		return "No readable text was found in the uploaded documents."
	case errors.Is(err, ErrInvalidParameter):
		return "A setting or request parameter is invalid. Please check your configuration."
	case errors.Is(err, ErrInvalidInput):
		return "Please enter a question."
	case errors.Is(err, ErrUnsupportedType):
		return "This file type is not supported. Please upload PDF, text, Markdown, HTML or DOCX files."
	case errors.Is(err, ErrEmbeddingService), errors.Is(err, ErrEmbeddingUnavailable):
		return "The embedding service is unavailable. Please try again later."
	case errors.Is(err, ErrVectorIndex):
		return "The document index is unavailable. Please try uploading your documents again."
	default:
		return generic
	}
}
