package driven

import "github.com/custodia-labs/askdocs/internal/core/domain"

// Chunker splits extracted text into overlapping chunks.
// Output must be deterministic for identical input.
type Chunker interface {
	// Split returns chunks numbered from zero in document order.
	// Returns domain.ErrEmptyInput when text has no non-whitespace content.
	Split(sourceID, text string) ([]domain.TextChunk, error)
}
