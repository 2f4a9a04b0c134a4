package domain

import "time"

// Document is the extracted text of one uploaded file.
type Document struct {
	// ID is the unique identifier.
	ID string

	// SourceID identifies the upload the text came from.
	SourceID string

	// URI is the original location.
	URI string

	// Title is a human-readable name.
	Title string

	// Content is the full extracted text.
	Content string

	// Metadata holds extractor-specific data (page count, MIME type).
	Metadata map[string]any

	// CreatedAt is when the text was extracted.
	CreatedAt time.Time
}

// TextChunk is a bounded, contiguous slice of a document's text.
// Chunks are immutable once created.
type TextChunk struct {
	// ID is the unique identifier.
	ID string

	// SourceID identifies the upload the chunk came from.
	SourceID string

	// Content is the chunk text.
	Content string

	// SequenceIndex preserves original order within an index build.
	SequenceIndex int

	// Metadata holds chunk-specific data.
	Metadata map[string]any
}

// EmbeddingRecord pairs a chunk with its vector.
// All records in one vector index share the same dimension.
type EmbeddingRecord struct {
	// Vector is the embedding of Chunk.Content.
	Vector []float32

	// Chunk is the text and metadata the vector represents.
	Chunk TextChunk
}

// Text returns the embedded text.
func (r EmbeddingRecord) Text() string {
	return r.Chunk.Content
}

// ScoredChunk is a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk TextChunk
	Score float64
}
