package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// VectorIndex stores embedding records and answers cosine similarity queries.
// The vector dimension is fixed by the first write; Replace resets it.
type VectorIndex interface {
	// Upsert adds records, replacing any with the same chunk ID.
	// Either every record is stored or none is.
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error

	// Replace atomically swaps the whole index contents for records.
	Replace(ctx context.Context, records []domain.EmbeddingRecord) error

	// Query returns up to k records most similar to vector, best first.
	Query(ctx context.Context, vector []float32, k int) ([]VectorHit, error)

	// IsEmpty reports whether the index holds no records.
	IsEmpty(ctx context.Context) (bool, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// MaxSequence returns the highest stored sequence index, or -1 when empty.
	MaxSequence(ctx context.Context) (int, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Record is the matched record.
	Record domain.EmbeddingRecord

	// Similarity is the cosine similarity score.
	Similarity float64
}
