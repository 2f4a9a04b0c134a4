package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-process driven.VectorIndex with brute-force cosine search.
// Writes build a new record map and swap it in under the lock, so a failed
// write leaves the previous contents visible.
type VectorIndex struct {
	mu      sync.RWMutex
	records map[string]domain.EmbeddingRecord
	dim     int
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		records: make(map[string]domain.EmbeddingRecord),
	}
}

// Upsert adds records, replacing any with the same chunk ID.
func (v *VectorIndex) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dim, err := vector.CheckDimension(v.dim, records)
	if err != nil {
		return err
	}

	next := make(map[string]domain.EmbeddingRecord, len(v.records)+len(records))
	for id, r := range v.records {
		next[id] = r
	}
	for _, r := range records {
		next[r.Chunk.ID] = cloneRecord(r)
	}

	v.records = next
	v.dim = dim
	return nil
}

// Replace swaps the whole index for records. The dimension is reset.
func (v *VectorIndex) Replace(ctx context.Context, records []domain.EmbeddingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dim, err := vector.CheckDimension(0, records)
	if err != nil {
		return err
	}

	next := make(map[string]domain.EmbeddingRecord, len(records))
	for _, r := range records {
		next[r.Chunk.ID] = cloneRecord(r)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = next
	v.dim = dim
	return nil
}

// Query returns up to k records most similar to query.
func (v *VectorIndex) Query(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1", domain.ErrInvalidParameter)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(v.records) == 0 {
		return nil, nil
	}
	if len(query) != v.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index uses %d", domain.ErrVectorIndex, len(query), v.dim)
	}

	return vector.TopK(query, v.snapshot(), k), nil
}

// IsEmpty reports whether the index holds no records.
func (v *VectorIndex) IsEmpty(_ context.Context) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records) == 0, nil
}

// Count returns the number of records.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records), nil
}

// MaxSequence returns the highest sequence index, or -1 when empty.
func (v *VectorIndex) MaxSequence(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	maxSeq := -1
	for _, r := range v.records {
		maxSeq = max(maxSeq, r.Chunk.SequenceIndex)
	}
	return maxSeq, nil
}

// Clear removes every record.
func (v *VectorIndex) Clear(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = make(map[string]domain.EmbeddingRecord)
	v.dim = 0
	return nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}

// snapshot returns the records in sequence order. Callers hold the read lock.
func (v *VectorIndex) snapshot() []domain.EmbeddingRecord {
	out := make([]domain.EmbeddingRecord, 0, len(v.records))
	for _, r := range v.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Chunk.SequenceIndex < out[j].Chunk.SequenceIndex
	})
	return out
}

func cloneRecord(r domain.EmbeddingRecord) domain.EmbeddingRecord {
	r.Vector = append([]float32(nil), r.Vector...)
	return r
}
