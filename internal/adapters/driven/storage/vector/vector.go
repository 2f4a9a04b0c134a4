// Package vector holds the similarity maths shared by the vector index backends.
package vector

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Cosine returns the cosine similarity of a and b, or 0 when either has zero length.
// a and b must have the same dimension.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CheckDimension verifies every record has the same dimension, matching want
// unless want is zero. It returns the dimension of the batch.
func CheckDimension(want int, records []domain.EmbeddingRecord) (int, error) {
	dim := want
	for _, r := range records {
		if len(r.Vector) == 0 {
			return 0, fmt.Errorf("%w: chunk %s has an empty vector", domain.ErrVectorIndex, r.Chunk.ID)
		}
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return 0, fmt.Errorf("%w: chunk %s has dimension %d, index uses %d",
				domain.ErrVectorIndex, r.Chunk.ID, len(r.Vector), dim)
		}
	}
	return dim, nil
}

// TopK scores records against query and returns the best k,
// ordered by similarity then ascending sequence index.
func TopK(query []float32, records []domain.EmbeddingRecord, k int) []driven.VectorHit {
	hits := make([]driven.VectorHit, 0, len(records))
	for _, r := range records {
		hits = append(hits, driven.VectorHit{Record: r, Similarity: Cosine(query, r.Vector)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Record.Chunk.SequenceIndex < hits[j].Record.Chunk.SequenceIndex
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
