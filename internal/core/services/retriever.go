package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var retrieverLog = logger.Named("retriever")

// Retriever ranks indexed chunks by similarity to a question.
// Every call is a fresh round trip to the embedder and the index.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	timeout  time.Duration
}

// NewRetriever creates a retriever. A zero timeout uses domain.DefaultCallTimeout per call.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, timeout time.Duration) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		timeout:  timeout,
	}
}

// Retrieve returns up to k chunks ordered by descending score, ties by sequence index.
// An empty or missing index yields an empty result without calling the embedder.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidParameter, k)
	}
	if r.index == nil {
		retrieverLog.Debug("no index configured")
		return []domain.ScoredChunk{}, nil
	}

	empty, err := r.isEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		retrieverLog.Debug("index is empty")
		return []domain.ScoredChunk{}, nil
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrEmbeddingUnavailable)
	}

	vector, err := r.embed(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := r.query(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ScoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = domain.ScoredChunk{Chunk: hit.Record.Chunk, Score: hit.Similarity}
	}
	SortScored(results)
	if len(results) > k {
		results = results[:k]
	}

	retrieverLog.Debug("%d chunks (k=%d)", len(results), k)
	return results, nil
}

func (r *Retriever) isEmpty(ctx context.Context) (bool, error) {
	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	empty, err := r.index.IsEmpty(callCtx)
	if err != nil {
		return false, classify(domain.ErrVectorIndex, "check index", err)
	}
	return empty, nil
}

func (r *Retriever) embed(ctx context.Context, question string) ([]float32, error) {
	defer retrieverLog.Timer("embed question")()

	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.embedder.Embed(callCtx, question)
	if err != nil {
		return nil, classify(domain.ErrEmbeddingService, "embed question", err)
	}
	return vector, nil
}

func (r *Retriever) query(ctx context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	defer retrieverLog.Timer("query index")()

	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	hits, err := r.index.Query(callCtx, vector, k)
	if err != nil {
		return nil, classify(domain.ErrVectorIndex, "query index", err)
	}
	return hits, nil
}

// SortScored orders results by descending score, breaking ties by ascending
// sequence index. The sort is stable so equal keys keep their input order.
func SortScored(results []domain.ScoredChunk) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.SequenceIndex < results[j].Chunk.SequenceIndex
	})
}
