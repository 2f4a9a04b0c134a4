package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a driven.VectorIndex stored in the chunks table.
// Queries load every vector and rank in memory, which suits the few thousand
// chunks a desktop session produces.
type VectorIndex struct {
	store *Store
}

// Upsert adds records in one transaction, replacing rows with the same chunk ID.
func (v *VectorIndex) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return indexErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := dimensionOf(ctx, tx)
	if err != nil {
		return err
	}
	dim, err := vector.CheckDimension(current, records)
	if err != nil {
		return err
	}

	if err := insertRecords(ctx, tx, dim, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return indexErr("committing transaction", err)
	}
	return nil
}

// Replace deletes every row and inserts records in one transaction.
func (v *VectorIndex) Replace(ctx context.Context, records []domain.EmbeddingRecord) error {
	dim, err := vector.CheckDimension(0, records)
	if err != nil {
		return err
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return indexErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return indexErr("clearing chunks", err)
	}
	if err := insertRecords(ctx, tx, dim, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return indexErr("committing transaction", err)
	}
	return nil
}

// Query returns up to k records most similar to query.
func (v *VectorIndex) Query(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1", domain.ErrInvalidParameter)
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, source_id, content, sequence_index, embedding, metadata
		FROM chunks
		ORDER BY sequence_index
	`)
	if err != nil {
		return nil, indexErr("querying chunks", err)
	}
	defer rows.Close()

	var records []domain.EmbeddingRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if len(r.Vector) != len(query) {
			return nil, fmt.Errorf("%w: query has dimension %d, index uses %d",
				domain.ErrVectorIndex, len(query), len(r.Vector))
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, indexErr("iterating chunks", err)
	}

	return vector.TopK(query, records, k), nil
}

// IsEmpty reports whether the chunks table has no rows.
func (v *VectorIndex) IsEmpty(ctx context.Context) (bool, error) {
	n, err := v.Count(ctx)
	return n == 0, err
}

// Count returns the number of stored chunks.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, indexErr("counting chunks", err)
	}
	return n, nil
}

// MaxSequence returns the highest sequence index, or -1 when empty.
func (v *VectorIndex) MaxSequence(ctx context.Context) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(sequence_index), -1) FROM chunks").Scan(&n)
	if err != nil {
		return 0, indexErr("reading sequence", err)
	}
	return n, nil
}

// Clear removes every chunk.
func (v *VectorIndex) Clear(ctx context.Context) error {
	if _, err := v.store.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return indexErr("clearing chunks", err)
	}
	return nil
}

// Close is a no-op. The owning Store closes the connection.
func (v *VectorIndex) Close() error {
	return nil
}

// dimensionOf returns the dimension of the stored vectors, or 0 when empty.
func dimensionOf(ctx context.Context, tx *sql.Tx) (int, error) {
	var dim int
	err := tx.QueryRowContext(ctx, "SELECT dimensions FROM chunks LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, indexErr("reading dimension", err)
	}
	return dim, nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, dim int, records []domain.EmbeddingRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source_id, content, sequence_index, embedding, dimensions, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			content = excluded.content,
			sequence_index = excluded.sequence_index,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			metadata = excluded.metadata
	`)
	if err != nil {
		return indexErr("preparing statement", err)
	}
	defer stmt.Close()

	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("%w: marshalling chunk metadata: %w", domain.ErrVectorIndex, err)
		}

		if _, err := stmt.ExecContext(ctx, r.Chunk.ID, r.Chunk.SourceID, r.Chunk.Content,
			r.Chunk.SequenceIndex, encodeVector(r.Vector), dim, string(metadataJSON)); err != nil {
			return indexErr("saving chunk", err)
		}
	}
	return nil
}

func scanRecord(rows *sql.Rows) (*domain.EmbeddingRecord, error) {
	var r domain.EmbeddingRecord
	var embeddingBlob []byte
	var metadataJSON string

	if err := rows.Scan(&r.Chunk.ID, &r.Chunk.SourceID, &r.Chunk.Content,
		&r.Chunk.SequenceIndex, &embeddingBlob, &metadataJSON); err != nil {
		return nil, indexErr("scanning chunk", err)
	}

	vec, err := decodeVector(embeddingBlob)
	if err != nil {
		return nil, indexErr("decoding chunk "+r.Chunk.ID, err)
	}
	r.Vector = vec

	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &r.Chunk.Metadata); err != nil {
			return nil, fmt.Errorf("%w: unmarshalling chunk metadata: %w", domain.ErrVectorIndex, err)
		}
	}

	return &r, nil
}
