package storage

import (
	"context"
	"fmt"

	"bookforge/internal/models"
)

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceForDocument swaps a document's chunk set atomically: partial chunk
// sets never persist across ingestion retries.
func (r *ChunkRepo) ReplaceForDocument(ctx context.Context, documentID string, chunks []models.DocumentChunk) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id=$1`, documentID); err != nil {
		return fmt.Errorf("delete existing chunks: %w", err)
	}
	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
INSERT INTO document_chunks (chunk_id, document_id, chunk_index, content, token_count)
VALUES ($1, $2, $3, $4, $5)`,
			c.ChunkID, documentID, c.ChunkIndex, c.Content, c.TokenCount,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace chunks tx: %w", err)
	}
	return nil
}

// FindByDocumentIDs returns up to limit chunks grouped by document, then by
// chunk index. That ordering is what the chat and generation context
// builders expect.
func (r *ChunkRepo) FindByDocumentIDs(ctx context.Context, documentIDs []string, limit int) ([]models.DocumentChunk, error) {
	if len(documentIDs) == 0 {
		return []models.DocumentChunk{}, nil
	}
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT chunk_id, document_id, chunk_index, content, token_count, created_at
FROM document_chunks
WHERE document_id = ANY($1)
ORDER BY document_id ASC, chunk_index ASC
LIMIT $2`, documentIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("list chunks by documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.DocumentChunk, 0, 64)
	for rows.Next() {
		var c models.DocumentChunk
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.TokenCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}
