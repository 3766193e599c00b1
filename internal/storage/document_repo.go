package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bookforge/internal/models"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `document_id, owner_id, filename, storage_path, size_bytes, status, COALESCE(fail_reason,''), created_at, updated_at`

func scanDocument(row pgx.Row) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.DocumentID, &d.OwnerID, &d.Filename, &d.StoragePath, &d.SizeBytes, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *DocumentRepo) Create(ctx context.Context, d models.Document) (models.Document, error) {
	row := r.db.Pool.QueryRow(ctx, `
INSERT INTO documents (document_id, owner_id, filename, storage_path, size_bytes, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+documentColumns,
		d.DocumentID, d.OwnerID, d.Filename, d.StoragePath, d.SizeBytes, d.Status,
	)
	out, err := scanDocument(row)
	if err != nil {
		return models.Document{}, fmt.Errorf("create document: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) FindAllByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE owner_id=$1
ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *DocumentRepo) FindByIDForOwner(ctx context.Context, documentID, ownerID string) (models.Document, error) {
	row := r.db.Pool.QueryRow(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE document_id=$1 AND owner_id=$2`, documentID, ownerID)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (r *DocumentRepo) FindByIDsForOwner(ctx context.Context, documentIDs []string, ownerID string) ([]models.Document, error) {
	if len(documentIDs) == 0 {
		return []models.Document{}, nil
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE owner_id=$1 AND document_id = ANY($2)
ORDER BY created_at DESC`, ownerID, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("list documents by ids: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *DocumentRepo) FindIndexedByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE owner_id=$1 AND status='indexed'
ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list indexed documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, documentID string, status models.DocumentStatus, failReason string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET status=$2, fail_reason=NULLIF($3,''), updated_at=NOW()
WHERE document_id=$1`, documentID, status, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

// Delete removes the document row and its chunk set in one transaction.
func (r *DocumentRepo) Delete(ctx context.Context, documentID string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete document tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id=$1`, documentID); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE document_id=$1`, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete document tx: %w", err)
	}
	return nil
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	out := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
