package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bookforge/internal/models"
)

const maxErrorMessageLen = 3000

type HandbookRepo struct {
	db *DB
}

func NewHandbookRepo(db *DB) *HandbookRepo {
	return &HandbookRepo{db: db}
}

const handbookColumns = `handbook_id, owner_id, title, prompt, status, target_words, generated_words, content, error_message, source_document_ids, created_at, updated_at`

func scanHandbook(row pgx.Row) (models.Handbook, error) {
	var h models.Handbook
	err := row.Scan(&h.HandbookID, &h.OwnerID, &h.Title, &h.Prompt, &h.Status, &h.TargetWords,
		&h.GeneratedWords, &h.Content, &h.ErrorMessage, &h.SourceDocumentIDs, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

func (r *HandbookRepo) Create(ctx context.Context, h models.Handbook) (models.Handbook, error) {
	if h.SourceDocumentIDs == nil {
		h.SourceDocumentIDs = []string{}
	}
	row := r.db.Pool.QueryRow(ctx, `
INSERT INTO handbooks (handbook_id, owner_id, title, prompt, status, target_words, generated_words, source_document_ids)
VALUES ($1, $2, $3, $4, 'queued', $5, 0, $6)
RETURNING `+handbookColumns,
		h.HandbookID, h.OwnerID, h.Title, h.Prompt, h.TargetWords, h.SourceDocumentIDs,
	)
	out, err := scanHandbook(row)
	if err != nil {
		return models.Handbook{}, fmt.Errorf("create handbook: %w", err)
	}
	return out, nil
}

func (r *HandbookRepo) FindAllByOwner(ctx context.Context, ownerID string) ([]models.Handbook, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+handbookColumns+`
FROM handbooks
WHERE owner_id=$1
ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list handbooks: %w", err)
	}
	defer rows.Close()

	out := make([]models.Handbook, 0)
	for rows.Next() {
		h, err := scanHandbook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan handbook: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handbooks: %w", err)
	}
	return out, nil
}

func (r *HandbookRepo) FindByIDForOwner(ctx context.Context, handbookID, ownerID string) (models.Handbook, error) {
	row := r.db.Pool.QueryRow(ctx, `
SELECT `+handbookColumns+`
FROM handbooks
WHERE handbook_id=$1 AND owner_id=$2`, handbookID, ownerID)
	h, err := scanHandbook(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Handbook{}, ErrNotFound
	}
	if err != nil {
		return models.Handbook{}, fmt.Errorf("get handbook: %w", err)
	}
	return h, nil
}

func (r *HandbookRepo) UpdateStatus(ctx context.Context, handbookID string, status models.HandbookStatus) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE handbooks SET status=$2, updated_at=NOW() WHERE handbook_id=$1`, handbookID, status)
	if err != nil {
		return fmt.Errorf("update handbook status: %w", err)
	}
	return nil
}

func (r *HandbookRepo) MarkCompleted(ctx context.Context, handbookID, content string, generatedWords int) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE handbooks
SET status='completed', content=$2, generated_words=$3, error_message=NULL, updated_at=NOW()
WHERE handbook_id=$1`, handbookID, content, generatedWords)
	if err != nil {
		return fmt.Errorf("mark handbook completed: %w", err)
	}
	return nil
}

func (r *HandbookRepo) MarkFailed(ctx context.Context, handbookID, errorMessage string) error {
	if len(errorMessage) > maxErrorMessageLen {
		errorMessage = errorMessage[:maxErrorMessageLen]
	}
	_, err := r.db.Pool.Exec(ctx, `
UPDATE handbooks
SET status='failed', error_message=$2, updated_at=NOW()
WHERE handbook_id=$1`, handbookID, errorMessage)
	if err != nil {
		return fmt.Errorf("mark handbook failed: %w", err)
	}
	return nil
}
