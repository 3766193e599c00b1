package storage

import (
	"context"
	"fmt"
)

// GenerationCallRecord is one remote-generation attempt: which handbook
// section asked for it, what came back, and whether the section fell back
// to local synthesis.
type GenerationCallRecord struct {
	CallID     string
	Operation  string
	HandbookID string
	Section    string
	Model      string
	Status     string
	Detail     string
}

type GenerationCallRepo struct {
	db *DB
}

func NewGenerationCallRepo(db *DB) *GenerationCallRepo {
	return &GenerationCallRepo{db: db}
}

func (r *GenerationCallRepo) Insert(ctx context.Context, rec GenerationCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO generation_calls (call_id, operation, handbook_id, section, model, status, detail)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6, NULLIF($7,''))`,
		rec.CallID, rec.Operation, rec.HandbookID, rec.Section, rec.Model, rec.Status, rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert generation call: %w", err)
	}
	return nil
}
