package activities

import (
	"bookforge/internal/handbook"
	"bookforge/internal/models"
)

type ExtractTextInput struct {
	StoragePath string `json:"storage_path"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type ChunkDocumentInput struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type ChunkDocumentOutput struct {
	Chunks []models.DocumentChunk `json:"chunks"`
}

type ReplaceChunksInput struct {
	DocumentID string                 `json:"document_id"`
	Chunks     []models.DocumentChunk `json:"chunks"`
}

type ReplaceChunksOutput struct {
	ChunkCount int `json:"chunk_count"`
}

type UpdateDocumentStatusInput struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason,omitempty"`
}

type LoadHandbookContextInput struct {
	OwnerID           string   `json:"owner_id"`
	SourceDocumentIDs []string `json:"source_document_ids"`
}

type LoadHandbookContextOutput struct {
	Chunks []handbook.ContextChunk `json:"chunks"`
}

type GenerateSectionInput struct {
	HandbookID       string                  `json:"handbook_id"`
	Prompt           string                  `json:"prompt"`
	SectionTitle     string                  `json:"section_title"`
	SectionGoalWords int                     `json:"section_goal_words"`
	Context          []handbook.ContextChunk `json:"context"`
}

type GenerateSectionOutput struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Fallback bool   `json:"fallback"`
}

type UpdateHandbookStatusInput struct {
	HandbookID string `json:"handbook_id"`
	Status     string `json:"status"`
}

type CompleteHandbookInput struct {
	HandbookID     string `json:"handbook_id"`
	Content        string `json:"content"`
	GeneratedWords int    `json:"generated_words"`
}

type FailHandbookInput struct {
	HandbookID   string `json:"handbook_id"`
	ErrorMessage string `json:"error_message"`
}
