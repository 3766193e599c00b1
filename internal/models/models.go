package models

import "time"

type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentIndexed    DocumentStatus = "indexed"
	DocumentFailed     DocumentStatus = "failed"
)

type HandbookStatus string

const (
	HandbookQueued     HandbookStatus = "queued"
	HandbookProcessing HandbookStatus = "processing"
	HandbookCompleted  HandbookStatus = "completed"
	HandbookFailed     HandbookStatus = "failed"
)

type User struct {
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

type Document struct {
	DocumentID  string         `json:"document_id"`
	OwnerID     string         `json:"owner_id"`
	Filename    string         `json:"filename"`
	StoragePath string         `json:"storage_path"`
	SizeBytes   int64          `json:"size_bytes"`
	Status      DocumentStatus `json:"status"`
	FailReason  string         `json:"fail_reason,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type DocumentChunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type Handbook struct {
	HandbookID        string         `json:"handbook_id"`
	OwnerID           string         `json:"owner_id"`
	Title             string         `json:"title"`
	Prompt            string         `json:"prompt"`
	Status            HandbookStatus `json:"status"`
	TargetWords       int            `json:"target_words"`
	GeneratedWords    int            `json:"generated_words"`
	Content           *string        `json:"content"`
	ErrorMessage      *string        `json:"error_message"`
	SourceDocumentIDs []string       `json:"source_document_ids"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
