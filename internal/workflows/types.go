package workflows

type DocumentIngestInput struct {
	DocumentID  string `json:"document_id"`
	OwnerID     string `json:"owner_id"`
	StoragePath string `json:"storage_path"`
	Filename    string `json:"filename"`
}

type HandbookBuildInput struct {
	HandbookID        string   `json:"handbook_id"`
	OwnerID           string   `json:"owner_id"`
	Title             string   `json:"title"`
	Prompt            string   `json:"prompt"`
	TargetWords       int      `json:"target_words"`
	SourceDocumentIDs []string `json:"source_document_ids"`
}

type IngestProgress struct {
	DocumentID  string `json:"document_id"`
	CurrentStep string `json:"current_step"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason,omitempty"`
	ChunkCount  int    `json:"chunk_count"`
}

type HandbookProgress struct {
	HandbookID      string            `json:"handbook_id"`
	Status          string            `json:"status"`
	TotalSections   int               `json:"total_sections"`
	DoneSections    int               `json:"done_sections"`
	SectionStatus   map[string]string `json:"section_status"`
	FallbackCount   int               `json:"fallback_count"`
	ContextChunks   int               `json:"context_chunks"`
	AssembledWords  int               `json:"assembled_words"`
	FailureReported string            `json:"failure_reported,omitempty"`
}
