package activities

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bookforge/internal/blob"
	"bookforge/internal/config"
	"bookforge/internal/handbook"
	"bookforge/internal/llm"
	"bookforge/internal/logger"
	"bookforge/internal/models"
	"bookforge/internal/storage"
	"bookforge/internal/util"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// generationCallLog records each remote-generation attempt for auditing.
type generationCallLog interface {
	Insert(ctx context.Context, rec storage.GenerationCallRecord) error
}

type Activities struct {
	cfg          config.Config
	log          *logger.Logger
	documentRepo *storage.DocumentRepo
	chunkRepo    *storage.ChunkRepo
	handbookRepo *storage.HandbookRepo
	callRepo     generationCallLog
	blobs        blob.Store
	client       llm.Client
}

func New(cfg config.Config, log *logger.Logger, db *storage.DB, blobs blob.Store, client llm.Client) *Activities {
	return &Activities{
		cfg:          cfg,
		log:          log,
		documentRepo: storage.NewDocumentRepo(db),
		chunkRepo:    storage.NewChunkRepo(db),
		handbookRepo: storage.NewHandbookRepo(db),
		callRepo:     storage.NewGenerationCallRepo(db),
		blobs:        blobs,
		client:       client,
	}
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	rc, err := a.blobs.Download(ctx, in.StoragePath)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("download pdf: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("read pdf: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return ExtractTextOutput{}, fmt.Errorf("read extracted text: %w", err)
	}
	text := strings.TrimSpace(util.SanitizeText(buf.String()))
	if text == "" {
		return ExtractTextOutput{}, util.ErrNoExtractableText
	}
	return ExtractTextOutput{Text: text}, nil
}

func (a *Activities) ChunkDocumentActivity(ctx context.Context, in ChunkDocumentInput) (ChunkDocumentOutput, error) {
	_ = ctx
	raw := util.ChunkText(in.Text, a.cfg.ChunkMaxChars)
	chunks := make([]models.DocumentChunk, 0, len(raw))
	for _, c := range raw {
		chunks = append(chunks, models.DocumentChunk{
			ChunkID:    uuid.NewString(),
			DocumentID: in.DocumentID,
			ChunkIndex: c.Index,
			Content:    c.Content,
			TokenCount: c.TokenCount,
		})
	}
	return ChunkDocumentOutput{Chunks: chunks}, nil
}

func (a *Activities) ReplaceChunksActivity(ctx context.Context, in ReplaceChunksInput) (ReplaceChunksOutput, error) {
	if err := a.chunkRepo.ReplaceForDocument(ctx, in.DocumentID, in.Chunks); err != nil {
		return ReplaceChunksOutput{}, err
	}
	return ReplaceChunksOutput{ChunkCount: len(in.Chunks)}, nil
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	return a.documentRepo.UpdateStatus(ctx, in.DocumentID, models.DocumentStatus(in.Status), in.FailReason)
}

// LoadHandbookContextActivity collects chunks of the owner's indexed
// documents. An empty SourceDocumentIDs selects every indexed document;
// unknown or non-indexed requested IDs are silently skipped.
func (a *Activities) LoadHandbookContextActivity(ctx context.Context, in LoadHandbookContextInput) (LoadHandbookContextOutput, error) {
	indexed, err := a.documentRepo.FindIndexedByOwner(ctx, in.OwnerID)
	if err != nil {
		return LoadHandbookContextOutput{}, err
	}
	chosen := indexed
	if len(in.SourceDocumentIDs) > 0 {
		requested := make(map[string]bool, len(in.SourceDocumentIDs))
		for _, id := range in.SourceDocumentIDs {
			requested[id] = true
		}
		chosen = chosen[:0:0]
		for _, d := range indexed {
			if requested[d.DocumentID] {
				chosen = append(chosen, d)
			}
		}
	}
	if len(chosen) == 0 {
		return LoadHandbookContextOutput{}, nil
	}

	ids := make([]string, 0, len(chosen))
	names := make(map[string]string, len(chosen))
	for _, d := range chosen {
		ids = append(ids, d.DocumentID)
		names[d.DocumentID] = d.Filename
	}
	chunks, err := a.chunkRepo.FindByDocumentIDs(ctx, ids, a.cfg.ContextChunkLimit)
	if err != nil {
		return LoadHandbookContextOutput{}, err
	}

	out := LoadHandbookContextOutput{Chunks: make([]handbook.ContextChunk, 0, len(chunks))}
	for _, c := range chunks {
		filename := names[c.DocumentID]
		if filename == "" {
			filename = "unknown.pdf"
		}
		out.Chunks = append(out.Chunks, handbook.ContextChunk{
			DocumentID: c.DocumentID,
			Filename:   filename,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
		})
	}
	return out, nil
}

// GenerateSectionActivity produces the final text for one section. The
// remote model's output is accepted only when it reaches half the section's
// word goal; otherwise the section is synthesized locally from the grounding
// chunks. Every attempt is recorded in generation_calls.
func (a *Activities) GenerateSectionActivity(ctx context.Context, in GenerateSectionInput) (GenerateSectionOutput, error) {
	resp, err := a.client.Generate(ctx, sectionMessages(in))

	status := "ok"
	detail := ""
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		status = "unconfigured"
	case err != nil:
		status = "failed"
		detail = err.Error()
		a.log.Error("section generation failed", "handbook_id", in.HandbookID, "section", in.SectionTitle, "error", err)
	case util.CountWords(resp.Text) < in.SectionGoalWords/2:
		status = "short"
		detail = fmt.Sprintf("got %d words, wanted at least %d", util.CountWords(resp.Text), in.SectionGoalWords/2)
	}
	a.recordCall(ctx, in, resp.Model, status, detail)

	if status != "ok" {
		return GenerateSectionOutput{
			Text:     handbook.BuildFallbackSection(in.SectionTitle, in.SectionGoalWords, in.Context),
			Model:    llm.FallbackModel,
			Fallback: true,
		}, nil
	}
	return GenerateSectionOutput{
		Text:  "## " + in.SectionTitle + "\n\n" + strings.TrimSpace(resp.Text),
		Model: resp.Model,
	}, nil
}

func (a *Activities) recordCall(ctx context.Context, in GenerateSectionInput, model, status, detail string) {
	err := a.callRepo.Insert(ctx, storage.GenerationCallRecord{
		CallID:     uuid.NewString(),
		Operation:  "handbook_section",
		HandbookID: in.HandbookID,
		Section:    in.SectionTitle,
		Model:      model,
		Status:     status,
		Detail:     detail,
	})
	if err != nil {
		a.log.Warn("record generation call", "handbook_id", in.HandbookID, "error", err)
	}
}

const sectionContextChunks = 14

const sectionContextExcerptRunes = 1200

func sectionMessages(in GenerateSectionInput) []llm.Message {
	grounding := in.Context
	if len(grounding) > sectionContextChunks {
		grounding = grounding[:sectionContextChunks]
	}
	blocks := make([]string, 0, len(grounding))
	for i, c := range grounding {
		blocks = append(blocks, fmt.Sprintf("Source %d (%s, chunk %d):\n%s",
			i+1, c.Filename, c.ChunkIndex, util.TruncateRunes(c.Content, sectionContextExcerptRunes)))
	}
	return []llm.Message{
		{
			Role:    llm.RoleSystem,
			Content: "You generate long-form technical handbook sections. Stay grounded in provided sources and use clear headings and structured prose.",
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(
				"Handbook topic: %s\nSection: %s\nTarget words for this section: %d\nWrite substantial, coherent content with practical detail.\n\nGrounding context:\n%s",
				in.Prompt, in.SectionTitle, in.SectionGoalWords, strings.Join(blocks, "\n\n")),
		},
	}
}

func (a *Activities) UpdateHandbookStatusActivity(ctx context.Context, in UpdateHandbookStatusInput) error {
	return a.handbookRepo.UpdateStatus(ctx, in.HandbookID, models.HandbookStatus(in.Status))
}

func (a *Activities) CompleteHandbookActivity(ctx context.Context, in CompleteHandbookInput) error {
	return a.handbookRepo.MarkCompleted(ctx, in.HandbookID, in.Content, in.GeneratedWords)
}

func (a *Activities) FailHandbookActivity(ctx context.Context, in FailHandbookInput) error {
	return a.handbookRepo.MarkFailed(ctx, in.HandbookID, in.ErrorMessage)
}
