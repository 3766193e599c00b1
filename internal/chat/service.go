// Package chat answers user questions from indexed document chunks, grounded
// by the remote model when one is configured.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookforge/internal/llm"
	"bookforge/internal/logger"
	"bookforge/internal/models"
	"bookforge/internal/retrieval"
	"bookforge/internal/util"
)

const (
	sourceExcerptRunes  = 240
	fallbackAnswerRunes = 1200
)

type DocumentFinder interface {
	FindIndexedByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
}

type ChunkFinder interface {
	FindByDocumentIDs(ctx context.Context, documentIDs []string, limit int) ([]models.DocumentChunk, error)
}

type Source struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Excerpt    string `json:"excerpt"`
}

type Response struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	UsedModel string   `json:"used_model"`
}

type Service struct {
	log        *logger.Logger
	documents  DocumentFinder
	chunks     ChunkFinder
	client     llm.Client
	chunkLimit int
}

func NewService(log *logger.Logger, documents DocumentFinder, chunks ChunkFinder, client llm.Client, chunkLimit int) *Service {
	if chunkLimit <= 0 {
		chunkLimit = 1200
	}
	return &Service{
		log:        log.With("service", "chat"),
		documents:  documents,
		chunks:     chunks,
		client:     client,
		chunkLimit: chunkLimit,
	}
}

// Answer retrieves the owner's top-scoring chunks for message and asks the
// remote model for a grounded reply. Requested document ids are intersected
// with the owner's indexed documents; unknown or non-indexed ids are dropped
// silently. When the remote model is unconfigured, errors, or nothing
// scores, the reply degrades to a deterministic local answer labeled with
// the fallback model id.
func (s *Service) Answer(ctx context.Context, ownerID, message string, documentIDs []string, topK int) (Response, error) {
	indexed, err := s.documents.FindIndexedByOwner(ctx, ownerID)
	if err != nil {
		return Response{}, fmt.Errorf("load indexed documents: %w", err)
	}
	selected := chooseDocuments(indexed, documentIDs)

	selectedIDs := make([]string, 0, len(selected))
	filenames := make(map[string]string, len(selected))
	for _, d := range selected {
		selectedIDs = append(selectedIDs, d.DocumentID)
		filenames[d.DocumentID] = d.Filename
	}

	chunks, err := s.chunks.FindByDocumentIDs(ctx, selectedIDs, s.chunkLimit)
	if err != nil {
		return Response{}, fmt.Errorf("load chunks: %w", err)
	}

	queryTokens := retrieval.Tokenize(message)
	ranked := retrieval.SelectTopK(chunks, queryTokens, topK)
	if len(ranked) == 0 {
		return Response{
			Answer:    "I could not find relevant indexed content for your question. Upload and index a PDF first.",
			Sources:   []Source{},
			UsedModel: llm.FallbackModel,
		}, nil
	}

	sources := make([]Source, 0, len(ranked))
	contextBlocks := make([]string, 0, len(ranked))
	for i, c := range ranked {
		sources = append(sources, Source{
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			Excerpt:    util.DisplaySnippet(c.Content, sourceExcerptRunes),
		})
		filename := filenames[c.DocumentID]
		if filename == "" {
			filename = "unknown.pdf"
		}
		contextBlocks = append(contextBlocks, fmt.Sprintf("Context %d (%s, chunk %d):\n%s", i+1, filename, c.ChunkIndex, c.Content))
	}

	resp, err := s.client.Generate(ctx, []llm.Message{
		{
			Role:    llm.RoleSystem,
			Content: "You are a retrieval-grounded assistant. Answer only from the provided context. If context is insufficient, say what is missing.",
		},
		{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Question:\n%s\n\nContext:\n%s", message, strings.Join(contextBlocks, "\n\n")),
		},
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			s.log.Debug("remote model unavailable, answering locally", "owner_id", ownerID)
		} else {
			s.log.Error("remote generation failed, answering locally", "owner_id", ownerID, "error", err)
		}
		return Response{
			Answer:    fallbackAnswer(message, ranked),
			Sources:   sources,
			UsedModel: llm.FallbackModel,
		}, nil
	}

	return Response{Answer: resp.Text, Sources: sources, UsedModel: resp.Model}, nil
}

func chooseDocuments(indexed []models.Document, requestedIDs []string) []models.Document {
	if len(requestedIDs) == 0 {
		return indexed
	}
	requested := make(map[string]struct{}, len(requestedIDs))
	for _, id := range requestedIDs {
		requested[id] = struct{}{}
	}
	out := make([]models.Document, 0, len(indexed))
	for _, d := range indexed {
		if _, ok := requested[d.DocumentID]; ok {
			out = append(out, d)
		}
	}
	return out
}

func fallbackAnswer(message string, chunks []models.DocumentChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	excerpt := strings.TrimSpace(util.TruncateRunes(strings.Join(parts, " "), fallbackAnswerRunes))
	return fmt.Sprintf("Based on your uploaded content, here is the most relevant context for %q:\n\n%s", message, excerpt)
}
