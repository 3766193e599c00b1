package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bookforge/internal/llm"
	"bookforge/internal/logger"
	"bookforge/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeDocuments struct {
	indexed []models.Document
	err     error
}

func (f *fakeDocuments) FindIndexedByOwner(_ context.Context, _ string) ([]models.Document, error) {
	return f.indexed, f.err
}

type fakeChunks struct {
	chunks []models.DocumentChunk
	gotIDs []string
	gotLim int
	err    error
}

func (f *fakeChunks) FindByDocumentIDs(_ context.Context, documentIDs []string, limit int) ([]models.DocumentChunk, error) {
	f.gotIDs = documentIDs
	f.gotLim = limit
	return f.chunks, f.err
}

func testDocs() []models.Document {
	return []models.Document{
		{DocumentID: "d1", Filename: "cats.pdf", Status: models.DocumentIndexed},
		{DocumentID: "d2", Filename: "dogs.pdf", Status: models.DocumentIndexed},
	}
}

func testChunks() []models.DocumentChunk {
	return []models.DocumentChunk{
		{ChunkID: "c0", DocumentID: "d1", ChunkIndex: 0, Content: "the cat sat"},
		{ChunkID: "c1", DocumentID: "d2", ChunkIndex: 0, Content: "dogs run fast"},
		{ChunkID: "c2", DocumentID: "d1", ChunkIndex: 1, Content: "cats and dogs"},
	}
}

func TestAnswerUsesRemoteModel(t *testing.T) {
	docs := &fakeDocuments{indexed: testDocs()}
	chunks := &fakeChunks{chunks: testChunks()}
	client := &llm.MockClient{Text: "grounded answer"}
	svc := NewService(logger.NewNop(), docs, chunks, client, 0)

	resp, err := svc.Answer(context.Background(), "u1", "cats dogs", nil, 2)
	require.NoError(t, err)
	require.Equal(t, "grounded answer", resp.Answer)
	require.Equal(t, "mock-llm-v1", resp.UsedModel)
	require.Len(t, resp.Sources, 2)
	require.Equal(t, "d1", resp.Sources[0].DocumentID)
	require.Equal(t, 1, resp.Sources[0].ChunkIndex)
	require.Equal(t, 1200, chunks.gotLim)
}

func TestAnswerNoRankedChunks(t *testing.T) {
	docs := &fakeDocuments{indexed: testDocs()}
	chunks := &fakeChunks{chunks: testChunks()}
	svc := NewService(logger.NewNop(), docs, chunks, &llm.MockClient{}, 0)

	resp, err := svc.Answer(context.Background(), "u1", "quantum entanglement", nil, 0)
	require.NoError(t, err)
	require.Equal(t, "I could not find relevant indexed content for your question. Upload and index a PDF first.", resp.Answer)
	require.Empty(t, resp.Sources)
	require.Equal(t, llm.FallbackModel, resp.UsedModel)
}

func TestAnswerFallsBackWhenUnconfigured(t *testing.T) {
	docs := &fakeDocuments{indexed: testDocs()}
	chunks := &fakeChunks{chunks: testChunks()}
	client := &llm.MockClient{Err: llm.ErrNotConfigured}
	svc := NewService(logger.NewNop(), docs, chunks, client, 0)

	resp, err := svc.Answer(context.Background(), "u1", "cats dogs", nil, 3)
	require.NoError(t, err)
	require.Equal(t, llm.FallbackModel, resp.UsedModel)
	require.True(t, strings.HasPrefix(resp.Answer, `Based on your uploaded content, here is the most relevant context for "cats dogs":`))
	require.Contains(t, resp.Answer, "cats and dogs")
	require.NotEmpty(t, resp.Sources)
}

func TestAnswerFallsBackOnRemoteFailure(t *testing.T) {
	docs := &fakeDocuments{indexed: testDocs()}
	chunks := &fakeChunks{chunks: testChunks()}
	client := &llm.MockClient{Err: errors.New("upstream 500")}
	svc := NewService(logger.NewNop(), docs, chunks, client, 0)

	resp, err := svc.Answer(context.Background(), "u1", "cats dogs", nil, 3)
	require.NoError(t, err)
	require.Equal(t, llm.FallbackModel, resp.UsedModel)
}

func TestAnswerRestrictsToRequestedDocuments(t *testing.T) {
	docs := &fakeDocuments{indexed: testDocs()}
	chunks := &fakeChunks{chunks: testChunks()[1:2]}
	svc := NewService(logger.NewNop(), docs, chunks, &llm.MockClient{Text: "ok"}, 0)

	_, err := svc.Answer(context.Background(), "u1", "dogs", []string{"d2", "missing"}, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"d2"}, chunks.gotIDs)
}

func TestAnswerPropagatesRepoErrors(t *testing.T) {
	docs := &fakeDocuments{err: errors.New("db down")}
	svc := NewService(logger.NewNop(), docs, &fakeChunks{}, &llm.MockClient{}, 0)

	_, err := svc.Answer(context.Background(), "u1", "anything", nil, 0)
	require.Error(t, err)
}
