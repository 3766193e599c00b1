package workflows

import (
	"context"
	"errors"
	"testing"

	"bookforge/internal/activities"
	"bookforge/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerIngestActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "UpdateDocumentStatusActivity", func(context.Context, activities.UpdateDocumentStatusInput) error { return nil })
	registerActivityName(env, "ExtractTextActivity", func(context.Context, activities.ExtractTextInput) (activities.ExtractTextOutput, error) {
		return activities.ExtractTextOutput{}, nil
	})
	registerActivityName(env, "ChunkDocumentActivity", func(context.Context, activities.ChunkDocumentInput) (activities.ChunkDocumentOutput, error) {
		return activities.ChunkDocumentOutput{}, nil
	})
	registerActivityName(env, "ReplaceChunksActivity", func(context.Context, activities.ReplaceChunksInput) (activities.ReplaceChunksOutput, error) {
		return activities.ReplaceChunksOutput{}, nil
	})
}

func TestDocumentIngestWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentIngestWorkflow)
	registerIngestActivities(env)

	env.OnActivity("UpdateDocumentStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, activities.ExtractTextInput{StoragePath: "u1/1-doc.pdf"}).
		Return(activities.ExtractTextOutput{Text: "some body text"}, nil)
	env.OnActivity("ChunkDocumentActivity", mock.Anything, mock.Anything).
		Return(activities.ChunkDocumentOutput{Chunks: []models.DocumentChunk{
			{ChunkID: "c1", DocumentID: "d1", ChunkIndex: 0, Content: "some body text", TokenCount: 3},
		}}, nil)
	env.OnActivity("ReplaceChunksActivity", mock.Anything, mock.Anything).
		Return(activities.ReplaceChunksOutput{ChunkCount: 1}, nil)

	env.ExecuteWorkflow(DocumentIngestWorkflow, DocumentIngestInput{DocumentID: "d1", OwnerID: "u1", StoragePath: "u1/1-doc.pdf", Filename: "doc.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "indexed", out)
}

func TestDocumentIngestWorkflowNoTextFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentIngestWorkflow)
	registerIngestActivities(env)

	var statuses []activities.UpdateDocumentStatusInput
	env.OnActivity("UpdateDocumentStatusActivity", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			statuses = append(statuses, args.Get(1).(activities.UpdateDocumentStatusInput))
		}).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).
		Return(activities.ExtractTextOutput{}, errors.New("no extractable text found in PDF"))

	env.ExecuteWorkflow(DocumentIngestWorkflow, DocumentIngestInput{DocumentID: "d1", OwnerID: "u1", StoragePath: "u1/1-doc.pdf", Filename: "doc.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)

	last := statuses[len(statuses)-1]
	require.Equal(t, string(models.DocumentFailed), last.Status)
	require.Equal(t, "no extractable text found in PDF", last.FailReason)
}

func TestDocumentIngestWorkflowZeroChunksFails(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentIngestWorkflow)
	registerIngestActivities(env)

	env.OnActivity("UpdateDocumentStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).
		Return(activities.ExtractTextOutput{Text: "x"}, nil)
	env.OnActivity("ChunkDocumentActivity", mock.Anything, mock.Anything).
		Return(activities.ChunkDocumentOutput{}, nil)

	env.ExecuteWorkflow(DocumentIngestWorkflow, DocumentIngestInput{DocumentID: "d1", OwnerID: "u1", StoragePath: "u1/1-doc.pdf", Filename: "doc.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)
}

func TestDocumentIngestWorkflowStoreErrorFailsRun(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentIngestWorkflow)
	registerIngestActivities(env)

	env.OnActivity("UpdateDocumentStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).
		Return(activities.ExtractTextOutput{Text: "body"}, nil)
	env.OnActivity("ChunkDocumentActivity", mock.Anything, mock.Anything).
		Return(activities.ChunkDocumentOutput{Chunks: []models.DocumentChunk{{ChunkID: "c1", DocumentID: "d1", Content: "body", TokenCount: 1}}}, nil)
	env.OnActivity("ReplaceChunksActivity", mock.Anything, mock.Anything).
		Return(activities.ReplaceChunksOutput{}, errors.New("insert chunk: connection refused"))

	env.ExecuteWorkflow(DocumentIngestWorkflow, DocumentIngestInput{DocumentID: "d1", OwnerID: "u1", StoragePath: "u1/1-doc.pdf", Filename: "doc.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
