package workflows

import (
	"strings"
	"time"

	"bookforge/internal/activities"
	"bookforge/internal/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetIngestProgress = "GetIngestProgress"

// DocumentIngestWorkflow extracts, chunks, and stores the text of one
// uploaded PDF. Documents with no extractable text are marked failed and the
// workflow finishes cleanly; infrastructure errors keep the document in its
// last recorded state and fail the run.
func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (string, error) {
	progress := IngestProgress{DocumentID: input.DocumentID, CurrentStep: "init", Status: "processing"}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestProgress, func() (IngestProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	markFailed := func(reason string) {
		progress.Status = "failed"
		progress.FailReason = reason
		_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
			DocumentID: input.DocumentID,
			Status:     string(models.DocumentFailed),
			FailReason: reason,
		}).Get(ctx, nil)
	}

	if err := workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocumentID: input.DocumentID,
		Status:     string(models.DocumentProcessing),
	}).Get(ctx, nil); err != nil {
		return "", err
	}

	progress.CurrentStep = "extract_text"
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{
		StoragePath: input.StoragePath,
	}).Get(ctx, &textOut); err != nil {
		if isNoTextError(err) {
			markFailed("no extractable text found in PDF")
			return progress.Status, nil
		}
		markFailed("text extraction failed")
		return "", err
	}

	progress.CurrentStep = "chunk_text"
	var chunkOut activities.ChunkDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkDocumentActivity", activities.ChunkDocumentInput{
		DocumentID: input.DocumentID,
		Text:       textOut.Text,
	}).Get(ctx, &chunkOut); err != nil {
		markFailed("chunking failed")
		return "", err
	}
	if len(chunkOut.Chunks) == 0 {
		markFailed("no extractable text found in PDF")
		return progress.Status, nil
	}
	progress.ChunkCount = len(chunkOut.Chunks)

	progress.CurrentStep = "store_chunks"
	if err := workflow.ExecuteActivity(ctx, "ReplaceChunksActivity", activities.ReplaceChunksInput{
		DocumentID: input.DocumentID,
		Chunks:     chunkOut.Chunks,
	}).Get(ctx, nil); err != nil {
		markFailed("storing chunks failed")
		return "", err
	}

	progress.CurrentStep = "mark_indexed"
	if err := workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocumentID: input.DocumentID,
		Status:     string(models.DocumentIndexed),
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	progress.CurrentStep = "done"
	progress.Status = string(models.DocumentIndexed)
	return progress.Status, nil
}

func isNoTextError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}
