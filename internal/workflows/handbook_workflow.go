package workflows

import (
	"time"

	"bookforge/internal/activities"
	"bookforge/internal/handbook"
	"bookforge/internal/models"
	"bookforge/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetHandbookProgress = "GetHandbookProgress"

// HandbookBuildWorkflow drives long-form generation for one handbook:
// load grounding chunks, generate the ten outline sections in order, then
// assemble and persist the result. Each section either carries accepted
// remote text or a deterministic local fallback, so the workflow completes
// whenever grounding content exists at all.
func HandbookBuildWorkflow(ctx workflow.Context, input HandbookBuildInput) (string, error) {
	outline := handbook.BuildOutline(input.Prompt)
	progress := HandbookProgress{
		HandbookID:    input.HandbookID,
		Status:        "processing",
		TotalSections: len(outline),
		SectionStatus: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetHandbookProgress, func() (HandbookProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	markFailed := func(message string) {
		progress.Status = "failed"
		progress.FailureReported = message
		_ = workflow.ExecuteActivity(ctx, "FailHandbookActivity", activities.FailHandbookInput{
			HandbookID:   input.HandbookID,
			ErrorMessage: message,
		}).Get(ctx, nil)
	}

	if err := workflow.ExecuteActivity(ctx, "UpdateHandbookStatusActivity", activities.UpdateHandbookStatusInput{
		HandbookID: input.HandbookID,
		Status:     string(models.HandbookProcessing),
	}).Get(ctx, nil); err != nil {
		return "", err
	}

	var contextOut activities.LoadHandbookContextOutput
	if err := workflow.ExecuteActivity(ctx, "LoadHandbookContextActivity", activities.LoadHandbookContextInput{
		OwnerID:           input.OwnerID,
		SourceDocumentIDs: input.SourceDocumentIDs,
	}).Get(ctx, &contextOut); err != nil {
		markFailed("loading handbook context failed")
		return "", err
	}
	if len(contextOut.Chunks) == 0 {
		markFailed("No indexed document content found for handbook generation.")
		return progress.Status, nil
	}
	progress.ContextChunks = len(contextOut.Chunks)

	sectionTarget := handbook.SectionWordTarget(input.TargetWords, len(outline))
	sections := make([]string, 0, len(outline))
	for _, sectionTitle := range outline {
		progress.SectionStatus[sectionTitle] = "generating"
		var genOut activities.GenerateSectionOutput
		if err := workflow.ExecuteActivity(ctx, "GenerateSectionActivity", activities.GenerateSectionInput{
			HandbookID:       input.HandbookID,
			Prompt:           input.Prompt,
			SectionTitle:     sectionTitle,
			SectionGoalWords: sectionTarget,
			Context:          contextOut.Chunks,
		}).Get(ctx, &genOut); err != nil {
			progress.SectionStatus[sectionTitle] = "failed"
			markFailed("section generation failed: " + sectionTitle)
			return "", err
		}
		if genOut.Fallback {
			progress.FallbackCount++
			progress.SectionStatus[sectionTitle] = "fallback"
		} else {
			progress.SectionStatus[sectionTitle] = "done"
		}
		progress.DoneSections++
		sections = append(sections, genOut.Text)
	}

	content := handbook.AssembleDocument(input.Title, input.Prompt, sections)
	progress.AssembledWords = util.CountWords(content)
	if err := workflow.ExecuteActivity(ctx, "CompleteHandbookActivity", activities.CompleteHandbookInput{
		HandbookID:     input.HandbookID,
		Content:        content,
		GeneratedWords: progress.AssembledWords,
	}).Get(ctx, nil); err != nil {
		markFailed("persisting generated handbook failed")
		return "", err
	}
	progress.Status = string(models.HandbookCompleted)
	return progress.Status, nil
}
