package workflows

import (
	"context"
	"strings"
	"testing"

	"bookforge/internal/activities"
	"bookforge/internal/handbook"
	"bookforge/internal/llm"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

func registerHandbookActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "UpdateHandbookStatusActivity", func(context.Context, activities.UpdateHandbookStatusInput) error { return nil })
	registerActivityName(env, "LoadHandbookContextActivity", func(context.Context, activities.LoadHandbookContextInput) (activities.LoadHandbookContextOutput, error) {
		return activities.LoadHandbookContextOutput{}, nil
	})
	registerActivityName(env, "GenerateSectionActivity", func(context.Context, activities.GenerateSectionInput) (activities.GenerateSectionOutput, error) {
		return activities.GenerateSectionOutput{}, nil
	})
	registerActivityName(env, "CompleteHandbookActivity", func(context.Context, activities.CompleteHandbookInput) error { return nil })
	registerActivityName(env, "FailHandbookActivity", func(context.Context, activities.FailHandbookInput) error { return nil })
}

func testContextChunks() []handbook.ContextChunk {
	return []handbook.ContextChunk{
		{DocumentID: "d1", Filename: "guide.pdf", ChunkIndex: 0, Content: "distributed systems need retries and backoff"},
		{DocumentID: "d1", Filename: "guide.pdf", ChunkIndex: 1, Content: "timeouts bound tail latency"},
	}
}

func TestHandbookBuildWorkflowCompletes(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(HandbookBuildWorkflow)
	registerHandbookActivities(env)

	env.OnActivity("UpdateHandbookStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LoadHandbookContextActivity", mock.Anything, mock.Anything).
		Return(activities.LoadHandbookContextOutput{Chunks: testContextChunks()}, nil)
	env.OnActivity("GenerateSectionActivity", mock.Anything, mock.Anything).
		Return(func(_ context.Context, in activities.GenerateSectionInput) (activities.GenerateSectionOutput, error) {
			return activities.GenerateSectionOutput{Text: "## " + in.SectionTitle + "\n\nremote section text", Model: "grok-4-latest"}, nil
		})

	var completed activities.CompleteHandbookInput
	env.OnActivity("CompleteHandbookActivity", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			completed = args.Get(1).(activities.CompleteHandbookInput)
		}).Return(nil)

	env.ExecuteWorkflow(HandbookBuildWorkflow, HandbookBuildInput{
		HandbookID:  "h1",
		OwnerID:     "u1",
		Title:       "Retries",
		Prompt:      "retries in distributed systems",
		TargetWords: 3000,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out)

	require.Equal(t, "h1", completed.HandbookID)
	require.True(t, strings.HasPrefix(completed.Content, "# Retries\n"))
	require.Contains(t, completed.Content, "Generated from uploaded documents for prompt: retries in distributed systems")
	for _, title := range handbook.BuildOutline("retries in distributed systems") {
		require.Contains(t, completed.Content, "## "+title)
	}
	require.Positive(t, completed.GeneratedWords)
}

func TestHandbookBuildWorkflowNoContextFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(HandbookBuildWorkflow)
	registerHandbookActivities(env)

	env.OnActivity("UpdateHandbookStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LoadHandbookContextActivity", mock.Anything, mock.Anything).
		Return(activities.LoadHandbookContextOutput{}, nil)

	var failed activities.FailHandbookInput
	env.OnActivity("FailHandbookActivity", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			failed = args.Get(1).(activities.FailHandbookInput)
		}).Return(nil)

	env.ExecuteWorkflow(HandbookBuildWorkflow, HandbookBuildInput{HandbookID: "h1", OwnerID: "u1", Title: "T", Prompt: "p", TargetWords: 3000})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)
	require.Equal(t, "No indexed document content found for handbook generation.", failed.ErrorMessage)
}

func TestHandbookBuildWorkflowFallbackSectionsStillComplete(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(HandbookBuildWorkflow)
	registerHandbookActivities(env)

	env.OnActivity("UpdateHandbookStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LoadHandbookContextActivity", mock.Anything, mock.Anything).
		Return(activities.LoadHandbookContextOutput{Chunks: testContextChunks()}, nil)
	env.OnActivity("GenerateSectionActivity", mock.Anything, mock.Anything).
		Return(func(_ context.Context, in activities.GenerateSectionInput) (activities.GenerateSectionOutput, error) {
			return activities.GenerateSectionOutput{
				Text:     handbook.BuildFallbackSection(in.SectionTitle, in.SectionGoalWords, in.Context),
				Model:    llm.FallbackModel,
				Fallback: true,
			}, nil
		})
	env.OnActivity("CompleteHandbookActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(HandbookBuildWorkflow, HandbookBuildInput{HandbookID: "h1", OwnerID: "u1", Title: "T", Prompt: "p", TargetWords: 5000})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out)
}
