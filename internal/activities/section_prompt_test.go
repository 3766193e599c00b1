package activities

import (
	"fmt"
	"strings"
	"testing"

	"bookforge/internal/handbook"
	"bookforge/internal/llm"

	"github.com/stretchr/testify/require"
)

func TestSectionMessagesLimitsGrounding(t *testing.T) {
	context := make([]handbook.ContextChunk, 0, 20)
	for i := 0; i < 20; i++ {
		context = append(context, handbook.ContextChunk{
			DocumentID: "d1",
			Filename:   fmt.Sprintf("doc%d.pdf", i),
			ChunkIndex: i,
			Content:    strings.Repeat("x", 5000),
		})
	}

	msgs := sectionMessages(GenerateSectionInput{
		HandbookID:       "h1",
		Prompt:           "kafka",
		SectionTitle:     "Core Concepts and Definitions",
		SectionGoalWords: 2000,
		Context:          context,
	})
	require.Len(t, msgs, 2)
	require.Equal(t, llm.RoleSystem, msgs[0].Role)
	require.Equal(t, llm.RoleUser, msgs[1].Role)

	user := msgs[1].Content
	require.Contains(t, user, "Handbook topic: kafka")
	require.Contains(t, user, "Section: Core Concepts and Definitions")
	require.Contains(t, user, "Target words for this section: 2000")
	require.Contains(t, user, "Source 14 (doc13.pdf, chunk 13):")
	require.NotContains(t, user, "Source 15")
	require.NotContains(t, user, strings.Repeat("x", 1201))
}
