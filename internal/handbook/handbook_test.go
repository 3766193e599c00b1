package handbook

import (
	"strings"
	"testing"

	"bookforge/internal/util"

	"github.com/stretchr/testify/require"
)

func TestClampTargetWords(t *testing.T) {
	require.Equal(t, DefaultTargetWords, ClampTargetWords(nil))
	require.Equal(t, MinTargetWords, ClampTargetWords(intPtr(0)))
	require.Equal(t, MinTargetWords, ClampTargetWords(intPtr(-5)))
	require.Equal(t, MinTargetWords, ClampTargetWords(intPtr(10)))
	require.Equal(t, MaxTargetWords, ClampTargetWords(intPtr(1_000_000)))
	require.Equal(t, 12345, ClampTargetWords(intPtr(12345)))
}

func intPtr(n int) *int {
	return &n
}

func TestTitleFromPrompt(t *testing.T) {
	require.Equal(t, "Generated Handbook", TitleFromPrompt("   "))
	require.Equal(t, "kafka operations", TitleFromPrompt("  kafka operations  "))

	long := strings.Repeat("a", 100)
	title := TitleFromPrompt(long)
	require.Len(t, []rune(title), 80)
	require.True(t, strings.HasSuffix(title, "..."))
	require.Equal(t, strings.Repeat("a", 77), strings.TrimSuffix(title, "..."))
}

func TestBuildOutline(t *testing.T) {
	outline := BuildOutline("stream processing")
	require.Len(t, outline, 10)
	require.Equal(t, "Introduction to stream processing", outline[0])
}

func TestSectionWordTarget(t *testing.T) {
	require.Equal(t, 2000, SectionWordTarget(20000, 10))
	require.Equal(t, 301, SectionWordTarget(3001, 10))
	require.Equal(t, 3000, SectionWordTarget(3000, 0))
}

func TestBuildFallbackSectionMeetsFloor(t *testing.T) {
	context := []ContextChunk{
		{DocumentID: "d1", Filename: "a.pdf", ChunkIndex: 0, Content: strings.Repeat("alpha ", 200)},
		{DocumentID: "d2", Filename: "b.pdf", ChunkIndex: 3, Content: "beta gamma"},
	}
	section := BuildFallbackSection("Core Concepts", 100, context)
	require.True(t, strings.HasPrefix(section, "## Core Concepts"))
	require.Contains(t, section, "a.pdf")
	require.Contains(t, section, "b.pdf")
	// Floor of 500 words with 140 counted per paragraph means at least 4 paragraphs.
	require.GreaterOrEqual(t, strings.Count(section, "This section explains"), 4)
	require.GreaterOrEqual(t, util.CountWords(section), 100)
}

func TestBuildFallbackSectionEmptyContext(t *testing.T) {
	require.Equal(t, "## Anything", BuildFallbackSection("Anything", 1000, nil))
}

func TestAssembleDocument(t *testing.T) {
	doc := AssembleDocument("Title", "the prompt", []string{"## S1\n\nbody", "## S2\n\nbody"})
	require.True(t, strings.HasPrefix(doc, "# Title\n\nGenerated from uploaded documents for prompt: the prompt\n\n## S1"))
	require.Contains(t, doc, "## S2")
}
