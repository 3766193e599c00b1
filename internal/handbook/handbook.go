// Package handbook holds the deterministic parts of long-form generation:
// the fixed outline, word budgeting, and local fallback synthesis.
package handbook

import (
	"fmt"
	"strings"

	"bookforge/internal/util"
)

const (
	DefaultTargetWords = 20000
	MinTargetWords     = 3000
	MaxTargetWords     = 30000

	// Fallback paragraphs quote up to fallbackQuoteWords words per source
	// chunk and count fallbackParagraphWords words against the remaining
	// budget, so the loop always terminates.
	fallbackQuoteWords     = 160
	fallbackParagraphWords = 140
	fallbackFloorWords     = 500

	maxTitleRunes = 80
)

// ContextChunk is one grounding unit for section generation: a chunk of an
// indexed document together with the filename used for citation.
type ContextChunk struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
}

// ClampTargetWords bounds a requested total word count to
// [MinTargetWords, MaxTargetWords]. A nil request takes the default; an
// explicit non-positive value clamps to the minimum.
func ClampTargetWords(requested *int) int {
	n := DefaultTargetWords
	if requested != nil {
		n = *requested
	}
	if n < MinTargetWords {
		return MinTargetWords
	}
	if n > MaxTargetWords {
		return MaxTargetWords
	}
	return n
}

// TitleFromPrompt derives a display title from the prompt, capped at 80
// runes with an ellipsis.
func TitleFromPrompt(prompt string) string {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "Generated Handbook"
	}
	runes := []rune(trimmed)
	if len(runes) > maxTitleRunes {
		return string(runes[:maxTitleRunes-3]) + "..."
	}
	return trimmed
}

// BuildOutline returns the fixed ten-section outline; only the first section
// interpolates the user's prompt.
func BuildOutline(prompt string) []string {
	return []string{
		"Introduction to " + prompt,
		"Core Concepts and Definitions",
		"Architectural Foundations",
		"Implementation Patterns and Workflows",
		"Operational Practices and Observability",
		"Quality, Safety, and Reliability",
		"Case Studies and Practical Scenarios",
		"Advanced Techniques and Tradeoffs",
		"Common Failure Modes and Debugging",
		"Reference Checklist and Next Steps",
	}
}

// SectionWordTarget is the integer ceiling of targetWords over the outline
// length.
func SectionWordTarget(targetWords, outlineLen int) int {
	if outlineLen <= 0 {
		return targetWords
	}
	return (targetWords + outlineLen - 1) / outlineLen
}

// BuildFallbackSection deterministically synthesizes a section from the
// grounding chunks, cycling through them and naming each source, until the
// word floor for the section is met.
func BuildFallbackSection(sectionTitle string, sectionGoalWords int, context []ContextChunk) string {
	lines := []string{"## " + sectionTitle}
	if len(context) == 0 {
		return lines[0]
	}
	remaining := sectionGoalWords
	if remaining < fallbackFloorWords {
		remaining = fallbackFloorWords
	}
	idx := 0
	for remaining > 0 {
		source := context[idx%len(context)]
		quote := util.FirstWords(source.Content, fallbackQuoteWords)
		lines = append(lines, fmt.Sprintf(
			"This section explains %s using the uploaded material as the grounding source. "+
				"From %s (chunk %d), the key takeaway is: %s. "+
				"In practice, teams should convert these ideas into explicit requirements, design constraints, review criteria, and repeatable runbooks.",
			strings.ToLower(sectionTitle), source.Filename, source.ChunkIndex, quote,
		))
		remaining -= fallbackParagraphWords
		idx++
	}
	return strings.Join(lines, "\n\n")
}

// AssembleDocument joins the title line, a provenance line naming the
// prompt, and the generated sections in outline order.
func AssembleDocument(title, prompt string, sections []string) string {
	parts := make([]string, 0, len(sections)+4)
	parts = append(parts,
		"# "+title,
		"",
		"Generated from uploaded documents for prompt: "+prompt,
		"",
	)
	parts = append(parts, sections...)
	return strings.Join(parts, "\n")
}
