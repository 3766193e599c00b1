package util

import "strings"

type TextChunk struct {
	Index      int    `json:"index"`
	Content    string `json:"content"`
	TokenCount int    `json:"token_count"`
}

// ChunkText splits text into word-aligned chunks of at most maxChars
// characters each. Words are never split; a single word longer than the
// budget becomes its own chunk. Joining the chunk contents with a single
// space reproduces the whitespace-normalized input.
func ChunkText(text string, maxChars int) []TextChunk {
	if maxChars <= 0 {
		maxChars = 1200
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	out := make([]TextChunk, 0, len(words)/128+1)
	var b strings.Builder
	count := 0
	flush := func() {
		if count == 0 {
			return
		}
		out = append(out, TextChunk{
			Index:      len(out),
			Content:    b.String(),
			TokenCount: count,
		})
		b.Reset()
		count = 0
	}
	for _, w := range words {
		need := len(w)
		if count > 0 {
			need += b.Len() + 1
		}
		if count > 0 && need > maxChars {
			flush()
		}
		if count > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		count++
	}
	flush()
	return out
}
