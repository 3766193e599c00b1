// Package retrieval ranks already-fetched document chunks against a query
// by lexical token overlap. It is a coarse recall filter bounding context
// size, not the source of answer quality.
package retrieval

import (
	"sort"
	"strings"

	"bookforge/internal/models"
)

const (
	DefaultTopK = 6
	MaxTopK     = 12
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "to": {}, "was": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "who": {}, "why": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize lowercases, strips non-alphanumerics and splits the input into
// tokens longer than two characters with stop-words removed. Duplicate
// tokens are kept so repeated query terms weigh more in scoring.
func Tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	fields := strings.Fields(b.String())
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Score counts query tokens appearing as substrings of the lowercased
// content. An empty token list scores zero.
func Score(content string, queryTokens []string) int {
	if len(queryTokens) == 0 {
		return 0
	}
	text := strings.ToLower(content)
	score := 0
	for _, tok := range queryTokens {
		if strings.Contains(text, tok) {
			score++
		}
	}
	return score
}

// SelectTopK scores chunks against queryTokens, discards zero scores, and
// returns at most clamp(k, 1, MaxTopK) chunks ordered by descending score.
// Ties keep the caller-supplied order. k <= 0 selects DefaultTopK.
func SelectTopK(chunks []models.DocumentChunk, queryTokens []string, k int) []models.DocumentChunk {
	if k <= 0 {
		k = DefaultTopK
	}
	if k > MaxTopK {
		k = MaxTopK
	}

	type scored struct {
		chunk models.DocumentChunk
		score int
	}
	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		s := Score(c.Content, queryTokens)
		if s == 0 {
			continue
		}
		ranked = append(ranked, scored{chunk: c, score: s})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]models.DocumentChunk, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.chunk)
	}
	return out
}
