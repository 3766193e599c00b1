package util

import (
	"strings"
	"testing"
)

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestDisplaySnippetCollapsesWhitespaceAndCaps(t *testing.T) {
	in := "Hello\x00   world \n\t again"
	out := DisplaySnippet(in, 100)
	if !strings.Contains(out, "Hello world") {
		t.Fatalf("unexpected snippet: %q", out)
	}

	long := strings.Repeat("word ", 200)
	capped := DisplaySnippet(long, 40)
	if len([]rune(capped)) > 43 { // content plus ellipsis
		t.Fatalf("snippet not capped: %d runes", len([]rune(capped)))
	}
	if !strings.HasSuffix(capped, "...") {
		t.Fatalf("expected ellipsis on capped snippet: %q", capped)
	}
}

func TestCountWords(t *testing.T) {
	if n := CountWords("  one two\nthree "); n != 3 {
		t.Fatalf("expected 3 words, got %d", n)
	}
	if n := CountWords(""); n != 0 {
		t.Fatalf("expected 0 words, got %d", n)
	}
}

func TestFirstWords(t *testing.T) {
	if got := FirstWords("a b c d", 2); got != "a b" {
		t.Fatalf("unexpected FirstWords: %q", got)
	}
	if got := FirstWords("a b", 10); got != "a b" {
		t.Fatalf("unexpected FirstWords: %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateRunes("ok", 10); got != "ok" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
