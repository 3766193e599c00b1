package util

import (
	"strings"
	"testing"
)

func TestChunkTextReassemblesInput(t *testing.T) {
	text := "  the quick\nbrown   fox jumps\tover the lazy dog  "
	chunks := ChunkText(text, 10)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("expected index %d, got %d", i, c.Index)
		}
		if c.TokenCount != len(strings.Fields(c.Content)) {
			t.Fatalf("token count mismatch for chunk %d", i)
		}
		parts = append(parts, c.Content)
	}
	want := strings.Join(strings.Fields(text), " ")
	if got := strings.Join(parts, " "); got != want {
		t.Fatalf("reassembled text mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestChunkTextNeverSplitsWords(t *testing.T) {
	chunks := ChunkText("alpha beta gamma delta", 7)
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Content) {
			switch w {
			case "alpha", "beta", "gamma", "delta":
			default:
				t.Fatalf("unexpected word fragment %q", w)
			}
		}
	}
}

func TestChunkTextLongWordGetsOwnChunk(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := ChunkText("short "+long+" tail", 10)
	found := false
	for _, c := range chunks {
		if c.Content == long {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the oversized word as its own chunk")
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	if chunks := ChunkText("   \n\t ", 100); chunks != nil {
		t.Fatalf("expected nil for blank input, got %d chunks", len(chunks))
	}
}
