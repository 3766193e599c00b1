package llm

import (
	"context"
	"strings"
)

// MockClient returns deterministic text for tests and keyless local runs.
type MockClient struct {
	// Text overrides the canned reply when non-empty.
	Text string
	// Err is returned as-is when non-nil.
	Err error
}

func (m *MockClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	_ = ctx
	if m.Err != nil {
		return Response{}, m.Err
	}
	if m.Text != "" {
		return Response{Text: m.Text, Model: "mock-llm-v1"}, nil
	}
	var last string
	for _, msg := range messages {
		if msg.Role == RoleUser {
			last = msg.Content
		}
	}
	b := strings.Builder{}
	b.WriteString("Deterministic mock reply.")
	if last != "" {
		b.WriteString(" Request was: ")
		b.WriteString(firstLine(last))
	}
	return Response{Text: b.String(), Model: "mock-llm-v1"}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
