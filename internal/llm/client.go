package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FallbackModel labels answers synthesized locally when the remote model is
// unconfigured, erroring, or returned too little text.
const FallbackModel = "retrieval-fallback"

// ErrNotConfigured is a soft miss: no credential is present, so no remote
// call was attempted. Callers fall back locally without treating it as a
// failure. Any other non-nil error is a real remote failure.
var ErrNotConfigured = errors.New("remote generation client not configured")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Response struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
