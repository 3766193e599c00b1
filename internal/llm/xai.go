package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// XAIClient talks to an OpenAI-compatible chat completions endpoint.
type XAIClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewXAIClient(apiKey, baseURL, model string) *XAIClient {
	if baseURL == "" {
		baseURL = "https://api.x.ai/v1"
	}
	if model == "" {
		model = "grok-4-latest"
	}
	return &XAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (x *XAIClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	if x.apiKey == "" {
		return Response{}, ErrNotConfigured
	}
	payload, err := json.Marshal(map[string]any{
		"model":       x.model,
		"temperature": 0.2,
		"messages":    messages,
	})
	if err != nil {
		return Response{}, fmt.Errorf("encode chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+x.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("chat request failed (%d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Response{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Response{}, fmt.Errorf("chat response contained no choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return Response{}, fmt.Errorf("chat response did not include message content")
	}
	return Response{Text: text, Model: x.model}, nil
}
