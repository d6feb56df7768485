package services

import (
	"context"
	"encoding/json"

	"survey-relay-service/internal/models"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderMock      = "mock"
)

// Completer sends one messages request to an LLM and returns the raw response body.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) ([]byte, error)
}

type CompletionRequest struct {
	APIKey    string           `json:"-"`
	Model     string           `json:"model,omitempty"`
	MaxTokens int              `json:"max_tokens"`
	Messages  []models.Message `json:"messages"`
	Tools     []Tool           `json:"tools,omitempty"`
}

// ContentBlock is the subset of a response content block the relay inspects.
type ContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type ToolResultBlock struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

type completionResponse struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	StopReason string          `json:"stop_reason"`
}

// toolUses decodes the content array and returns the tool_use blocks in order.
func (r completionResponse) toolUses() ([]ContentBlock, error) {
	if len(r.Content) == 0 {
		return nil, nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(r.Content, &blocks); err != nil {
		return nil, err
	}
	out := make([]ContentBlock, 0)
	for _, b := range blocks {
		if b.Type == "tool_use" {
			out = append(out, b)
		}
	}
	return out, nil
}
