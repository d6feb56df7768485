package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"survey-relay-service/internal/metrics"
)

// MockCompleter answers without calling an LLM: the first turn asks for a
// survey summary, and once tool results are present it replies in text.
type MockCompleter struct{}

func (MockCompleter) Complete(ctx context.Context, req CompletionRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.RelayCompletions.WithLabelValues(ProviderMock, metrics.OutcomeOK).Inc()

	if results := lastToolResults(req); len(results) > 0 {
		parts := make([]string, 0, len(results))
		for _, r := range results {
			parts = append(parts, clipString(r.Content, 400))
		}
		return mockMessage("end_turn", []map[string]any{{
			"type": "text",
			"text": "Survey data (mock mode): " + strings.Join(parts, "\n"),
		}})
	}

	return mockMessage("tool_use", []map[string]any{
		{"type": "text", "text": "Let me look at the survey data."},
		{
			"type":  "tool_use",
			"id":    "toolu_mock_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			"name":  SurveyQueryToolName,
			"input": map[string]any{"queryType": "summary"},
		},
	})
}

func mockMessage(stopReason string, content []map[string]any) ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":          "msg_mock_" + uuid.NewString(),
		"type":        "message",
		"role":        "assistant",
		"model":       ProviderMock,
		"content":     content,
		"stop_reason": stopReason,
	})
}

func lastToolResults(req CompletionRequest) []ToolResultBlock {
	if len(req.Messages) == 0 {
		return nil
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" {
		return nil
	}
	var blocks []ToolResultBlock
	if err := json.Unmarshal(last.Content, &blocks); err != nil {
		return nil
	}
	out := make([]ToolResultBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "tool_result" {
			out = append(out, b)
		}
	}
	return out
}

func clipString(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
