package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-relay-service/internal/models"
)

func TestMockCompleter_FirstTurnRequestsSummary(t *testing.T) {
	out, err := MockCompleter{}.Complete(context.Background(), CompletionRequest{
		Messages: []models.Message{models.TextMessage("user", "hi")},
	})
	require.NoError(t, err)

	var resp completionResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "tool_use", resp.StopReason)

	calls, err := resp.toolUses()
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, SurveyQueryToolName, calls[0].Name)
	assert.True(t, strings.HasPrefix(calls[0].ID, "toolu_mock_"))
	assert.JSONEq(t, `{"queryType":"summary"}`, string(calls[0].Input))
}

func TestMockCompleter_AnswersToolResults(t *testing.T) {
	results, err := json.Marshal([]ToolResultBlock{{Type: "tool_result", ToolUseID: "t1", Content: strings.Repeat("x", 500)}})
	require.NoError(t, err)

	out, err := MockCompleter{}.Complete(context.Background(), CompletionRequest{
		Messages: []models.Message{
			models.TextMessage("user", "hi"),
			{Role: "user", Content: results},
		},
	})
	require.NoError(t, err)

	var resp struct {
		StopReason string         `json:"stop_reason"`
		Content    []ContentBlock `json:"content"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "end_turn", resp.StopReason)
	require.Len(t, resp.Content, 1)
	assert.True(t, strings.HasSuffix(resp.Content[0].Text, "..."))
}

func TestMockCompleter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := MockCompleter{}.Complete(ctx, CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
