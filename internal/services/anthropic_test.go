package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/models"
)

func TestAnthropicClient_Complete(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		gotHeaders = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(textResponse))
	}))
	defer srv.Close()

	c := &AnthropicClient{APIKey: "sk-server", BaseURL: srv.URL + "/", HTTP: srv.Client()}
	out, err := c.Complete(context.Background(), CompletionRequest{
		MaxTokens: 100,
		Messages:  []models.Message{models.TextMessage("user", "hi")},
		Tools:     []Tool{SurveyQueryTool()},
	})
	require.NoError(t, err)
	assert.Equal(t, textResponse, string(out))

	assert.Equal(t, "sk-server", gotHeaders.Get("x-api-key"))
	assert.Equal(t, DefaultAnthropicVersion, gotHeaders.Get("anthropic-version"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))

	assert.Equal(t, DefaultAnthropicModel, gotBody["model"])
	assert.EqualValues(t, 100, gotBody["max_tokens"])
	assert.NotContains(t, gotBody, "APIKey")
	tools, ok := gotBody["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	assert.Equal(t, SurveyQueryToolName, tools[0].(map[string]any)["name"])
}

func TestAnthropicClient_RequestKeyWins(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		_, _ = w.Write([]byte(textResponse))
	}))
	defer srv.Close()

	c := &AnthropicClient{APIKey: "sk-server", BaseURL: srv.URL, Model: "claude-test", HTTP: srv.Client()}
	_, err := c.Complete(context.Background(), CompletionRequest{APIKey: "sk-caller", MaxTokens: 1})
	require.NoError(t, err)
	assert.Equal(t, "sk-caller", gotKey)
}

func TestAnthropicClient_MissingKey(t *testing.T) {
	c := &AnthropicClient{BaseURL: "http://127.0.0.1:1"}
	_, err := c.Complete(context.Background(), CompletionRequest{MaxTokens: 1})
	require.Error(t, err)
	se := apperrors.As(err)
	assert.Equal(t, apperrors.ErrCodeMisconfigured, se.Code)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}

func TestAnthropicClient_UpstreamError(t *testing.T) {
	const body = `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := &AnthropicClient{APIKey: "sk", BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.Complete(context.Background(), CompletionRequest{MaxTokens: 1})
	require.Error(t, err)

	se := apperrors.As(err)
	assert.Equal(t, apperrors.ErrCodeUpstream, se.Code)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.Equal(t, "Anthropic API error", se.Message)
	assert.Equal(t, body, se.Details)
}
