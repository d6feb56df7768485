package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/config"
	"survey-relay-service/internal/handlers"
	"survey-relay-service/internal/logger"
	"survey-relay-service/internal/models"
	"survey-relay-service/internal/services"
	"survey-relay-service/internal/survey"
)

type failingCompleter struct{ err error }

func (f failingCompleter) Complete(ctx context.Context, req services.CompletionRequest) ([]byte, error) {
	return nil, f.err
}

func newTestRouter(t *testing.T, cfg config.Config, completer services.Completer) http.Handler {
	t.Helper()
	ds, err := survey.Bundled()
	require.NoError(t, err)
	engine := survey.NewEngine(ds)
	catalog, err := services.DefaultToolCatalog()
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	chat := &handlers.ChatHandlers{
		Chat: &services.ChatService{
			Completer: completer,
			Queries:   engine,
			Catalog:   catalog,
			Logger:    log,
		},
		Logger: log,
	}
	return NewRouter(cfg, log, chat, &handlers.QueryHandlers{Engine: engine})
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, config.Config{}, services.MockCompleter{})
	rec := do(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(t, config.Config{}, services.MockCompleter{})
	_ = do(h, http.MethodGet, "/health", "", nil)
	rec := do(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouter_Preflight(t *testing.T) {
	h := newTestRouter(t, config.Config{CORSAllowedOrigins: "*"}, services.MockCompleter{})
	for _, path := range []string{"/claude-proxy", "/survey-query"} {
		rec := do(h, http.MethodOptions, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, config.Config{}, services.MockCompleter{})
	for _, path := range []string{"/claude-proxy", "/survey-query"} {
		rec := do(h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
	}
}

func TestRouter_SurveyQuery(t *testing.T) {
	h := newTestRouter(t, config.Config{}, services.MockCompleter{})

	rec := do(h, http.MethodPost, "/survey-query", `{"queryType":"summary"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary survey.SummaryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 24, summary.TotalResponses)
	assert.Equal(t, 8, summary.ColumnCount)

	rec = do(h, http.MethodPost, "/survey-query", `{"queryType":"filter","limit":3}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered survey.FilterResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	assert.Len(t, filtered.Data, 3)
	assert.Equal(t, 24, filtered.TotalCount)
}

func TestRouter_SurveyQueryErrors(t *testing.T) {
	h := newTestRouter(t, config.Config{}, services.MockCompleter{})

	tests := []struct {
		name string
		body string
		code apperrors.ErrorCode
	}{
		{"invalid json", `{`, apperrors.ErrCodeMalformedRequest},
		{"unknown query type", `{"queryType":"drop"}`, apperrors.ErrCodeInvalidQuery},
		{"stats without columns", `{"queryType":"stats"}`, apperrors.ErrCodeMalformedRequest},
		{"negative limit", `{"queryType":"filter","limit":-1}`, apperrors.ErrCodeMalformedRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/survey-query", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRouter_ClaudeProxyMock(t *testing.T) {
	h := newTestRouter(t, config.Config{}, services.MockCompleter{})

	rec := do(h, http.MethodPost, "/claude-proxy", `{"messages":[{"role":"user","content":"How many responses?"}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		StopReason string `json:"stop_reason"`
		Content    []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "end_turn", resp.StopReason)
	require.Len(t, resp.Content, 1)
	assert.Contains(t, resp.Content[0].Text, `"totalResponses":24`)
}

func TestRouter_ClaudeProxyErrors(t *testing.T) {
	t.Run("missing messages", func(t *testing.T) {
		h := newTestRouter(t, config.Config{}, services.MockCompleter{})
		rec := do(h, http.MethodPost, "/claude-proxy", `{"messages":[]}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		h := newTestRouter(t, config.Config{}, services.MockCompleter{})
		rec := do(h, http.MethodPost, "/claude-proxy", `nope`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream status is propagated", func(t *testing.T) {
		upstream := apperrors.NewUpstreamError("Anthropic", http.StatusUnauthorized, `{"error":"bad key"}`)
		h := newTestRouter(t, config.Config{}, failingCompleter{err: upstream})

		rec := do(h, http.MethodPost, "/claude-proxy", `{"messages":[{"role":"user","content":"hi"}]}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Anthropic API error", resp.Error)
		assert.Equal(t, `{"error":"bad key"}`, resp.Details)
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
	})

	t.Run("missing credential", func(t *testing.T) {
		h := newTestRouter(t, config.Config{}, &services.AnthropicClient{BaseURL: "http://127.0.0.1:1"})
		rec := do(h, http.MethodPost, "/claude-proxy", `{"messages":[{"role":"user","content":"hi"}]}`, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(apperrors.ErrCodeMisconfigured), resp.Code)
		assert.Zero(t, resp.Status)
	})
}

func TestRouter_APIKey(t *testing.T) {
	cfg := config.Config{AgentAPIKeys: map[string]struct{}{"secret": {}}}
	h := newTestRouter(t, cfg, services.MockCompleter{})
	body := `{"queryType":"summary"}`

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/survey-query", body, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodPost, "/survey-query", body, map[string]string{"X-API-Key": "wrong"}).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/survey-query", body, map[string]string{"X-API-Key": "secret"}).Code)

	// health and preflight stay open
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodOptions, "/survey-query", "", nil).Code)
}
