package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/metrics"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicVersion = "2023-06-01"
	DefaultAnthropicModel   = "claude-3-5-sonnet-20241022"
)

type AnthropicClient struct {
	APIKey  string
	Model   string
	BaseURL string
	Version string
	HTTP    *http.Client
}

func (c *AnthropicClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *AnthropicClient) endpoint() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultAnthropicBaseURL
	}
	return base + "/v1/messages"
}

// Complete posts req to the messages endpoint. A per-request APIKey wins over
// the client's key; with neither the call fails as misconfigured.
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) ([]byte, error) {
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		key = strings.TrimSpace(c.APIKey)
	}
	if key == "" {
		return nil, apperrors.NewMisconfiguredError("missing ANTHROPIC_API_KEY")
	}
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.Model == "" {
		req.Model = DefaultAnthropicModel
	}
	version := c.Version
	if version == "" {
		version = DefaultAnthropicVersion
	}

	buf, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-api-key", key)
	httpReq.Header.Set("anthropic-version", version)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient().Do(httpReq)
	metrics.RelayCompletionDuration.WithLabelValues(ProviderAnthropic).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RelayCompletions.WithLabelValues(ProviderAnthropic, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RelayCompletions.WithLabelValues(ProviderAnthropic, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("anthropic read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RelayCompletions.WithLabelValues(ProviderAnthropic, metrics.OutcomeError).Inc()
		return nil, apperrors.NewUpstreamError("Anthropic", resp.StatusCode, string(body))
	}
	metrics.RelayCompletions.WithLabelValues(ProviderAnthropic, metrics.OutcomeOK).Inc()
	return body, nil
}
