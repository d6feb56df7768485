package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/logger"
	"survey-relay-service/internal/models"
	"survey-relay-service/internal/survey"
)

const DefaultQueryPath = "/survey-query"

// GatewayClient runs survey queries against a remote query endpoint.
type GatewayClient struct {
	BaseURL   string
	QueryPath string
	APIKey    string
	HTTP      *http.Client
	Logger    logger.Logger
}

func (c *GatewayClient) log() logger.Logger {
	if c.Logger == nil {
		return logger.NewNoOpLogger()
	}
	return c.Logger
}

func (c *GatewayClient) buildURL(path string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return "", errors.New("query engine base url is empty")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path, nil
}

func (c *GatewayClient) DoJSON(ctx context.Context, method, path string, body any) (int, []byte, error) {
	u, err := c.buildURL(path)
	if err != nil {
		return 0, nil, err
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	c.log().Debug("gateway request", map[string]interface{}{"method": method, "url": u})

	var rbody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rbody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rbody)
	if err != nil {
		return 0, nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		c.log().Debug("gateway request failed", map[string]interface{}{"method": method, "url": u, "error": err.Error()})
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	c.log().Debug("gateway response", map[string]interface{}{"method": method, "url": u, "status": resp.StatusCode, "bytes": len(b)})
	return resp.StatusCode, b, nil
}

// RunQuery forwards req to the remote engine and returns its JSON body as-is.
func (c *GatewayClient) RunQuery(ctx context.Context, req survey.Request) (any, error) {
	path := c.QueryPath
	if path == "" {
		path = DefaultQueryPath
	}
	status, body, err := c.DoJSON(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		msg := strings.TrimSpace(string(body))
		var env models.ErrorResponse
		if json.Unmarshal(body, &env) == nil && env.Error != "" {
			msg = env.Error
		}
		return nil, apperrors.NewUpstreamError("Query engine", status, msg)
	}
	if !json.Valid(body) {
		return nil, errors.New("query engine returned invalid json")
	}
	return json.RawMessage(body), nil
}
