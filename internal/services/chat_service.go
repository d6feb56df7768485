package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/logger"
	"survey-relay-service/internal/metrics"
	"survey-relay-service/internal/models"
	"survey-relay-service/internal/survey"
)

const DefaultMaxTokens = 4000

// QueryRunner executes a survey query. *survey.Engine runs in-process and
// *GatewayClient forwards to a remote query endpoint.
type QueryRunner interface {
	RunQuery(ctx context.Context, req survey.Request) (any, error)
}

// ChatService relays a conversation to the completion backend and mediates a
// single round of tool use. It never loops: a follow-up response that asks
// for more tools is returned to the caller as-is.
type ChatService struct {
	Completer Completer
	Queries   QueryRunner
	Catalog   *ToolCatalog
	MaxTokens int
	Logger    logger.Logger
}

func (c *ChatService) log() logger.Logger {
	if c.Logger == nil {
		return logger.NewNoOpLogger()
	}
	return c.Logger
}

// Chat returns the raw body of the final completion response.
func (c *ChatService) Chat(ctx context.Context, req models.ChatRequest) ([]byte, error) {
	if len(req.Messages) == 0 {
		return nil, apperrors.NewMalformedRequestError("missing required field: messages")
	}
	if c.Completer == nil {
		return nil, apperrors.NewMisconfiguredError("no completion backend configured")
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if req.MaxTokens != nil {
		if *req.MaxTokens <= 0 {
			return nil, apperrors.NewMalformedRequestError("maxTokens must be positive")
		}
		maxTokens = *req.MaxTokens
	}

	creq := CompletionRequest{
		APIKey:    req.APIKey,
		MaxTokens: maxTokens,
		Messages:  req.Messages,
		Tools:     c.Catalog.Tools(),
	}

	first, err := c.Completer.Complete(ctx, creq)
	if err != nil {
		return nil, err
	}

	var parsed completionResponse
	if err := json.Unmarshal(first, &parsed); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("decode completion response: %w", err))
	}
	calls, err := parsed.toolUses()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("decode completion content: %w", err))
	}
	if len(calls) == 0 {
		c.log().Debug("completion without tool use", map[string]interface{}{"stopReason": parsed.StopReason})
		return first, nil
	}

	c.log().Info("executing tool calls", map[string]interface{}{"count": len(calls)})
	results := c.executeTools(ctx, calls)
	resultContent, err := json.Marshal(results)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("encode tool results: %w", err))
	}

	msgs := make([]models.Message, 0, len(req.Messages)+2)
	msgs = append(msgs, req.Messages...)
	msgs = append(msgs,
		models.Message{Role: "assistant", Content: parsed.Content},
		models.Message{Role: "user", Content: resultContent},
	)
	creq.Messages = msgs

	return c.Completer.Complete(ctx, creq)
}

// executeTools runs every call concurrently. results[i] always answers calls[i].
func (c *ChatService) executeTools(ctx context.Context, calls []ContentBlock) []ToolResultBlock {
	results := make([]ToolResultBlock, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call ContentBlock) {
			defer wg.Done()
			results[i] = c.executeTool(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// executeTool never fails: errors, including panics, become error results.
func (c *ChatService) executeTool(ctx context.Context, call ContentBlock) (res ToolResultBlock) {
	res = ToolResultBlock{Type: "tool_result", ToolUseID: call.ID}
	fields := map[string]interface{}{"toolUseId": call.ID, "tool": call.Name}

	defer func() {
		if r := recover(); r != nil {
			res.Content = fmt.Sprintf("tool execution failed: %v", r)
			res.IsError = true
		}
		outcome := metrics.OutcomeOK
		if res.IsError {
			outcome = metrics.OutcomeError
			fields["error"] = res.Content
			c.log().Warn("tool call failed", fields)
		} else {
			c.log().Debug("tool call completed", fields)
		}
		metrics.RelayToolCalls.WithLabelValues(outcome).Inc()
	}()

	out, err := c.runTool(ctx, call)
	if err != nil {
		res.Content = err.Error()
		res.IsError = true
		return res
	}
	res.Content = string(out)
	return res
}

func (c *ChatService) runTool(ctx context.Context, call ContentBlock) ([]byte, error) {
	if err := c.Catalog.Validate(call.Name, call.Input); err != nil {
		return nil, err
	}
	if c.Queries == nil {
		return nil, apperrors.NewMisconfiguredError("no query runner configured")
	}

	input := call.Input
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	var q survey.Request
	if err := json.Unmarshal(input, &q); err != nil {
		return nil, apperrors.NewMalformedRequestError(fmt.Sprintf("tool input: %v", err))
	}

	out, err := c.Queries.RunQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}
