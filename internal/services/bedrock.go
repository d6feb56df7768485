package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/metrics"
	"survey-relay-service/internal/models"
)

const (
	DefaultBedrockModelID   = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	bedrockAnthropicVersion = "bedrock-2023-05-31"
)

// BedrockInvoker is the part of the bedrockruntime client the relay uses.
type BedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient runs Claude through AWS Bedrock. The response body has the
// same shape as the Anthropic messages API.
type BedrockClient struct {
	Runtime BedrockInvoker
	ModelID string
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []models.Message `json:"messages"`
	Tools            []Tool           `json:"tools,omitempty"`
}

func NewBedrockClient(ctx context.Context, region, modelID string) (*BedrockClient, error) {
	opts := make([]func(*awsconfig.LoadOptions) error, 0, 1)
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if modelID == "" {
		modelID = DefaultBedrockModelID
	}
	return &BedrockClient{Runtime: bedrockruntime.NewFromConfig(cfg), ModelID: modelID}, nil
}

func (c *BedrockClient) Complete(ctx context.Context, req CompletionRequest) ([]byte, error) {
	if c.Runtime == nil {
		return nil, apperrors.NewMisconfiguredError("bedrock runtime client not configured")
	}
	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        req.MaxTokens,
		Messages:         req.Messages,
		Tools:            req.Tools,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock encode request: %w", err)
	}

	start := time.Now()
	out, err := c.Runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	metrics.RelayCompletionDuration.WithLabelValues(ProviderBedrock).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RelayCompletions.WithLabelValues(ProviderBedrock, metrics.OutcomeError).Inc()
		var re *awshttp.ResponseError
		if errors.As(err, &re) {
			return nil, apperrors.NewUpstreamError("Bedrock", re.HTTPStatusCode(), err.Error())
		}
		return nil, fmt.Errorf("bedrock invoke model: %w", err)
	}
	metrics.RelayCompletions.WithLabelValues(ProviderBedrock, metrics.OutcomeOK).Inc()
	return out.Body, nil
}
