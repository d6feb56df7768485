package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/survey"
)

const SurveyQueryToolName = "query_survey_data"

// Tool is a tool declaration in the messages API format.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCatalog holds the declared tools and their compiled input schemas.
type ToolCatalog struct {
	tools   []Tool
	schemas map[string]*gojsonschema.Schema
}

func NewToolCatalog(tools ...Tool) (*ToolCatalog, error) {
	c := &ToolCatalog{schemas: make(map[string]*gojsonschema.Schema, len(tools))}
	for _, t := range tools {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("tool name is empty")
		}
		if _, dup := c.schemas[t.Name]; dup {
			return nil, fmt.Errorf("tool %q declared twice", t.Name)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("tool %q input schema: %w", t.Name, err)
		}
		c.schemas[t.Name] = schema
		c.tools = append(c.tools, t)
	}
	return c, nil
}

// DefaultToolCatalog declares the survey query tool only.
func DefaultToolCatalog() (*ToolCatalog, error) {
	return NewToolCatalog(SurveyQueryTool())
}

func SurveyQueryTool() Tool {
	return Tool{
		Name: SurveyQueryToolName,
		Description: "Query the member survey responses. Use 'summary' for dataset size and column overviews, " +
			"'stats' for per-column value distributions, 'filter' to retrieve matching responses and " +
			"'sample' for a sample balanced across membership categories. Column names are full question texts.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"queryType": map[string]any{
					"type": "string",
					"enum": []any{
						string(survey.QueryFilter),
						string(survey.QuerySummary),
						string(survey.QueryStats),
						string(survey.QuerySample),
					},
					"description": "Type of query to run",
				},
				"filters": map[string]any{
					"type":        "object",
					"description": "Column to value, or column to {operator, value} with operator one of equals, contains, gte, lte",
				},
				"columns": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Columns to return or analyze",
				},
				"limit": map[string]any{
					"type":        "integer",
					"default":     survey.DefaultLimit,
					"description": "Maximum number of rows to return",
				},
			},
			"required": []any{"queryType"},
		},
	}
}

// Tools returns the declarations sent with every completion request.
func (c *ToolCatalog) Tools() []Tool {
	if c == nil {
		return nil
	}
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

func (c *ToolCatalog) IsAllowed(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.schemas[name]
	return ok
}

// Validate checks a tool_use input against the tool's declared schema.
func (c *ToolCatalog) Validate(name string, input json.RawMessage) error {
	if !c.IsAllowed(name) {
		return apperrors.NewMalformedRequestError(fmt.Sprintf("unknown tool %q", name))
	}
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	result, err := c.schemas[name].Validate(gojsonschema.NewBytesLoader(input))
	if err != nil {
		return apperrors.NewMalformedRequestError(fmt.Sprintf("tool input: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return apperrors.NewMalformedRequestError("tool input: " + strings.Join(errs, "; "))
	}
	return nil
}
